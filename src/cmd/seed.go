package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"finboard-server/src/config"
	"finboard-server/src/db"
	dbsql "finboard-server/src/db/sql"
	"finboard-server/src/fixture"
	"finboard-server/src/logger"
)

type seedCmd struct {
	file string
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "load a JSON fixture into the Postgres record store" }
func (*seedCmd) Usage() string {
	return `finboard seed -file <fixture.json>

  Creates the records table if missing and upserts every item, account
  and transaction of the fixture.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "file", "", "Fixture file to load.")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fmt.Fprintln(os.Stderr, "seed: -file is required")
		return subcommands.ExitUsageError
	}
	cfg, err := config.Load()
	if err == nil {
		err = cfg.RequireDatabase()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	log := logger.New(cfg.LogLevel)

	f, err := fixture.ReadFile(c.file)
	if err != nil {
		log.Error().Err(err).Str("file", c.file).Msg("Failed to read fixture")
		return subcommands.ExitFailure
	}
	records, err := f.Records()
	if err != nil {
		log.Error().Err(err).Str("file", c.file).Msg("Invalid fixture")
		return subcommands.ExitFailure
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error().Err(err).Msg("DB connection failed")
		return subcommands.ExitFailure
	}
	defer pool.Close()

	if err := dbsql.EnsureSchema(ctx, pool, cfg.RecordsTable); err != nil {
		log.Error().Err(err).Msg("Failed to create schema")
		return subcommands.ExitFailure
	}
	if err := dbsql.PutRecords(ctx, pool, cfg.RecordsTable, records); err != nil {
		log.Error().Err(err).Msg("Failed to seed records")
		return subcommands.ExitFailure
	}
	log.Info().Int("records", len(records)).Str("table", cfg.RecordsTable).Msg("Seeded record store")
	return subcommands.ExitSuccess
}
