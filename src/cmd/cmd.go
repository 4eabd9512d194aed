// Package cmd holds the finboard subcommands.
package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/rs/zerolog"

	"finboard-server/src/config"
	"finboard-server/src/db"
	dbsql "finboard-server/src/db/sql"
	"finboard-server/src/finance"
	"finboard-server/src/fixture"
	"finboard-server/src/logger"
)

// Commands is the list of subcommands registered by main.
var Commands = []subcommands.Command{
	&serveCmd{},
	&seedCmd{},
	&summaryCmd{},
	&transactionsCmd{},
}

// storeFlags selects between the Postgres store and an in-memory store
// loaded from a fixture.
type storeFlags struct {
	memory  bool
	fixture string
}

func (s *storeFlags) register(f *flag.FlagSet) {
	f.BoolVar(&s.memory, "memory", false, "Serve from an in-memory store instead of Postgres.")
	f.StringVar(&s.fixture, "fixture", "", "JSON fixture loaded into the in-memory store (requires -memory).")
}

// open returns the raw record store and a release func.
func (s *storeFlags) open(ctx context.Context, cfg config.Config, log zerolog.Logger) (db.RecordStore, func(), error) {
	if s.memory {
		store := db.NewMemoryStore()
		if s.fixture != "" {
			f, err := fixture.ReadFile(s.fixture)
			if err != nil {
				return nil, nil, err
			}
			records, err := f.Records()
			if err != nil {
				return nil, nil, err
			}
			store.Put(records...)
		}
		log.Info().Int("records", store.Len()).Msg("Using in-memory record store")
		return store, func() {}, nil
	}

	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("DB connection failed: %w", err)
	}
	return dbsql.NewPostgresStore(pool, cfg.RecordsTable), pool.Close, nil
}

// setup loads config and builds the service on top of the selected store.
func setup(ctx context.Context, s *storeFlags) (config.Config, zerolog.Logger, *finance.Service, func(), error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return cfg, log, nil, nil, err
	}
	svc, release, err := s.service(ctx, cfg, log)
	return cfg, log, svc, release, err
}

func loadConfig() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logger.New(cfg.LogLevel), nil
}

// service opens the store and builds the service over it. Store metrics
// and spans bind to whichever otel providers are global at this point.
func (s *storeFlags) service(ctx context.Context, cfg config.Config, log zerolog.Logger) (*finance.Service, func(), error) {
	raw, release, err := s.open(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	svc, err := newService(cfg, raw, log)
	if err != nil {
		release()
		return nil, nil, err
	}
	return svc, release, nil
}

func newService(cfg config.Config, raw db.RecordStore, log zerolog.Logger) (*finance.Service, error) {
	policy := db.DefaultRetryPolicy()
	policy.Timeout = cfg.QueryTimeout
	policy.MaxRetries = uint64(cfg.QueryRetries)
	store, err := db.NewRetryingStore(raw, policy, log)
	if err != nil {
		return nil, err
	}

	if cfg.CursorSecret == "" {
		log.Warn().Msg("CURSOR_SECRET is not set, cursors will not survive a restart")
	}
	codec, err := finance.NewCursorCodec(cfg.CursorSecret)
	if err != nil {
		return nil, err
	}

	return finance.NewService(
		finance.NewJoinEngine(store, cfg.JoinStrategy, cfg.FanOutLimit, log),
		finance.NewTransactionPager(store, codec, cfg.PageSize, cfg.MaxPageSize, log),
		log,
	), nil
}
