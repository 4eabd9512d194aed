package db

import (
	"context"
	"fmt"

	"finboard-server/src/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the records table and its gsi1 index. Keys use the
// C collation so keyset pagination matches byte order.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, table string) error {
	ident := pgx.Identifier{table}.Sanitize()
	index := pgx.Identifier{table + "_gsi1"}.Sanitize()
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			pk      TEXT COLLATE "C" NOT NULL,
			sk      TEXT COLLATE "C" NOT NULL,
			gsi1pk  TEXT COLLATE "C" NOT NULL DEFAULT '',
			gsi1sk  TEXT COLLATE "C" NOT NULL DEFAULT '',
			data    JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (pk, sk)
		);
		CREATE INDEX IF NOT EXISTS %s ON %s (gsi1pk, gsi1sk, pk, sk);
	`, ident, index, ident)

	_, err := pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create records table: %w", err)
	}
	return nil
}

// PutRecords upserts records by primary key in one batch.
func PutRecords(ctx context.Context, pool *pgxpool.Pool, table string, records []db.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (pk, sk, gsi1pk, gsi1sk, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (pk, sk) DO UPDATE SET
			gsi1pk = EXCLUDED.gsi1pk,
			gsi1sk = EXCLUDED.gsi1sk,
			data = EXCLUDED.data,
			updated_at = NOW()
	`, pgx.Identifier{table}.Sanitize())

	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(query, r.PK, r.SK, r.GSI1PK, r.GSI1SK, string(r.Data))
	}

	br := pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to save record %s/%s: %w", records[i].PK, records[i].SK, err)
		}
	}
	return nil
}
