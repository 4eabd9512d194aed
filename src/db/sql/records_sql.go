package db

import (
	"context"
	"fmt"
	"strings"

	"finboard-server/src/db"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore serves the record store contract from a single table with
// the primary key (pk, sk) and the gsi1 index (gsi1pk, gsi1sk, pk, sk).
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgresStore(pool *pgxpool.Pool, table string) *PostgresStore {
	return &PostgresStore{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

func (s *PostgresStore) Query(ctx context.Context, q db.Query) (db.Page, error) {
	if err := q.Validate(); err != nil {
		return db.Page{}, err
	}

	query, args := buildQuery(s.table, q)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return db.Page{}, err
	}
	defer rows.Close()

	var records []db.Record
	for rows.Next() {
		var r db.Record
		err := rows.Scan(&r.PK, &r.SK, &r.GSI1PK, &r.GSI1SK, &r.Data)
		if err != nil {
			return db.Page{}, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return db.Page{}, err
	}

	var page db.Page
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
		last := db.KeyOf(records[len(records)-1], q.Index)
		page.LastEvaluatedKey = &last
	}
	page.Records = records
	return page, nil
}

// buildQuery renders q as keyset-paginated SQL. One extra row is read so the
// caller can tell whether another page exists.
func buildQuery(table string, q db.Query) (string, []any) {
	partitionCol, sortCol := "pk", "sk"
	orderCols := []string{"sk"}
	if q.Index == db.IndexGSI1 {
		partitionCol, sortCol = "gsi1pk", "gsi1sk"
		orderCols = []string{"gsi1sk", "pk", "sk"}
	}

	cmp, dir := ">", "ASC"
	if q.Descending {
		cmp, dir = "<", "DESC"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT pk, sk, gsi1pk, gsi1sk, data FROM %s WHERE %s = $1 AND starts_with(%s, $2)", table, partitionCol, sortCol)
	args := []any{q.PartitionKey, q.SortKeyPrefix}

	if k := q.ExclusiveStartKey; k != nil {
		if q.Index == db.IndexGSI1 {
			fmt.Fprintf(&b, " AND (gsi1sk, pk, sk) %s ($3, $4, $5)", cmp)
			args = append(args, k.GSI1SK, k.PK, k.SK)
		} else {
			fmt.Fprintf(&b, " AND sk %s $3", cmp)
			args = append(args, k.SK)
		}
	}

	order := make([]string, len(orderCols))
	for i, c := range orderCols {
		order[i] = c + " " + dir
	}
	fmt.Fprintf(&b, " ORDER BY %s", strings.Join(order, ", "))

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit+1)
	}
	return b.String(), args
}
