package db

import (
	"context"
	"errors"
	"fmt"
)

// IndexGSI1 is the user-scoped secondary index (gsi1pk, gsi1sk).
const IndexGSI1 = "GSI1"

var (
	// ErrStoreQuery marks a query that failed after retries. It is transient
	// from the caller's point of view.
	ErrStoreQuery = errors.New("record store query failed")
	// ErrInvalidQuery marks a query the store cannot run at all.
	ErrInvalidQuery = errors.New("invalid record store query")
)

// Record is one stored entity with its primary and index keys.
type Record struct {
	PK     string
	SK     string
	GSI1PK string
	GSI1SK string
	Data   []byte
}

// Key is a resume position. Index queries need all four attributes to keep
// the order total.
type Key struct {
	PK     string `json:"pk"`
	SK     string `json:"sk"`
	GSI1PK string `json:"gsi1pk,omitempty"`
	GSI1SK string `json:"gsi1sk,omitempty"`
}

// Query selects records by partition key equality and an optional sort key
// prefix, on the table itself or on an index.
type Query struct {
	Index             string
	PartitionKey      string
	SortKeyPrefix     string
	Descending        bool
	Limit             int
	ExclusiveStartKey *Key
}

func (q Query) Validate() error {
	if q.Index != "" && q.Index != IndexGSI1 {
		return fmt.Errorf("%w: unknown index %q", ErrInvalidQuery, q.Index)
	}
	if q.PartitionKey == "" {
		return fmt.Errorf("%w: partition key is required", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

// Page is one slice of a query result. LastEvaluatedKey is nil when no
// records remain.
type Page struct {
	Records          []Record
	LastEvaluatedKey *Key
}

// RecordStore is the query surface of the key-value store.
type RecordStore interface {
	Query(ctx context.Context, q Query) (Page, error)
}

// QueryAll follows LastEvaluatedKey until the result is exhausted.
func QueryAll(ctx context.Context, s RecordStore, q Query) ([]Record, error) {
	var out []Record
	for {
		page, err := s.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Records...)
		if page.LastEvaluatedKey == nil {
			return out, nil
		}
		q.ExclusiveStartKey = page.LastEvaluatedKey
	}
}

// KeyOf returns the resume key of r for a query on index.
func KeyOf(r Record, index string) Key {
	k := Key{PK: r.PK, SK: r.SK}
	if index != "" {
		k.GSI1PK = r.GSI1PK
		k.GSI1SK = r.GSI1SK
	}
	return k
}
