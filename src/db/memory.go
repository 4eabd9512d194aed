package db

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process RecordStore with the same ordering and
// pagination rules as the Postgres store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[Key]Record
}

func NewMemoryStore(records ...Record) *MemoryStore {
	s := &MemoryStore{records: make(map[Key]Record)}
	s.Put(records...)
	return s
}

// Put inserts or replaces records by primary key.
func (s *MemoryStore) Put(records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[Key{PK: r.PK, SK: r.SK}] = r
	}
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Query(ctx context.Context, q Query) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if err := q.Validate(); err != nil {
		return Page{}, err
	}

	s.mu.RLock()
	var matched []Record
	for _, r := range s.records {
		pk, sk := r.PK, r.SK
		if q.Index == IndexGSI1 {
			pk, sk = r.GSI1PK, r.GSI1SK
		}
		if pk == q.PartitionKey && strings.HasPrefix(sk, q.SortKeyPrefix) {
			matched = append(matched, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		c := compareKeys(KeyOf(matched[i], q.Index), KeyOf(matched[j], q.Index), q.Index)
		if q.Descending {
			return c > 0
		}
		return c < 0
	})

	start := 0
	if q.ExclusiveStartKey != nil {
		start = len(matched)
		for i, r := range matched {
			c := compareKeys(KeyOf(r, q.Index), *q.ExclusiveStartKey, q.Index)
			if (!q.Descending && c > 0) || (q.Descending && c < 0) {
				start = i
				break
			}
		}
	}
	matched = matched[start:]

	var page Page
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
		last := KeyOf(matched[len(matched)-1], q.Index)
		page.LastEvaluatedKey = &last
	}
	page.Records = matched
	return page, nil
}

// compareKeys orders by sort key, with the table key breaking ties on the
// index.
func compareKeys(a, b Key, index string) int {
	if index == IndexGSI1 {
		if c := strings.Compare(a.GSI1SK, b.GSI1SK); c != 0 {
			return c
		}
		if c := strings.Compare(a.PK, b.PK); c != 0 {
			return c
		}
	}
	return strings.Compare(a.SK, b.SK)
}
