package db

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func seedTransactions(userID, accountID string, n int) []Record {
	var out []Record
	for i := 0; i < n; i++ {
		date := fmt.Sprintf("2024-01-%02d", i%28+1)
		r := TransactionRecordKeys(userID, accountID, date, fmt.Sprintf("t%03d", i))
		r.Data = []byte(`{}`)
		out = append(out, r)
	}
	return out
}

func TestMemoryStore_PaginatesWithoutGapsOrDuplicates(t *testing.T) {
	store := NewMemoryStore(seedTransactions("u1", "a1", 23)...)
	store.Put(seedTransactions("u1", "a2", 7)...)
	store.Put(seedTransactions("u2", "a3", 5)...)

	tests := []struct {
		name  string
		query Query
		want  int
	}{
		{"account ascending", Query{PartitionKey: AccountKey("a1"), SortKeyPrefix: TransactionPrefix, Limit: 5}, 23},
		{"account descending", Query{PartitionKey: AccountKey("a1"), SortKeyPrefix: TransactionPrefix, Limit: 4, Descending: true}, 23},
		{"user index", Query{Index: IndexGSI1, PartitionKey: UserKey("u1"), SortKeyPrefix: TransactionPrefix, Limit: 6, Descending: true}, 30},
		{"page larger than set", Query{PartitionKey: AccountKey("a1"), SortKeyPrefix: TransactionPrefix, Limit: 100}, 23},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := map[Key]bool{}
			var prev *Key
			q := tt.query
			for pages := 0; ; pages++ {
				if pages > 100 {
					t.Fatal("pagination did not terminate")
				}
				page, err := store.Query(context.Background(), q)
				if err != nil {
					t.Fatalf("Query() error = %v", err)
				}
				for _, r := range page.Records {
					k := KeyOf(r, q.Index)
					if seen[k] {
						t.Fatalf("duplicate record %v", k)
					}
					seen[k] = true
					if prev != nil {
						c := compareKeys(*prev, k, q.Index)
						if (q.Descending && c <= 0) || (!q.Descending && c >= 0) {
							t.Fatalf("order broken between %v and %v", *prev, k)
						}
					}
					prev = &k
				}
				if page.LastEvaluatedKey == nil {
					break
				}
				if len(page.Records) == 0 {
					t.Fatal("empty page returned with a continuation key")
				}
				q.ExclusiveStartKey = page.LastEvaluatedKey
			}
			if len(seen) != tt.want {
				t.Errorf("got %d records, want %d", len(seen), tt.want)
			}
		})
	}
}

func TestMemoryStore_ExactPageHasNoTrailingKey(t *testing.T) {
	store := NewMemoryStore(seedTransactions("u1", "a1", 10)...)

	page, err := store.Query(context.Background(), Query{PartitionKey: AccountKey("a1"), SortKeyPrefix: TransactionPrefix, Limit: 10})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(page.Records) != 10 {
		t.Errorf("got %d records, want 10", len(page.Records))
	}
	if page.LastEvaluatedKey != nil {
		t.Errorf("LastEvaluatedKey = %v, want nil", page.LastEvaluatedKey)
	}
}

func TestMemoryStore_EmptyPartition(t *testing.T) {
	store := NewMemoryStore()

	page, err := store.Query(context.Background(), Query{PartitionKey: AccountKey("none"), Limit: 10})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(page.Records) != 0 || page.LastEvaluatedKey != nil {
		t.Errorf("Query() = %+v, want empty final page", page)
	}
}

func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{"table", Query{PartitionKey: "ITEM#1"}, false},
		{"index", Query{Index: IndexGSI1, PartitionKey: "USER#1"}, false},
		{"unknown index", Query{Index: "GSI9", PartitionKey: "USER#1"}, true},
		{"no partition key", Query{SortKeyPrefix: "ACCOUNT#"}, true},
		{"negative limit", Query{PartitionKey: "ITEM#1", Limit: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("Validate() error = %v, want ErrInvalidQuery", err)
			}
		})
	}
}

func TestQueryAll(t *testing.T) {
	store := NewMemoryStore(seedTransactions("u1", "a1", 12)...)

	got, err := QueryAll(context.Background(), store, Query{PartitionKey: AccountKey("a1"), SortKeyPrefix: TransactionPrefix, Limit: 5})
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(got) != 12 {
		t.Errorf("QueryAll() returned %d records, want 12", len(got))
	}
}
