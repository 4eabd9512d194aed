package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"finboard-server/src/db"
	"finboard-server/src/models"
	"finboard-server/src/util"
)

const (
	defaultPageSize    = 25
	defaultMaxPageSize = 100
)

// Scope is the subject of a transaction listing: all of a user's
// transactions, or one account's when AccountID is set.
type Scope struct {
	UserID    string
	AccountID string
}

// String is the scope identity a cursor is bound to.
func (s Scope) String() string {
	if s.AccountID == "" {
		return "user:" + s.UserID
	}
	return "account:" + s.UserID + ":" + s.AccountID
}

func (s Scope) validate() error {
	if s.UserID == "" {
		return ErrUnauthenticated
	}
	if !util.ValidateID(s.UserID) {
		return fmt.Errorf("%w: user id %q", ErrInvalidScope, s.UserID)
	}
	if s.AccountID != "" && !util.ValidateID(s.AccountID) {
		return fmt.Errorf("%w: account id %q", ErrInvalidScope, s.AccountID)
	}
	return nil
}

// TransactionPager lists transactions newest first in bounded pages.
type TransactionPager struct {
	store       db.RecordStore
	cursors     *CursorCodec
	pageSize    int
	maxPageSize int
	log         zerolog.Logger
}

func NewTransactionPager(store db.RecordStore, cursors *CursorCodec, pageSize, maxPageSize int, log zerolog.Logger) *TransactionPager {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if maxPageSize < pageSize {
		maxPageSize = max(pageSize, defaultMaxPageSize)
	}
	return &TransactionPager{
		store:       store,
		cursors:     cursors,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		log:         log,
	}
}

// List returns the page after cursor, or the first page when cursor is
// empty. The returned page has no cursor when it is the last one. limit <= 0
// selects the default page size.
func (p *TransactionPager) List(ctx context.Context, scope Scope, cursor string, limit int) (models.TransactionPage, error) {
	if err := scope.validate(); err != nil {
		return models.TransactionPage{}, err
	}

	var start *db.Key
	if cursor != "" {
		key, err := p.cursors.Decode(scope.String(), cursor)
		if err != nil {
			return models.TransactionPage{}, err
		}
		start = &key
	}

	q := db.Query{
		SortKeyPrefix:     db.TransactionPrefix,
		Descending:        true,
		Limit:             p.pageLimit(limit),
		ExclusiveStartKey: start,
	}
	if scope.AccountID == "" {
		q.Index = db.IndexGSI1
		q.PartitionKey = db.UserKey(scope.UserID)
	} else {
		if err := p.checkOwnership(ctx, scope); err != nil {
			return models.TransactionPage{}, err
		}
		q.PartitionKey = db.AccountKey(scope.AccountID)
	}

	page, err := p.store.Query(ctx, q)
	if err != nil {
		return models.TransactionPage{}, fmt.Errorf("list transactions for %s: %w", scope, storeError(err))
	}

	txns := make([]models.Transaction, 0, len(page.Records))
	for _, r := range page.Records {
		t, err := decodeTransaction(r)
		if err != nil {
			return models.TransactionPage{}, err
		}
		txns = append(txns, t)
	}

	out := models.TransactionPage{Transactions: txns}
	if page.LastEvaluatedKey != nil {
		next, err := p.cursors.Encode(scope.String(), *page.LastEvaluatedKey)
		if err != nil {
			return models.TransactionPage{}, fmt.Errorf("encode cursor: %w", err)
		}
		out.Cursor = next
	}
	return out, nil
}

func (p *TransactionPager) pageLimit(limit int) int {
	if limit <= 0 {
		return p.pageSize
	}
	return min(limit, p.maxPageSize)
}

// checkOwnership looks the account up on the user's index. A prefix query
// also matches longer ids, so the sort key is compared exactly.
func (p *TransactionPager) checkOwnership(ctx context.Context, scope Scope) error {
	want := db.AccountKey(scope.AccountID)
	records, err := db.QueryAll(ctx, p.store, db.Query{
		Index:         db.IndexGSI1,
		PartitionKey:  db.UserKey(scope.UserID),
		SortKeyPrefix: want,
	})
	if err != nil {
		return fmt.Errorf("look up account %s: %w", scope.AccountID, storeError(err))
	}
	for _, r := range records {
		if r.GSI1SK == want {
			return nil
		}
	}
	p.log.Warn().Str("user_id", scope.UserID).Str("account_id", scope.AccountID).
		Msg("Transactions requested for an account the user does not own")
	return fmt.Errorf("%w: %s", ErrAccountNotFound, scope.AccountID)
}

func decodeTransaction(r db.Record) (models.Transaction, error) {
	var t models.Transaction
	if err := json.Unmarshal(r.Data, &t); err != nil {
		return models.Transaction{}, fmt.Errorf("decode transaction record %s/%s: %w", r.PK, r.SK, err)
	}
	if t.AccountID == "" && strings.HasPrefix(r.PK, db.AccountPrefix) {
		t.AccountID = strings.TrimPrefix(r.PK, db.AccountPrefix)
	}
	return t, nil
}
