package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"finboard-server/src/db"
	"finboard-server/src/models"
	"finboard-server/src/util"
)

// JoinStrategy selects how accounts are fetched for a user's items.
type JoinStrategy string

const (
	// PerItem issues one accounts query per item on the primary key.
	PerItem JoinStrategy = "per_item"
	// UserIndex issues a single user-scoped accounts query on GSI1 and
	// groups the result by item_id.
	UserIndex JoinStrategy = "user_index"
)

// Valid reports whether s names a known strategy.
func (s JoinStrategy) Valid() bool {
	return s == PerItem || s == UserIndex
}

const defaultFanOut = 8

// JoinEngine resolves a user's items and joins each to its accounts.
type JoinEngine struct {
	store    db.RecordStore
	strategy JoinStrategy
	fanOut   int
	log      zerolog.Logger
	tracer   trace.Tracer
}

func NewJoinEngine(store db.RecordStore, strategy JoinStrategy, fanOut int, log zerolog.Logger) *JoinEngine {
	if strategy == "" {
		strategy = PerItem
	}
	if fanOut < 1 {
		fanOut = defaultFanOut
	}
	return &JoinEngine{
		store:    store,
		strategy: strategy,
		fanOut:   fanOut,
		log:      log,
		tracer:   otel.Tracer("finboard/finance"),
	}
}

// ListItemsWithAccounts returns every item owned by userID with the accounts
// stored under it. If the accounts of any item cannot be read the whole
// result is discarded and a *PartialJoinError is returned.
func (j *JoinEngine) ListItemsWithAccounts(ctx context.Context, userID string) ([]models.ItemWithAccounts, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if !util.ValidateID(userID) {
		return nil, fmt.Errorf("%w: user id %q", ErrInvalidScope, userID)
	}

	ctx, span := j.tracer.Start(ctx, "finance.join",
		trace.WithAttributes(attribute.String("join.strategy", string(j.strategy))))
	defer span.End()

	items, err := j.listItems(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("join.items", len(items)))

	var accounts map[string][]models.Account
	switch j.strategy {
	case UserIndex:
		accounts, err = j.accountsByUserIndex(ctx, userID, items)
	default:
		accounts, err = j.accountsPerItem(ctx, userID, items)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := make([]models.ItemWithAccounts, 0, len(items))
	for _, item := range items {
		accs := accounts[item.ItemID]
		if accs == nil {
			accs = []models.Account{}
		}
		out = append(out, models.ItemWithAccounts{
			ItemID:          item.ItemID,
			InstitutionID:   item.InstitutionID,
			InstitutionName: item.InstitutionName,
			Accounts:        accs,
			TotalBalance:    models.NewAmount(ItemTotal(accs)),
			AccountCount:    len(accs),
		})
	}
	return out, nil
}

func (j *JoinEngine) listItems(ctx context.Context, userID string) ([]models.Item, error) {
	records, err := db.QueryAll(ctx, j.store, db.Query{
		Index:         db.IndexGSI1,
		PartitionKey:  db.UserKey(userID),
		SortKeyPrefix: db.ItemPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("list items for user %s: %w", userID, storeError(err))
	}

	items := make([]models.Item, 0, len(records))
	for _, r := range records {
		item, err := decodeItem(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (j *JoinEngine) accountsPerItem(ctx context.Context, userID string, items []models.Item) (map[string][]models.Account, error) {
	var (
		mu     sync.Mutex
		failed []string
		out    = make(map[string][]models.Account, len(items))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.fanOut)
	for _, item := range items {
		g.Go(func() error {
			records, err := db.QueryAll(gctx, j.store, db.Query{
				PartitionKey:  db.ItemKey(item.ItemID),
				SortKeyPrefix: db.AccountPrefix,
			})
			if err != nil {
				// Siblings cancelled by the first failure are not failures of their own.
				if !(errors.Is(err, context.Canceled) && gctx.Err() != nil && ctx.Err() == nil) {
					mu.Lock()
					failed = append(failed, item.ItemID)
					mu.Unlock()
				}
				return fmt.Errorf("list accounts for item %s: %w", item.ItemID, storeError(err))
			}

			accs, err := j.decodeAccounts(userID, records)
			if err != nil {
				mu.Lock()
				failed = append(failed, item.ItemID)
				mu.Unlock()
				return err
			}

			mu.Lock()
			out[item.ItemID] = accs
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		sort.Strings(failed)
		return nil, &PartialJoinError{UserID: userID, FailedItems: failed, Err: err}
	}
	return out, nil
}

func (j *JoinEngine) accountsByUserIndex(ctx context.Context, userID string, items []models.Item) (map[string][]models.Account, error) {
	out := make(map[string][]models.Account, len(items))
	if len(items) == 0 {
		return out, nil
	}

	records, err := db.QueryAll(ctx, j.store, db.Query{
		Index:         db.IndexGSI1,
		PartitionKey:  db.UserKey(userID),
		SortKeyPrefix: db.AccountPrefix,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &PartialJoinError{
			UserID:      userID,
			FailedItems: itemIDs(items),
			Err:         fmt.Errorf("list accounts for user %s: %w", userID, storeError(err)),
		}
	}

	accs, err := j.decodeAccounts(userID, records)
	if err != nil {
		return nil, &PartialJoinError{UserID: userID, FailedItems: itemIDs(items), Err: err}
	}

	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ItemID] = true
	}
	for _, a := range accs {
		if !known[a.ItemID] {
			j.log.Warn().Str("user_id", userID).Str("account_id", a.AccountID).Str("item_id", a.ItemID).
				Msg("Dropping account with no matching item")
			continue
		}
		out[a.ItemID] = append(out[a.ItemID], a)
	}
	return out, nil
}

// decodeAccounts drops accounts whose document disagrees with the record
// keys about the owning item, and accounts that belong to another user by
// either their GSI1 key or their document.
func (j *JoinEngine) decodeAccounts(userID string, records []db.Record) ([]models.Account, error) {
	accs := make([]models.Account, 0, len(records))
	for _, r := range records {
		a, err := decodeAccount(r)
		if err != nil {
			return nil, err
		}
		if r.PK != db.ItemKey(a.ItemID) {
			j.log.Warn().Str("user_id", userID).Str("account_id", a.AccountID).
				Str("item_id", a.ItemID).Str("record_pk", r.PK).
				Msg("Dropping account stored under a different item")
			continue
		}
		if r.GSI1PK != "" && r.GSI1PK != db.UserKey(userID) {
			j.log.Warn().Str("user_id", userID).Str("account_id", a.AccountID).
				Str("record_gsi1pk", r.GSI1PK).
				Msg("Dropping account indexed under another user")
			continue
		}
		if a.UserID != "" && a.UserID != userID {
			j.log.Warn().Str("user_id", userID).Str("account_id", a.AccountID).
				Msg("Dropping account owned by another user")
			continue
		}
		accs = append(accs, a)
	}
	return accs, nil
}

func decodeItem(r db.Record) (models.Item, error) {
	var item models.Item
	if err := json.Unmarshal(r.Data, &item); err != nil {
		return models.Item{}, fmt.Errorf("decode item record %s: %w", r.PK, err)
	}
	if item.ItemID == "" {
		item.ItemID = strings.TrimPrefix(r.PK, db.ItemPrefix)
	}
	return item, nil
}

// decodeAccount fills ids missing from the document from the record keys.
func decodeAccount(r db.Record) (models.Account, error) {
	var a models.Account
	if err := json.Unmarshal(r.Data, &a); err != nil {
		return models.Account{}, fmt.Errorf("decode account record %s/%s: %w", r.PK, r.SK, err)
	}
	if a.AccountID == "" {
		a.AccountID = strings.TrimPrefix(r.SK, db.AccountPrefix)
	}
	if a.ItemID == "" {
		a.ItemID = strings.TrimPrefix(r.PK, db.ItemPrefix)
	}
	return a, nil
}

func itemIDs(items []models.Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ItemID
	}
	sort.Strings(ids)
	return ids
}

// storeError makes sure a store failure is classified as ErrStoreQuery.
// Cancellation and invalid queries pass through unchanged.
func storeError(err error) error {
	if errors.Is(err, ErrStoreQuery) || errors.Is(err, db.ErrInvalidQuery) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrStoreQuery, err)
}
