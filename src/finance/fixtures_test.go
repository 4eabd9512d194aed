package finance

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"finboard-server/src/db"
	"finboard-server/src/models"
)

var nopLog = zerolog.Nop()

func usd() *string { c := "USD"; return &c }

func currency(code string) *string { return &code }

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %T: %v", v, err)
	}
	return b
}

func itemRecord(t *testing.T, userID, itemID string) db.Record {
	t.Helper()
	r := db.ItemRecordKeys(userID, itemID)
	r.Data = mustJSON(t, models.Item{
		ItemID:          itemID,
		InstitutionID:   "ins_" + itemID,
		InstitutionName: "Bank " + itemID,
		UserID:          userID,
	})
	return r
}

// accountRecord stores an account document. current is written as given, so
// tests can use numbers, strings, nil or garbage.
func accountRecord(t *testing.T, userID, itemID, accountID, typ string, current any, isoCurrency *string) db.Record {
	t.Helper()
	r := db.AccountRecordKeys(userID, itemID, accountID)
	r.Data = mustJSON(t, map[string]any{
		"account_id": accountID,
		"item_id":    itemID,
		"user_id":    userID,
		"name":       "Account " + accountID,
		"mask":       "0000",
		"type":       typ,
		"subtype":    "",
		"balances": map[string]any{
			"current":           current,
			"available":         nil,
			"iso_currency_code": isoCurrency,
		},
	})
	return r
}

func transactionRecord(t *testing.T, userID, accountID, date, txnID string, amount string) db.Record {
	t.Helper()
	r := db.TransactionRecordKeys(userID, accountID, date, txnID)
	r.Data = mustJSON(t, map[string]any{
		"transaction_id": txnID,
		"account_id":     accountID,
		"amount":         json.Number(amount),
		"date":           date,
		"name":           "Purchase " + txnID,
		"category":       []string{"Shops", "Groceries"},
	})
	return r
}

func acct(id, typ, current string, isoCurrency *string) models.Account {
	return models.Account{
		AccountID: id,
		Type:      typ,
		Balances: models.Balances{
			Current:         models.AmountFromString(current),
			IsoCurrencyCode: isoCurrency,
		},
	}
}

// limitStore forces small pages so callers have to follow LastEvaluatedKey.
type limitStore struct {
	next  db.RecordStore
	limit int
}

func (s limitStore) Query(ctx context.Context, q db.Query) (db.Page, error) {
	if q.Limit == 0 || q.Limit > s.limit {
		q.Limit = s.limit
	}
	return s.next.Query(ctx, q)
}

// funcStore delegates to QueryFunc.
type funcStore struct {
	QueryFunc func(ctx context.Context, q db.Query) (db.Page, error)
}

func (s funcStore) Query(ctx context.Context, q db.Query) (db.Page, error) {
	return s.QueryFunc(ctx, q)
}

// householdStore holds two users. u1 owns i1 (checking, credit card),
// i2 (no accounts) and i3 (loan, brokerage); u2 owns i9.
func householdStore(t *testing.T) *db.MemoryStore {
	t.Helper()
	return db.NewMemoryStore(
		itemRecord(t, "u1", "i1"),
		itemRecord(t, "u1", "i2"),
		itemRecord(t, "u1", "i3"),
		itemRecord(t, "u2", "i9"),
		accountRecord(t, "u1", "i1", "a1", "depository", 1000.00, usd()),
		accountRecord(t, "u1", "i1", "a2", "credit", -250.50, usd()),
		accountRecord(t, "u1", "i3", "a3", "loan", -5000, currency("EUR")),
		accountRecord(t, "u1", "i3", "a4", "brokerage", 12.34, nil),
		accountRecord(t, "u2", "i9", "a9", "depository", 77, usd()),
	)
}

func accountIDs(items []models.ItemWithAccounts) map[string][]string {
	out := make(map[string][]string, len(items))
	for _, item := range items {
		ids := []string{}
		for _, a := range item.Accounts {
			ids = append(ids, a.AccountID)
		}
		out[item.ItemID] = ids
	}
	return out
}

func itemIDsOf(items []models.ItemWithAccounts) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ItemID
	}
	return ids
}

func summaryFields(s models.Summary) []string {
	return []string{
		fmt.Sprint("assets=", s.TotalAssets.String()),
		fmt.Sprint("liabilities=", s.TotalLiabilities.String()),
		fmt.Sprint("net=", s.NetWorth.String()),
		fmt.Sprint("depository=", s.AssetsByType.Depository.String()),
		fmt.Sprint("investment=", s.AssetsByType.Investment.String()),
		fmt.Sprint("assetTotal=", s.AssetsByType.Total.String()),
		fmt.Sprint("credit=", s.LiabilitiesByType.Credit.String()),
		fmt.Sprint("loan=", s.LiabilitiesByType.Loan.String()),
		fmt.Sprint("liabilityTotal=", s.LiabilitiesByType.Total.String()),
	}
}
