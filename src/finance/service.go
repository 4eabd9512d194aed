package finance

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"finboard-server/src/models"
)

// Service is the read-only query surface over a user's linked accounts.
// Every call recomputes its result from the record store.
type Service struct {
	join  *JoinEngine
	pager *TransactionPager
	log   zerolog.Logger
	now   func() time.Time
}

func NewService(join *JoinEngine, pager *TransactionPager, log zerolog.Logger) *Service {
	return &Service{join: join, pager: pager, log: log, now: time.Now}
}

func (s *Service) GetItemsWithAccounts(ctx context.Context, userID string) ([]models.ItemWithAccounts, error) {
	return s.join.ListItemsWithAccounts(ctx, userID)
}

// GetFinancialSummary joins the user's items and accounts and summarizes
// the result. A failed join is returned as is, never as zero totals.
func (s *Service) GetFinancialSummary(ctx context.Context, userID string) (models.Summary, error) {
	items, err := s.join.ListItemsWithAccounts(ctx, userID)
	if err != nil {
		return models.Summary{}, err
	}
	return s.SummarizeItems(userID, items), nil
}

// SummarizeItems summarizes items already returned by GetItemsWithAccounts.
func (s *Service) SummarizeItems(userID string, items []models.ItemWithAccounts) models.Summary {
	summary := Summarize(flatten(items))
	for _, ex := range summary.Excluded {
		event := s.log.Warn().Str("user_id", userID).Str("account_id", ex.AccountID)
		switch ex.Reason {
		case models.ExcludedCurrency:
			event.Str("currency", ex.Currency).Msg("Excluding non-USD account from totals")
		default:
			event.Str("type", ex.Type).Msg("Excluding account of unrecognized type from totals")
		}
	}
	summary.LastUpdated = s.now().UTC()
	return summary
}

// ListAccounts returns the user's accounts across all items, optionally
// restricted to one account type.
func (s *Service) ListAccounts(ctx context.Context, userID, accountType string) ([]models.Account, error) {
	items, err := s.join.ListItemsWithAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	accounts := flatten(items)
	accountType = strings.TrimSpace(accountType)
	if accountType == "" {
		return accounts, nil
	}

	filtered := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		if strings.EqualFold(strings.TrimSpace(a.Type), accountType) {
			filtered = append(filtered, a)
		}
	}
	return filtered, nil
}

func (s *Service) GetTransactions(ctx context.Context, scope Scope, cursor string, limit int) (models.TransactionPage, error) {
	return s.pager.List(ctx, scope, cursor, limit)
}

func flatten(items []models.ItemWithAccounts) []models.Account {
	accounts := make([]models.Account, 0)
	for _, item := range items {
		accounts = append(accounts, item.Accounts...)
	}
	return accounts
}
