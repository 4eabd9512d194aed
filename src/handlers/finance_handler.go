package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finboard-server/src/finance"
	"finboard-server/src/logger"
	"finboard-server/src/middleware"
	"finboard-server/src/models"
	"finboard-server/src/util"
)

// FinanceService is the read surface the handlers serve.
type FinanceService interface {
	GetFinancialSummary(ctx context.Context, userID string) (models.Summary, error)
	GetItemsWithAccounts(ctx context.Context, userID string) ([]models.ItemWithAccounts, error)
	ListAccounts(ctx context.Context, userID, accountType string) ([]models.Account, error)
	GetTransactions(ctx context.Context, scope finance.Scope, cursor string, limit int) (models.TransactionPage, error)
}

type summaryDisplay struct {
	TotalAssets      string `json:"totalAssets"`
	TotalLiabilities string `json:"totalLiabilities"`
	NetWorth         string `json:"netWorth"`
}

type summaryResponse struct {
	models.Summary
	Display summaryDisplay `json:"display"`
}

type itemResponse struct {
	models.ItemWithAccounts
	Display string `json:"display"`
}

type transactionResponse struct {
	models.Transaction
	PrimaryCategory string `json:"primary_category"`
}

type transactionPageResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Cursor       string                `json:"cursor,omitempty"`
}

func GetFinancialSummary(svc FinanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		summary, err := svc.GetFinancialSummary(r.Context(), userID)
		if err != nil {
			reqLog := logger.FromContext(r.Context())
			reqLog.Error().Err(err).Str("user_id", userID).Msg("Failed to get financial summary")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summaryResponse{
			Summary: summary,
			Display: summaryDisplay{
				TotalAssets:      util.FormatUSD(summary.TotalAssets.OrZero()),
				TotalLiabilities: util.FormatUSD(summary.TotalLiabilities.OrZero()),
				NetWorth:         util.FormatUSD(summary.NetWorth.OrZero()),
			},
		})
	}
}

func GetItemsWithAccounts(svc FinanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		items, err := svc.GetItemsWithAccounts(r.Context(), userID)
		if err != nil {
			reqLog := logger.FromContext(r.Context())
			reqLog.Error().Err(err).Str("user_id", userID).Msg("Failed to get items with accounts")
			writeError(w, err)
			return
		}
		out := make([]itemResponse, 0, len(items))
		for _, item := range items {
			out = append(out, itemResponse{
				ItemWithAccounts: item,
				Display:          util.FormatUSD(item.TotalBalance.OrZero()),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func GetAccounts(svc FinanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		accountType := r.URL.Query().Get("type")
		accounts, err := svc.ListAccounts(r.Context(), userID, accountType)
		if err != nil {
			reqLog := logger.FromContext(r.Context())
			reqLog.Error().Err(err).Str("user_id", userID).Str("type", accountType).Msg("Failed to list accounts")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, accounts)
	}
}

// GetTransactions serves the user's transactions, or one account's when the
// route carries an account_id.
func GetTransactions(svc FinanceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := finance.Scope{
			UserID:    middleware.UserIDFromContext(r.Context()),
			AccountID: chi.URLParam(r, "account_id"),
		}
		limit, ok := util.ParseLimit(r.URL.Query().Get("limit"))
		if !ok {
			reqLog := logger.FromContext(r.Context())
			reqLog.Warn().Str("limit", r.URL.Query().Get("limit")).Msg("Invalid limit param")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit", Code: "invalid_limit"})
			return
		}

		page, err := svc.GetTransactions(r.Context(), scope, r.URL.Query().Get("cursor"), limit)
		if err != nil {
			reqLog := logger.FromContext(r.Context())
			event := reqLog.Error()
			if !finance.IsRetryable(err) {
				event = reqLog.Warn()
			}
			event.Err(err).Str("user_id", scope.UserID).Str("account_id", scope.AccountID).Msg("Failed to get transactions")
			writeError(w, err)
			return
		}

		out := transactionPageResponse{
			Transactions: make([]transactionResponse, 0, len(page.Transactions)),
			Cursor:       page.Cursor,
		}
		for _, t := range page.Transactions {
			out.Transactions = append(out.Transactions, transactionResponse{
				Transaction:     t,
				PrimaryCategory: t.PrimaryCategory(),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
