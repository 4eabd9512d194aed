package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"finboard-server/src/handlers"
	"finboard-server/src/middleware"
)

type RouterConfig struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Log            zerolog.Logger
}

func NewRouter(svc handlers.FinanceService, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		// Protected routes
		r.With(middleware.JWTAuthMiddleware(cfg.JWTSecret)).Group(func(r chi.Router) {
			r.Get("/summary", handlers.GetFinancialSummary(svc))
			r.Get("/items", handlers.GetItemsWithAccounts(svc))
			r.Get("/accounts", handlers.GetAccounts(svc))
			r.Get("/transactions", handlers.GetTransactions(svc))
			r.Get("/accounts/{account_id}/transactions", handlers.GetTransactions(svc))
		})
	})

	return r
}
