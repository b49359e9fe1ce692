package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	mW "github.com/ruralpay/accountledger/internal/middleware"
)

type RouterConfig struct {
	AuthEnabled    bool
	JWTSecret      string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

func NewRouter(accounts *AccountHandler, transactions *TransactionHandler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"https://*", "http://*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AuthEnabled {
			r.Use(mW.AuthMiddleware(cfg.JWTSecret))
		}

		r.Post("/account", accounts.CreateAccount)
		r.Delete("/account", accounts.CloseAccount)
		r.Get("/account", accounts.GetAccounts)

		r.Post("/transaction/use", transactions.UseBalance)
		r.Post("/transaction/cancel", transactions.CancelBalance)
		r.Get("/transaction/{transactionId}", transactions.QueryTransaction)
	})

	return r
}
