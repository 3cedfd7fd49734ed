// Package api wires the HTTP routes of the tracker.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/accumulation-tracker-backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/accumulation-tracker-backend/internal/api/middleware"
	"github.com/ndewijer/accumulation-tracker-backend/internal/config"
	"github.com/ndewijer/accumulation-tracker-backend/internal/service"
)

// Services bundles the services the routes delegate to.
type Services struct {
	System       *service.SystemService
	History      *service.HistoryService
	Materialized *service.MaterializedService
	Position     *service.PositionService
	Transaction  *service.TransactionService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.History, svc.Materialized, svc.Position)
			r.Get("/latest", portfolioHandler.Latest)
			r.Get("/history", portfolioHandler.History)
			r.Get("/history/materialized", portfolioHandler.MaterializedHistory)
			r.Get("/positions", portfolioHandler.Positions)
			r.Get("/runs", portfolioHandler.Runs)
			r.With(custommiddleware.ValidateUUIDMiddleware).Get("/runs/{uuid}", portfolioHandler.Run)
			r.With(custommiddleware.APIKeyMiddleware(cfg.Security.APIKey)).Post("/refresh", portfolioHandler.Refresh)
		})

		r.Route("/transactions", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(svc.Transaction)
			r.Get("/", transactionHandler.Transactions)
		})
	})

	return r
}
