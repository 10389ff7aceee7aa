package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/commissionledger/internal/adapter/http/handler"
	"github.com/iho/commissionledger/internal/adapter/http/middleware"
	"github.com/iho/commissionledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	TransactionHandler *handler.TransactionHandler
	ReportHandler      *handler.ReportHandler
	HealthHandler      *handler.HealthHandler

	// Optional.
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	HTTPMetrics      *middleware.HTTPMetrics
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotency.Wrap)
		}

		r.Post("/transactions", cfg.TransactionHandler.Create)
		r.Get("/transactions", cfg.TransactionHandler.List)
		r.Get("/transactions/{id}", cfg.TransactionHandler.Get)
		r.Patch("/transactions/{id}/stage", cfg.TransactionHandler.AdvanceStage)

		r.Get("/reports/consistency", cfg.ReportHandler.Consistency)
	})

	return r
}
