package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/inkpress/newsletter/internal/auth"
	"github.com/inkpress/newsletter/internal/email"
	"github.com/inkpress/newsletter/internal/storage"
)

// NewRouter creates a chi.Mux with all routes, middleware, and handlers configured.
func NewRouter(
	queries storage.Querier,
	db *storage.DB,
	idemStore idempotencyStore,
	client email.Client,
	baseURL string,
	log zerolog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(RecoverMiddleware(log))

	// Health endpoints (no auth required)
	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(db))

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	// Public subscription endpoints
	r.Post("/subscriptions", SubscribeHandler(queries, client, baseURL))
	r.Get("/subscriptions/confirm", ConfirmSubscriptionHandler(queries))

	// Operator endpoints (basic auth required)
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.BasicAuth(queries))

		r.Post("/newsletters", PublishIssueHandler(queries, idemStore))
	})

	return r
}
