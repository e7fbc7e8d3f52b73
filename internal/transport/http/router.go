// Package httptransport assembles the HTTP surface: middleware chain,
// versioned API routes and the metrics endpoint.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"userhub/internal/health"
	"userhub/internal/platform/metrics"
	"userhub/internal/platform/middleware"
	userhandler "userhub/internal/user/handler"
)

// NewRouter wires all endpoints under /api/v1.0 plus /metrics.
func NewRouter(
	logger *slog.Logger,
	m *metrics.Metrics,
	users *userhandler.Handler,
	healthHandler *health.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1.0", func(api chi.Router) {
		users.Register(api)
		healthHandler.Register(api)
	})

	return r
}
