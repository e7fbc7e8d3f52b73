package health

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"userhub/internal/transport/http/shared"
)

const apiVersion = "1.0"

// Handler serves the public health endpoint.
type Handler struct {
	aggregator *Aggregator
	logger     *slog.Logger
}

func NewHandler(aggregator *Aggregator, logger *slog.Logger) *Handler {
	return &Handler{aggregator: aggregator, logger: logger}
}

// Register mounts the health route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/health", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report := h.aggregator.Check(ctx)

	body := map[string]any{
		"status":    "healthy",
		"version":   apiVersion,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  report.Services,
	}
	if report.Healthy {
		shared.WriteJSON(w, http.StatusOK, body)
		return
	}

	failures := make([]string, 0, len(report.Errors))
	for name, msg := range report.Errors {
		failures = append(failures, name+": "+msg)
	}
	body["status"] = "unhealthy"
	body["error"] = strings.Join(failures, "; ")
	h.logger.WarnContext(ctx, "health check failed", "failures", failures)
	shared.WriteJSON(w, http.StatusServiceUnavailable, body)
}
