package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"userhub/internal/event"
	"userhub/internal/event/ledger"
	"userhub/internal/platform/metrics"
)

// UserCreatedHandler reacts to USER_CREATED events with a structured
// notification. The ledger makes the reaction idempotent: a redelivered
// event ID is skipped instead of notifying twice.
type UserCreatedHandler struct {
	ledger  ledger.Ledger
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewUserCreatedHandler(l ledger.Ledger, logger *slog.Logger, m *metrics.Metrics) *UserCreatedHandler {
	return &UserCreatedHandler{ledger: l, logger: logger, metrics: m}
}

// Handle satisfies the consumer Handler signature.
func (h *UserCreatedHandler) Handle(ctx context.Context, e event.UserEvent) error {
	first, err := h.ledger.MarkProcessed(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("check event ledger: %w", err)
	}
	if !first {
		h.metrics.EventDuplicates.Inc()
		h.logger.InfoContext(ctx, "skipping redelivered event", "event_id", e.ID)
		return nil
	}

	h.logger.InfoContext(ctx, "new user created",
		"user_id", e.UserID,
		"name", e.Name,
		"email", e.Email,
		"created_at", e.OccurredAt,
	)
	return nil
}
