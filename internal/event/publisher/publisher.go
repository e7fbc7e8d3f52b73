// Package publisher turns domain facts into broker records.
package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"userhub/internal/event"
	"userhub/internal/platform/metrics"
)

// Producer is the broker capability the publisher needs. *kafka.Client
// satisfies it.
type Producer interface {
	ProduceSync(ctx context.Context, records ...*kgo.Record) kgo.ProduceResults
}

// Publisher serializes user events and hands them to the broker. It sets no
// partition key, so ordering across events for the same user is not
// guaranteed across partitions. Failures are surfaced to the caller, which
// decides whether the publish was best-effort.
type Publisher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

func New(producer Producer, topic string, logger *slog.Logger, m *metrics.Metrics) *Publisher {
	return &Publisher{
		producer: producer,
		topic:    topic,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("userhub/event/publisher"),
	}
}

// Publish serializes e and sends it as a single record on the configured
// topic, blocking until the broker acknowledges or rejects it.
func (p *Publisher) Publish(ctx context.Context, e event.UserEvent) error {
	if p.topic == "" {
		return fmt.Errorf("publish %s event: topic is empty", e.Kind)
	}

	ctx, span := p.tracer.Start(ctx, "event.publish", trace.WithAttributes(
		attribute.String("event.type", string(e.Kind)),
		attribute.String("event.id", e.ID),
	))
	defer span.End()

	raw, err := event.Encode(e)
	if err != nil {
		span.RecordError(err)
		return err
	}

	results := p.producer.ProduceSync(ctx, &kgo.Record{Topic: p.topic, Value: raw})
	if err := results.FirstErr(); err != nil {
		p.metrics.EventPublishFailed.Inc()
		span.RecordError(err)
		p.logger.ErrorContext(ctx, "event publish failed",
			"topic", p.topic,
			"event_type", string(e.Kind),
			"event_id", e.ID,
			"error", err,
		)
		return fmt.Errorf("produce %s event: %w", e.Kind, err)
	}

	p.metrics.EventsPublished.Inc()
	p.logger.InfoContext(ctx, "event published",
		"topic", p.topic,
		"event_type", string(e.Kind),
		"event_id", e.ID,
		"user_id", e.UserID,
	)
	return nil
}
