// Package consumer runs the long-lived user-events subscription.
//
// One record at a time flows through decode → dispatch → handle. A record
// that fails any pipeline step is logged, counted and skipped; the
// subscription loop itself only stops on Stop or a fatal poll error.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"userhub/internal/event"
	"userhub/internal/platform/metrics"
)

const maxPollRecords = 500

// State tracks the subscription lifecycle.
type State int32

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Session is the consumer-group connection the loop polls. *kgo.Client
// satisfies it; tests substitute a fake.
type Session interface {
	PollRecords(ctx context.Context, maxRecords int) kgo.Fetches
	MarkCommitRecords(records ...*kgo.Record)
	CommitMarkedOffsets(ctx context.Context) error
	Close()
}

// DialFunc opens the group session. Start fails and stays stopped when it
// returns an error.
type DialFunc func(ctx context.Context) (Session, error)

// Handler reacts to one decoded event. Handlers must tolerate redelivery of
// the same event.
type Handler func(ctx context.Context, e event.UserEvent) error

// Consumer owns at most one active subscription per process. Start and Stop
// are idempotent; state transitions are serialized by the mutex so two
// Start calls cannot race into starting.
type Consumer struct {
	dial     DialFunc
	handlers map[event.Kind]Handler
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer

	mu      sync.Mutex
	state   State
	session Session
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(dial DialFunc, handlers map[event.Kind]Handler, logger *slog.Logger, m *metrics.Metrics) *Consumer {
	return &Consumer{
		dial:     dial,
		handlers: handlers,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("userhub/event/consumer"),
	}
}

// State reports the current lifecycle state.
func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start connects, subscribes and launches the receive loop. Calling Start
// while already starting or running is a no-op. A connect failure is
// returned to the caller and leaves the consumer stopped; no retry is built
// in.
func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateRunning || c.state == StateStarting {
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "consumer already running")
		return nil
	}
	c.state = StateStarting
	c.mu.Unlock()

	session, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.state = StateStopped
		c.mu.Unlock()
		return fmt.Errorf("start consumer: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.session = session
	c.cancel = cancel
	c.done = done
	c.state = StateRunning
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "consumer subscribed")
	go c.run(loopCtx, session, done)
	return nil
}

// Stop cancels the loop, waits for the in-flight record to finish, flushes
// marked offsets and disconnects. Calling Stop on a stopped consumer is a
// no-op. A flush failure is surfaced but the consumer is still marked
// stopped; shutdown is fail-open.
func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRunning {
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "consumer not running")
		return nil
	}
	c.state = StateStopping
	session, cancel, done := c.session, c.cancel, c.done
	c.mu.Unlock()

	cancel()
	<-done

	err := session.CommitMarkedOffsets(ctx)
	session.Close()

	c.mu.Lock()
	c.state = StateStopped
	c.session = nil
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "consumer disconnected")
	if err != nil {
		return fmt.Errorf("flush offsets on stop: %w", err)
	}
	return nil
}

func (c *Consumer) run(ctx context.Context, session Session, done chan struct{}) {
	defer close(done)
	for {
		if ctx.Err() != nil {
			return
		}
		fetches := session.PollRecords(ctx, maxPollRecords)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if errors.Is(err, context.Canceled) {
				return
			}
			c.logger.ErrorContext(ctx, "fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		fetches.EachRecord(func(rec *kgo.Record) {
			// Finish the current record, never start the next one after
			// cancellation; unmarked records are redelivered.
			if ctx.Err() != nil {
				return
			}
			c.processRecord(ctx, session, rec)
		})
		if err := session.CommitMarkedOffsets(ctx); err != nil && ctx.Err() == nil {
			c.logger.ErrorContext(ctx, "commit offsets failed", "error", err)
		}
	}
}

// processRecord runs the per-message pipeline. Every failure mode is
// contained here: the record is marked consumed and the loop moves on.
func (c *Consumer) processRecord(ctx context.Context, session Session, rec *kgo.Record) {
	ctx, span := c.tracer.Start(ctx, "event.consume", trace.WithAttributes(
		attribute.String("messaging.destination", rec.Topic),
		attribute.Int64("messaging.partition", int64(rec.Partition)),
	))
	defer span.End()
	defer session.MarkCommitRecords(rec)

	e, err := event.Decode(rec.Value)
	if err != nil {
		c.metrics.EventDecodeFailed.Inc()
		span.RecordError(err)
		c.logger.WarnContext(ctx, "dropping malformed record",
			"topic", rec.Topic,
			"partition", rec.Partition,
			"offset", rec.Offset,
			"error", err,
		)
		return
	}

	handler, ok := c.handlers[e.Kind]
	if !ok {
		c.logger.InfoContext(ctx, "unhandled event type",
			"event_type", string(e.Kind),
			"event_id", e.ID,
		)
		return
	}

	if err := c.invoke(ctx, handler, e); err != nil {
		c.metrics.EventHandlerFailed.Inc()
		span.RecordError(err)
		c.logger.ErrorContext(ctx, "event handler failed",
			"event_type", string(e.Kind),
			"event_id", e.ID,
			"error", err,
		)
		return
	}
	c.metrics.EventsConsumed.WithLabelValues(string(e.Kind)).Inc()
}

// invoke shields the loop from handler panics as well as errors.
func (c *Consumer) invoke(ctx context.Context, handler Handler, e event.UserEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx, e)
}
