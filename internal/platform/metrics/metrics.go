package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated prometheus.Counter

	EventsPublished    prometheus.Counter
	EventPublishFailed prometheus.Counter
	EventsConsumed     *prometheus.CounterVec
	EventDecodeFailed  prometheus.Counter
	EventHandlerFailed prometheus.Counter
	EventDuplicates    prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "userhub_users_created_total",
			Help: "Total number of users created in the system",
		}),
		EventsPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "userhub_events_published_total",
			Help: "Total number of user events handed to the broker",
		}),
		EventPublishFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "userhub_event_publish_failures_total",
			Help: "Total number of user event publishes that failed",
		}),
		EventsConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "userhub_events_consumed_total",
			Help: "Total number of user events processed by the consumer",
		}, []string{"type"}),
		EventDecodeFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "userhub_event_decode_failures_total",
			Help: "Total number of records dropped because they failed to decode",
		}),
		EventHandlerFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "userhub_event_handler_failures_total",
			Help: "Total number of event handler invocations that returned an error",
		}),
		EventDuplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "userhub_event_duplicates_total",
			Help: "Total number of redelivered events skipped by the idempotency ledger",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "userhub_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// IncrementUsersCreated increments the users created counter by 1.
func (m *Metrics) IncrementUsersCreated() {
	m.UsersCreated.Inc()
}

// ObserveRequestDuration records one request's latency.
func (m *Metrics) ObserveRequestDuration(method, path string, d time.Duration) {
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
