package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"userhub/internal/platform/config"
)

// Client owns the broker connection for the process. It is constructed once
// at startup and handed to the publisher and the health aggregator; the
// consumer dials its own group session through DialGroup so producer and
// consumer lifecycles stay independent.
type Client struct {
	cfg      config.KafkaConfig
	producer *kgo.Client
	admin    *kadm.Client
}

// New connects a producer client and verifies the brokers are reachable.
func New(ctx context.Context, cfg config.KafkaConfig) (*Client, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
	)
	if err != nil {
		return nil, fmt.Errorf("new kafka client: %w", err)
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}
	return &Client{
		cfg:      cfg,
		producer: cl,
		admin:    kadm.NewClient(cl),
	}, nil
}

// Topic returns the configured user-events topic.
func (c *Client) Topic() string {
	return c.cfg.Topic
}

// ProduceSync sends records through the shared producer connection.
func (c *Client) ProduceSync(ctx context.Context, records ...*kgo.Record) kgo.ProduceResults {
	return c.producer.ProduceSync(ctx, records...)
}

// EnsureTopic creates the configured topic if it does not exist yet.
func (c *Client) EnsureTopic(ctx context.Context) error {
	resp, err := c.admin.CreateTopic(ctx, 1, 1, nil, c.cfg.Topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", c.cfg.Topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", c.cfg.Topic, resp.Err)
	}
	return nil
}

// DialGroup opens a consumer-group session on the user-events topic,
// reading from the earliest available offset when the group has no
// committed position. Auto-commit is disabled; the consumer marks and
// commits offsets only after a record is fully handled.
func (c *Client) DialGroup(ctx context.Context) (*kgo.Client, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(c.cfg.Brokers...),
		kgo.ClientID(c.cfg.ClientID),
		kgo.ConsumerGroup(c.cfg.GroupID),
		kgo.ConsumeTopics(c.cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("new consumer client: %w", err)
	}
	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}
	return cl, nil
}

// Health performs a broker metadata round trip.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.admin.ListBrokers(ctx); err != nil {
		return fmt.Errorf("list brokers: %w", err)
	}
	return nil
}

// Close tears down the shared producer connection.
func (c *Client) Close() {
	c.producer.Close()
}
