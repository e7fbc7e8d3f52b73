package ledger

import (
	"context"
	"fmt"
	"time"

	platformredis "userhub/internal/platform/redis"
)

const (
	keyPrefix = "userhub:event:processed:"

	// retention bounds how long redelivered IDs are recognized. Broker
	// retention is shorter in practice, so a week is enough.
	retention = 7 * 24 * time.Hour
)

// RedisLedger persists processed event IDs in Redis so deduplication
// survives worker restarts and is shared across consumer-group members.
type RedisLedger struct {
	client *platformredis.Client
}

func NewRedis(client *platformredis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}
	first, err := l.client.SetNX(ctx, keyPrefix+eventID, 1, retention).Result()
	if err != nil {
		return false, fmt.Errorf("mark event processed: %w", err)
	}
	return first, nil
}
