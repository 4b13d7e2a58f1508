package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// DedupCache implements ports.WebhookDedupCache using Redis. It is a
// best-effort fast path only; the conditional update in Postgres remains the
// idempotency authority, so a flushed or unavailable Redis never double
// credits.
type DedupCache struct {
	client *goredis.Client
	prefix string
}

// NewDedupCache creates a new Redis-backed webhook dedup cache.
func NewDedupCache(client *goredis.Client) *DedupCache {
	return &DedupCache{
		client: client,
		prefix: "webhook:",
	}
}

func (c *DedupCache) key(gatewayTxID, status string) string {
	return c.prefix + gatewayTxID + ":" + status
}

// IsProcessed reports whether this (transaction, status) pair was already
// handled.
func (c *DedupCache) IsProcessed(ctx context.Context, gatewayTxID, status string) (bool, error) {
	n, err := c.client.Exists(ctx, c.key(gatewayTxID, status)).Result()
	if err != nil {
		return false, fmt.Errorf("redis dedup exists: %w", err)
	}
	return n > 0, nil
}

// MarkProcessed records a handled (transaction, status) pair with TTL.
func (c *DedupCache) MarkProcessed(ctx context.Context, gatewayTxID, status string, ttl time.Duration) error {
	err := c.client.Set(ctx, c.key(gatewayTxID, status), 1, ttl).Err()
	if err != nil {
		return fmt.Errorf("redis dedup set: %w", err)
	}
	return nil
}
