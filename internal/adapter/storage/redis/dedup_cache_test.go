package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupCache_MarkAndCheck(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewDedupCache(client)
	ctx := context.Background()

	// Unknown pair
	seen, err := cache.IsProcessed(ctx, "gw-tx-1", "paid")
	require.NoError(t, err)
	assert.False(t, seen)

	err = cache.MarkProcessed(ctx, "gw-tx-1", "paid", time.Hour)
	require.NoError(t, err)

	seen, err = cache.IsProcessed(ctx, "gw-tx-1", "paid")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestDedupCache_DistinctStatuses(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewDedupCache(client)
	ctx := context.Background()

	err := cache.MarkProcessed(ctx, "gw-tx-2", "paid", time.Hour)
	require.NoError(t, err)

	// A refund for the same transaction is a different event
	seen, err := cache.IsProcessed(ctx, "gw-tx-2", "refunded")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestDedupCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewDedupCache(client)
	ctx := context.Background()

	err := cache.MarkProcessed(ctx, "gw-tx-3", "paid", time.Second)
	require.NoError(t, err)

	s.FastForward(2 * time.Second)

	seen, err := cache.IsProcessed(ctx, "gw-tx-3", "paid")
	require.NoError(t, err)
	assert.False(t, seen, "expired entry should not count as processed")
}
