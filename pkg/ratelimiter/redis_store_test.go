package ratelimiter_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seokit/pkg/ratelimiter"
	"github.com/dmitrymomot/seokit/pkg/redis"
)

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	ctx := context.Background()
	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	store := ratelimiter.NewRedisStore(client, "seokit-test:rl:")
	b, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Minute})
	require.NoError(t, err)

	key := uuid.NewString()
	t.Cleanup(func() { _ = b.Reset(context.Background(), key) })

	for range 2 {
		res, err := b.Allow(ctx, key)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := b.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.True(t, res.ResetAt.After(time.Now()))

	require.NoError(t, b.Reset(ctx, key))
	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisStore_RefillKeepsPartialInterval(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	ctx := context.Background()
	client, err := redis.Connect(ctx, redis.Config{ConnectionURL: url, RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	start := time.Now().Truncate(time.Second)
	now := start
	store := ratelimiter.NewRedisStore(client, "seokit-test:rl:", ratelimiter.WithRedisClock(func() time.Time { return now }))
	b, err := ratelimiter.NewBucket(store, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second})
	require.NoError(t, err)

	key := uuid.NewString()
	t.Cleanup(func() { _ = b.Reset(context.Background(), key) })

	res, err := b.Allow(ctx, key)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	now = start.Add(1500 * time.Millisecond)
	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	require.True(t, res.Allowed)
	assert.Equal(t, start.Add(2*time.Second).UnixMilli(), res.ResetAt.UnixMilli())

	now = start.Add(2 * time.Second)
	res, err = b.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}
