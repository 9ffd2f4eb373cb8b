// Package redisstore implements the usage ledger on Redis hashes.
//
// Each user owns one hash keyed "<prefix>:usage:<user id>" whose fields are
// the usage storage columns. Increment runs a Lua script, so the limit check
// and HINCRBY execute as one Redis command.
package redisstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/seokit/pkg/subscription"
)

// incrementScript returns the new count, or -1 when the limit is reached.
var incrementScript = redis.NewScript(`
local current = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or '0')
local limit = tonumber(ARGV[2])
if limit >= 0 and current >= limit then
	return -1
end
return redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
`)

// Client is the subset of *redis.Client used by UsageStore.
type Client interface {
	redis.Scripter
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

// UsageStore implements subscription.UsageStore.
type UsageStore struct {
	client Client
	prefix string
}

var _ subscription.UsageStore = (*UsageStore)(nil)

// New creates a usage store. The client is usually a *redis.Client.
func New(client Client, prefix string) *UsageStore {
	if prefix == "" {
		prefix = "seokit"
	}
	return &UsageStore{client: client, prefix: prefix}
}

func (s *UsageStore) key(userID uuid.UUID) string {
	return s.prefix + ":usage:" + userID.String()
}

// Get implements subscription.UsageStore. A missing hash yields zero counts.
func (s *UsageStore) Get(ctx context.Context, userID uuid.UUID) (subscription.Usage, error) {
	fields, err := s.client.HMGet(ctx, s.key(userID), subscription.Columns()...).Result()
	if err != nil {
		return nil, fmt.Errorf("redisstore: get usage: %w", err)
	}

	usage := subscription.NewUsage()
	for i, res := range subscription.Resources {
		raw, ok := fields[i].(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("redisstore: parse %s counter: %w", res.Column(), err)
		}
		usage[res] = n
	}
	return usage, nil
}

// Increment implements subscription.UsageStore.
func (s *UsageStore) Increment(ctx context.Context, userID uuid.UUID, column string, limit int64) (int64, error) {
	if _, ok := subscription.ResourceForColumn(column); !ok {
		return 0, fmt.Errorf("redisstore: increment usage: %w: %q", subscription.ErrUnknownResource, column)
	}

	n, err := incrementScript.Run(ctx, s.client, []string{s.key(userID)}, column, limit).Int64()
	if err != nil {
		return 0, fmt.Errorf("redisstore: increment usage: %w", err)
	}
	if n < 0 {
		return limit, subscription.ErrLimitExceeded
	}
	return n, nil
}
