package ratelimiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// takeScript refills and takes tokens atomically.
// KEYS[1] bucket hash; ARGV: capacity, refill rate, interval ms, now ms, n.
// Returns {allowed, remaining, last refill ms}.
var takeScript = redis.NewScript(`
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local interval = tonumber(ARGV[3])
local now = tonumber(ARGV[4])
local n = tonumber(ARGV[5])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'refill')
local tokens = tonumber(state[1])
local refill = tonumber(state[2])
if tokens == nil then
  tokens = capacity
  refill = now
end

local intervals = math.floor((now - refill) / interval)
if intervals > 0 then
  tokens = math.min(tokens + intervals * rate, capacity)
  refill = refill + intervals * interval
end

local allowed = 0
if tokens >= n then
  tokens = tokens - n
  allowed = 1
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'refill', refill)
redis.call('PEXPIRE', KEYS[1], interval * (math.ceil(capacity / rate) + 1))
return {allowed, tokens, refill}
`)

// RedisClient is the part of go-redis the store needs.
type RedisClient interface {
	redis.Scripter
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisStore keeps buckets in Redis so limits hold across instances.
type RedisStore struct {
	client RedisClient
	prefix string
	now    func() time.Time
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisClock overrides the clock used to stamp takes.
func WithRedisClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedisStore stores buckets under prefix + key.
func NewRedisStore(client RedisClient, prefix string, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, prefix: prefix, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) Take(ctx context.Context, key string, n int, cfg Config) (bool, int, time.Time, error) {
	res, err := takeScript.Run(ctx, s.client, []string{s.prefix + key},
		cfg.Capacity, cfg.RefillRate, cfg.RefillInterval.Milliseconds(), s.now().UnixMilli(), n,
	).Int64Slice()
	if err != nil {
		return false, 0, time.Time{}, err
	}
	resetAt := time.UnixMilli(res[2]).Add(cfg.RefillInterval)
	return res[0] == 1, int(res[1]), resetAt, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
