package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrEmptyConnectionURL = errors.New("empty redis connection URL, use REDIS_URL env var")
	ErrInvalidURL         = errors.New("invalid redis connection URL")
	ErrNotReady           = errors.New("redis is not ready")
)

// Connect creates a client for cfg.ConnectionURL and waits until the server
// answers a ping, retrying up to cfg.RetryAttempts times within ConnectTimeout.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client := redis.NewClient(opts)
	check := Healthcheck(client)

	attempts := max(cfg.RetryAttempts, 1)
	var lastErr error
	for attempt := range attempts {
		if lastErr = check(ctx); lastErr == nil {
			return client, nil
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, errors.Join(ErrNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	_ = client.Close()
	return nil, lastErr
}

// Healthcheck pings the server and expects PONG. Usage counters and rate
// limiter buckets share this client, so readiness follows it.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		reply, err := client.Ping(ctx).Result()
		if err != nil {
			return errors.Join(ErrNotReady, err)
		}
		if reply != "PONG" {
			return fmt.Errorf("%w: unexpected ping reply %q", ErrNotReady, reply)
		}
		return nil
	}
}
