package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state. Take removes n tokens when available and
// reports the tokens left; a denied take removes nothing.
type Store interface {
	Take(ctx context.Context, key string, n int, cfg Config) (allowed bool, remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}
