package webhook

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy returns the delay before the given retry attempt (1-based).
type BackoffStrategy interface {
	NextInterval(attempt int) time.Duration
}

// ExponentialBackoff grows the delay by Multiplier on every attempt,
// with optional jitter, capped at MaxInterval.
type ExponentialBackoff struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	JitterFactor    float64
}

func (e ExponentialBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	initial := cmpOr(e.InitialInterval, 500*time.Millisecond)
	ceiling := cmpOr(e.MaxInterval, 10*time.Second)
	mult := e.Multiplier
	if mult <= 1 {
		mult = 2
	}

	d := float64(initial) * math.Pow(mult, float64(attempt-1))
	if e.JitterFactor > 0 {
		d += d * e.JitterFactor * (rand.Float64()*2 - 1)
	}
	return time.Duration(min(max(d, 0), float64(ceiling)))
}

// FixedBackoff waits the same Interval before every retry.
type FixedBackoff struct {
	Interval time.Duration
}

func (f FixedBackoff) NextInterval(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return f.Interval
}

// DefaultBackoffStrategy is a short exponential backoff sized for
// interactive calls where the user is waiting for the result.
func DefaultBackoffStrategy() BackoffStrategy {
	return ExponentialBackoff{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2,
		JitterFactor:    0.1,
	}
}

func cmpOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
