package ratelimiter

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
}

// MemoryStore keeps buckets in process memory. Buckets idle for an hour are
// dropped by a background sweep; call Close to stop it.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often idle buckets are removed. Zero disables the sweep.
func WithSweepInterval(d time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) { ms.sweepInterval = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		buckets:       make(map[string]*bucket),
		now:           time.Now,
		sweepInterval: 5 * time.Minute,
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ms)
	}
	if ms.sweepInterval > 0 {
		go ms.sweep()
	}
	return ms
}

func (ms *MemoryStore) Take(_ context.Context, key string, n int, cfg Config) (bool, int, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	b, ok := ms.buckets[key]
	if !ok {
		b = &bucket{tokens: cfg.Capacity, lastRefill: now}
		ms.buckets[key] = b
	}
	b.lastAccess = now

	// lastRefill advances by whole intervals so partial ones carry over
	if elapsed := now.Sub(b.lastRefill) / cfg.RefillInterval; elapsed > 0 {
		b.lastRefill = b.lastRefill.Add(elapsed * cfg.RefillInterval)
		intervals := int(min(elapsed, time.Duration(cfg.Capacity/cfg.RefillRate+1)))
		b.tokens = min(b.tokens+intervals*cfg.RefillRate, cfg.Capacity)
	}

	resetAt := b.lastRefill.Add(cfg.RefillInterval)
	if b.tokens < n {
		return false, b.tokens, resetAt, nil
	}
	b.tokens -= n
	return true, b.tokens, resetAt, nil
}

func (ms *MemoryStore) Reset(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.buckets, key)
	return nil
}

func (ms *MemoryStore) sweep() {
	ticker := time.NewTicker(ms.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.mu.Lock()
			now := ms.now()
			for key, b := range ms.buckets {
				if now.Sub(b.lastAccess) > time.Hour {
					delete(ms.buckets, key)
				}
			}
			ms.mu.Unlock()
		case <-ms.stop:
			return
		}
	}
}

// Close stops the background sweep.
func (ms *MemoryStore) Close() {
	ms.stopOnce.Do(func() { close(ms.stop) })
}
