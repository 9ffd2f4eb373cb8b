package ratelimiter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seokit/pkg/ratelimiter"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newBucket(t *testing.T, cfg ratelimiter.Config) (*ratelimiter.Bucket, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := ratelimiter.NewMemoryStore(ratelimiter.WithClock(clock.Now), ratelimiter.WithSweepInterval(0))
	t.Cleanup(store.Close)
	b, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)
	return b, clock
}

func TestNewBucketValidation(t *testing.T) {
	t.Parallel()

	for _, cfg := range []ratelimiter.Config{
		{Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		{Capacity: 1, RefillRate: 1},
	} {
		_, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(ratelimiter.WithSweepInterval(0)), cfg)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
	}
}

func TestBucketAllow(t *testing.T) {
	t.Parallel()

	b, clock := newBucket(t, ratelimiter.Config{Capacity: 3, RefillRate: 1, RefillInterval: time.Second})
	ctx := context.Background()

	for i := range 3 {
		res, err := b.Allow(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := b.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Second, res.RetryAfter(clock.Now()))

	other, err := b.Allow(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, other.Allowed, "keys are independent")

	clock.Advance(2 * time.Second)
	res, err = b.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	clock.Advance(time.Hour)
	res, err = b.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Remaining, "refill is capped at capacity")
}

func TestBucketRefillKeepsPartialInterval(t *testing.T) {
	t.Parallel()

	b, clock := newBucket(t, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Second})
	ctx := context.Background()
	start := clock.Now()

	for range 2 {
		res, err := b.Allow(ctx, "u1")
		require.NoError(t, err)
		require.True(t, res.Allowed)
	}

	clock.Advance(1500 * time.Millisecond)
	res, err := b.Allow(ctx, "u1")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	assert.Equal(t, start.Add(2*time.Second), res.ResetAt)

	clock.Advance(500 * time.Millisecond)
	res, err = b.Allow(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "second interval completes at 2s, not 2.5s")
	assert.Equal(t, start.Add(3*time.Second), res.ResetAt)
}

func TestBucketAllowNDeniedTakesNothing(t *testing.T) {
	t.Parallel()

	b, _ := newBucket(t, ratelimiter.Config{Capacity: 5, RefillRate: 1, RefillInterval: time.Minute})
	ctx := context.Background()

	res, err := b.AllowN(ctx, "k", 4)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = b.AllowN(ctx, "k", 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res, err = b.AllowN(ctx, "k", 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	_, err = b.AllowN(ctx, "k", 0)
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
}

func TestBucketReset(t *testing.T) {
	t.Parallel()

	b, _ := newBucket(t, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})
	ctx := context.Background()

	_, err := b.Allow(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, b.Reset(ctx, "k"))

	res, err := b.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

type failingStore struct{}

func (failingStore) Take(context.Context, string, int, ratelimiter.Config) (bool, int, time.Time, error) {
	return false, 0, time.Time{}, errors.New("down")
}

func (failingStore) Reset(context.Context, string) error { return nil }

func TestMiddleware(t *testing.T) {
	t.Parallel()

	b, _ := newBucket(t, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})
	key := func(r *http.Request) string { return r.Header.Get("X-User") }
	h := ratelimiter.Middleware(b, key)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(user string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		if user != "" {
			r.Header.Set("X-User", user)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w
	}

	w := do("a")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = do("a")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body.Error.Code)

	for range 3 {
		assert.Equal(t, http.StatusOK, do("").Code, "empty key is not limited")
	}
}

func TestMiddlewareStoreFailure(t *testing.T) {
	t.Parallel()

	b, err := ratelimiter.NewBucket(failingStore{}, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Second})
	require.NoError(t, err)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	key := func(*http.Request) string { return "k" }

	var observed error
	w := httptest.NewRecorder()
	ratelimiter.Middleware(b, key, ratelimiter.WithStoreErrorObserver(func(_ *http.Request, err error) {
		observed = err
	}))(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code, "fails open by default")
	assert.ErrorIs(t, observed, ratelimiter.ErrStoreUnavailable)

	w = httptest.NewRecorder()
	ratelimiter.Middleware(b, key, ratelimiter.WithStoreErrorHandler(func(w http.ResponseWriter, _ *http.Request, err error) {
		assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestKeyFuncs(t *testing.T) {
	t.Parallel()

	a := func(*http.Request) string { return "a" }
	empty := func(*http.Request) string { return "" }
	long := func(*http.Request) string { return strings.Repeat("x", 80) }
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	assert.Equal(t, "a", ratelimiter.Composite(empty, a)(r))
	assert.Equal(t, "a:a", ratelimiter.Composite(a, a)(r))
	assert.Empty(t, ratelimiter.Composite(empty)(r))
	assert.LessOrEqual(t, len(ratelimiter.Composite(long, a)(r)), 64)

	assert.Equal(t, "a", ratelimiter.FirstOf(empty, a, long)(r))
	assert.Empty(t, ratelimiter.FirstOf(empty)(r))
}
