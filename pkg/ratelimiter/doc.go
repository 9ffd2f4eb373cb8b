// Package ratelimiter provides token bucket rate limiting with memory and
// Redis storage plus HTTP middleware.
//
// A bucket holds up to Capacity tokens and gains RefillRate tokens every
// RefillInterval. A denied request takes nothing.
//
//	store := ratelimiter.NewMemoryStore()
//	defer store.Close()
//
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       20,
//		RefillRate:     1,
//		RefillInterval: 3 * time.Second,
//	})
//
//	r.With(ratelimiter.Middleware(bucket, keyFunc)).Post("/tools/{resource}", h)
//
// Use NewRedisStore when several instances must share limits.
package ratelimiter
