package ratelimiter

import (
	"encoding/json"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxKeyLength caps storage key size; longer composite keys are hashed.
const maxKeyLength = 64

// KeyFunc extracts a rate limit key from the request. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// Composite joins the non-empty keys of several key funcs.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}
		if len(parts) == 0 {
			return ""
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			h := fnv.New64a()
			h.Write([]byte(combined))
			return strconv.FormatUint(h.Sum64(), 36)
		}
		return combined
	}
}

// FirstOf returns the first non-empty key.
func FirstOf(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				return key
			}
		}
		return ""
	}
}

type middlewareOptions struct {
	onLimited func(w http.ResponseWriter, r *http.Request, res *Result)
	onError   func(w http.ResponseWriter, r *http.Request, err error)
	observe   func(r *http.Request, err error)
	now       func() time.Time
}

type MiddlewareOption func(*middlewareOptions)

// WithLimitedHandler replaces the default 429 response.
func WithLimitedHandler(fn func(w http.ResponseWriter, r *http.Request, res *Result)) MiddlewareOption {
	return func(o *middlewareOptions) {
		if fn != nil {
			o.onLimited = fn
		}
	}
}

// WithStoreErrorHandler is called when the store fails. The default lets the
// request through.
func WithStoreErrorHandler(fn func(w http.ResponseWriter, r *http.Request, err error)) MiddlewareOption {
	return func(o *middlewareOptions) { o.onError = fn }
}

// WithStoreErrorObserver is told about store failures before the request
// continues. It is not called when a store error handler is set.
func WithStoreErrorObserver(fn func(r *http.Request, err error)) MiddlewareOption {
	return func(o *middlewareOptions) { o.observe = fn }
}

// Middleware limits requests per key and sets X-RateLimit-* headers.
func Middleware(b *Bucket, keyFunc KeyFunc, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	o := middlewareOptions{onLimited: writeLimited, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := b.Allow(r.Context(), key)
			if err != nil {
				if o.onError != nil {
					o.onError(w, r, err)
					return
				}
				if o.observe != nil {
					o.observe(r, err)
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(0, res.Remaining)))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				secs := int((res.RetryAfter(o.now()) + time.Second - 1) / time.Second)
				w.Header().Set("Retry-After", strconv.Itoa(max(secs, 1)))
				o.onLimited(w, r, res)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeLimited(w http.ResponseWriter, _ *http.Request, _ *Result) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    "rate_limited",
			"message": "too many requests",
		},
	})
}
