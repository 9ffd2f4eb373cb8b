package webhook

import (
	"net/http"
	"time"
)

// Attempt describes one HTTP attempt of a call.
type Attempt struct {
	Success    bool
	StatusCode int
	Attempt    int
	Duration   time.Duration
	Err        error

	body []byte
}

// AttemptHook is invoked after every attempt.
type AttemptHook func(Attempt)

type callOptions struct {
	timeout        time.Duration
	headers        map[string]string
	httpClient     *http.Client
	maxRetries     int
	backoff        BackoffStrategy
	secret         string
	circuitBreaker *CircuitBreaker
	onAttempt      AttemptHook
}

func defaultCallOptions() *callOptions {
	return &callOptions{
		timeout:    60 * time.Second,
		headers:    make(map[string]string),
		maxRetries: 2,
		backoff:    DefaultBackoffStrategy(),
	}
}

// CallOption configures a single call.
type CallOption func(*callOptions)

// WithTimeout sets the per-attempt timeout. Default is 60 seconds.
func WithTimeout(timeout time.Duration) CallOption {
	return func(o *callOptions) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}

// WithMaxRetries sets the number of retries after the first attempt. Default is 2.
func WithMaxRetries(n int) CallOption {
	return func(o *callOptions) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithNoRetry disables retries.
func WithNoRetry() CallOption {
	return WithMaxRetries(0)
}

func WithBackoff(strategy BackoffStrategy) CallOption {
	return func(o *callOptions) {
		if strategy != nil {
			o.backoff = strategy
		}
	}
}

// WithSignature signs the payload with HMAC-SHA256 using secret.
func WithSignature(secret string) CallOption {
	return func(o *callOptions) {
		o.secret = secret
	}
}

func WithHTTPClient(client *http.Client) CallOption {
	return func(o *callOptions) {
		if client != nil {
			o.httpClient = client
		}
	}
}

// WithCircuitBreaker guards the endpoint with cb. Share cb across calls to the same endpoint.
func WithCircuitBreaker(cb *CircuitBreaker) CallOption {
	return func(o *callOptions) {
		o.circuitBreaker = cb
	}
}

func WithOnAttempt(hook AttemptHook) CallOption {
	return func(o *callOptions) {
		o.onAttempt = hook
	}
}
