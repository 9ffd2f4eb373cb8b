package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrymomot/seokit/pkg/requestid"
)

const (
	userAgent       = "seokit-webhook/1.0"
	maxResponseSize = 4 << 20
)

// Response is the result of a successful call.
type Response struct {
	StatusCode int
	Body       json.RawMessage
	Attempts   int
	Duration   time.Duration
}

// Caller posts JSON payloads to webhook endpoints and returns their JSON
// response. Zero value is not usable; use NewCaller.
type Caller struct {
	client *http.Client
}

// NewCaller creates a caller with a pooled HTTP client.
// Per-call timeouts are applied through WithTimeout.
func NewCaller() *Caller {
	return &Caller{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// NewCallerWithClient creates a caller on top of client.
func NewCallerWithClient(client *http.Client) *Caller {
	if client == nil {
		return NewCaller()
	}
	return &Caller{client: client}
}

// Call marshals data to JSON, posts it to endpoint and returns the response body.
//
// 5xx responses, 408, 425, 429 and network errors are retried with the
// configured backoff. Other 4xx responses fail immediately with
// ErrPermanentFailure. A 2xx body that is not valid JSON fails with
// ErrInvalidResponse; an empty 2xx body is returned as JSON null.
func (c *Caller) Call(ctx context.Context, endpoint string, data any, opts ...CallOption) (*Response, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Join(ErrInvalidPayload, err)
	}
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	o := defaultCallOptions()
	for _, opt := range opts {
		opt(o)
	}

	client := c.client
	if o.httpClient != nil {
		client = o.httpClient
	}

	if o.circuitBreaker != nil && !o.circuitBreaker.Allow() {
		return nil, ErrCircuitOpen
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(o.backoff.NextInterval(attempt)):
			}
		}

		res, err := c.attempt(ctx, client, endpoint, payload, o)
		res.Attempt = attempt + 1
		if o.onAttempt != nil {
			o.onAttempt(res)
		}

		if o.circuitBreaker != nil {
			if err == nil || isPermanent(res.StatusCode) {
				o.circuitBreaker.RecordSuccess()
			} else {
				o.circuitBreaker.RecordFailure()
			}
		}

		if err == nil {
			return &Response{
				StatusCode: res.StatusCode,
				Body:       json.RawMessage(res.body),
				Attempts:   attempt + 1,
				Duration:   time.Since(start),
			}, nil
		}

		lastErr = err
		if errors.Is(err, ErrInvalidResponse) {
			return nil, err
		}
		if isPermanent(res.StatusCode) {
			return nil, errors.Join(ErrPermanentFailure, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrCallFailed, o.maxRetries+1, lastErr)
}

func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("%w: URL is required", ErrInvalidURL)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return errors.Join(ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidURL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidURL)
	}
	return nil
}

func (c *Caller) attempt(ctx context.Context, client *http.Client, endpoint string, payload []byte, o *callOptions) (Attempt, error) {
	start := time.Now()
	res := Attempt{}

	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		res.Err = err
		return res, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}
	requestid.Propagate(ctx, req)

	if o.secret != "" {
		sig, err := Sign(o.secret, payload, time.Now())
		if err != nil {
			res.Err = err
			return res, fmt.Errorf("failed to sign payload: %w", err)
		}
		sig.Apply(req.Header)
	}

	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return res, errors.Join(ErrTimeout, err)
		}
		return res, errors.Join(ErrTemporaryFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	res.StatusCode = resp.StatusCode
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		res.Err = err
		return res, errors.Join(ErrTemporaryFailure, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		res.Err = fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, snippet(body))
		return res, res.Err
	}
	// a 2xx the caller cannot use counts against the endpoint
	if len(body) > maxResponseSize {
		res.Err = fmt.Errorf("%w: body exceeds %d bytes", ErrInvalidResponse, maxResponseSize)
		return res, res.Err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("null")
	}
	if !json.Valid(body) {
		res.Err = fmt.Errorf("%w: body is not JSON", ErrInvalidResponse)
		return res, res.Err
	}

	res.Success = true
	res.body = body
	return res, nil
}

// snippet flattens a response body for error messages.
func snippet(body []byte) string {
	s := strings.ReplaceAll(string(body), "\n", " ")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// isPermanent reports 4xx codes that will not change on retry.
func isPermanent(status int) bool {
	if status < 400 || status >= 500 {
		return false
	}
	switch status {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}
