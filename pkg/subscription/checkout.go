package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CheckoutRequest is the body of a checkout initiation call.
// Amount is expressed in major currency units, as shown to the user.
type CheckoutRequest struct {
	PlanType PlanType  `json:"planType"`
	Amount   float64   `json:"amount"`
	UserID   uuid.UUID `json:"userId"`
}

// CheckoutResponse is returned by the checkout endpoint.
type CheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

// CheckoutProvider starts a hosted checkout and returns its URL.
type CheckoutProvider interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

// HTTPCheckout calls a backend checkout endpoint over HTTP.
type HTTPCheckout struct {
	endpoint string
	client   *http.Client
	headers  http.Header
}

// HTTPCheckoutOption configures an HTTPCheckout.
type HTTPCheckoutOption func(*HTTPCheckout)

// WithCheckoutHTTPClient sets the HTTP client used for checkout calls.
func WithCheckoutHTTPClient(client *http.Client) HTTPCheckoutOption {
	return func(c *HTTPCheckout) {
		if client != nil {
			c.client = client
		}
	}
}

// WithCheckoutHeader adds a header sent with every checkout call.
func WithCheckoutHeader(key, value string) HTTPCheckoutOption {
	return func(c *HTTPCheckout) {
		c.headers.Set(key, value)
	}
}

// NewHTTPCheckout creates a checkout client for endpoint.
func NewHTTPCheckout(endpoint string, opts ...HTTPCheckoutOption) *HTTPCheckout {
	c := &HTTPCheckout{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		headers:  make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateCheckout posts req to the endpoint and returns the checkout URL.
func (c *HTTPCheckout) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	if req.UserID == uuid.Nil {
		return "", ErrMissingUserID
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create checkout request: %w", err)
	}
	httpReq.Header = c.headers.Clone()
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", errors.Join(ErrCheckoutFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Join(ErrCheckoutFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Join(ErrCheckoutFailed, fmt.Errorf("checkout endpoint returned status %d", resp.StatusCode))
	}

	var out CheckoutResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", errors.Join(ErrCheckoutFailed, err)
	}
	if out.CheckoutURL == "" {
		return "", ErrNoCheckoutURL
	}
	return out.CheckoutURL, nil
}
