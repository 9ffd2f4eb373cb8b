package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/seokit/pkg/logger"
	"github.com/dmitrymomot/seokit/pkg/subscription"
	"github.com/dmitrymomot/seokit/pkg/webhook"
)

// Result is the output of one tool invocation.
type Result struct {
	Resource subscription.Resource `json:"resource"`
	Output   json.RawMessage       `json:"output"`
	Attempts int                   `json:"-"`
	Duration time.Duration         `json:"-"`
}

// Caller is the webhook transport used by Client.
type Caller interface {
	Call(ctx context.Context, endpoint string, data any, opts ...webhook.CallOption) (*webhook.Response, error)
}

// Client invokes the content generation tools through their webhooks.
// It does not check entitlements; callers gate and record usage.
type Client struct {
	caller    Caller
	endpoints map[subscription.Resource]string
	breakers  map[subscription.Resource]*webhook.CircuitBreaker
	callOpts  []webhook.CallOption
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCaller replaces the default webhook caller.
func WithCaller(c Caller) Option {
	return func(cl *Client) {
		if c != nil {
			cl.caller = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithCallOptions appends options passed to every webhook call.
func WithCallOptions(opts ...webhook.CallOption) Option {
	return func(cl *Client) {
		cl.callOpts = append(cl.callOpts, opts...)
	}
}

// New creates a client for the endpoints in cfg.
// Each configured tool gets its own circuit breaker.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		caller:    webhook.NewCaller(),
		endpoints: cfg.Endpoints(),
		breakers:  make(map[subscription.Resource]*webhook.CircuitBreaker),
		logger:    slog.Default(),
		callOpts: []webhook.CallOption{
			webhook.WithTimeout(cfg.Timeout),
			webhook.WithMaxRetries(cfg.MaxRetries),
		},
	}
	if cfg.SigningSecret != "" {
		c.callOpts = append(c.callOpts, webhook.WithSignature(cfg.SigningSecret))
	}
	for res := range c.endpoints {
		c.breakers[res] = webhook.NewCircuitBreaker(cfg.FailureThreshold, 1, cfg.CircuitCooldown)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether res has an endpoint.
func (c *Client) Configured(res subscription.Resource) bool {
	_, ok := c.endpoints[res]
	return ok
}

// Invoke posts input to the webhook of res and returns its JSON output.
// input must be a JSON object.
func (c *Client) Invoke(ctx context.Context, res subscription.Resource, input json.RawMessage) (*Result, error) {
	if !res.Valid() {
		return nil, fmt.Errorf("%w: %q", subscription.ErrUnknownResource, res)
	}
	endpoint, ok := c.endpoints[res]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotConfigured, res)
	}
	if !isObject(input) {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidInput)
	}

	opts := append([]webhook.CallOption{}, c.callOpts...)
	if cb := c.breakers[res]; cb != nil {
		opts = append(opts, webhook.WithCircuitBreaker(cb))
	}

	resp, err := c.caller.Call(ctx, endpoint, input, opts...)
	if err != nil {
		c.logger.ErrorContext(ctx, "tool call failed",
			logger.Resource(res.String()),
			logger.Error(err),
		)
		if webhook.IsCircuitOpen(err) {
			return nil, errors.Join(ErrToolUnavailable, err)
		}
		return nil, errors.Join(ErrToolFailed, err)
	}

	c.logger.DebugContext(ctx, "tool call succeeded",
		logger.Resource(res.String()),
		logger.RetryCount(resp.Attempts-1),
		logger.Duration(resp.Duration),
	)

	return &Result{
		Resource: res,
		Output:   resp.Body,
		Attempts: resp.Attempts,
		Duration: resp.Duration,
	}, nil
}

func isObject(raw json.RawMessage) bool {
	var v map[string]json.RawMessage
	return json.Unmarshal(raw, &v) == nil && v != nil
}
