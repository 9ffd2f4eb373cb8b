package main

import (
	"fmt"
	"slices"
)

const (
	backendPostgres = "postgres"
	backendRedis    = "redis"
	backendMemory   = "memory"
)

// appConfig selects which optional components run.
type appConfig struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"seokit"`

	UsageBackend     string `env:"USAGE_BACKEND" envDefault:"postgres"`
	RateLimitBackend string `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	RateLimitEnabled bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`

	// CheckoutEndpoint sends checkouts to an external backend instead of Paddle.
	CheckoutEndpoint  string `env:"CHECKOUT_ENDPOINT"`
	PaddleEnabled     bool   `env:"PADDLE_ENABLED" envDefault:"true"`
	HistoryEnabled    bool   `env:"HISTORY_ENABLED" envDefault:"true"`
	AuthEventsEnabled bool   `env:"AUTH_EVENTS_ENABLED" envDefault:"false"`
}

func (c appConfig) validate() error {
	if !slices.Contains([]string{backendPostgres, backendRedis}, c.UsageBackend) {
		return fmt.Errorf("USAGE_BACKEND must be %q or %q, got %q", backendPostgres, backendRedis, c.UsageBackend)
	}
	if !slices.Contains([]string{backendMemory, backendRedis}, c.RateLimitBackend) {
		return fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q", backendMemory, backendRedis, c.RateLimitBackend)
	}
	return nil
}

func (c appConfig) needsRedis() bool {
	return c.UsageBackend == backendRedis || (c.RateLimitEnabled && c.RateLimitBackend == backendRedis)
}
