package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Notifier receives user-facing notices raised by a session.
type Notifier func(ctx context.Context, userID uuid.UUID, n Notice)

// Option configures a Manager and the sessions it creates.
type Option func(*options)

type options struct {
	payments PaymentStore
	checkout CheckoutProvider
	logger   *slog.Logger
	now      func() time.Time
	notifier Notifier
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithPaymentStore enables payment history for sessions.
func WithPaymentStore(store PaymentStore) Option {
	return func(o *options) {
		o.payments = store
	}
}

// WithCheckout sets the provider used to start a plan checkout.
func WithCheckout(provider CheckoutProvider) Option {
	return func(o *options) {
		o.checkout = provider
	}
}

// WithLogger sets a custom logger for session operations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock overrides the time source used for period expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithNotifier registers a callback invoked for every notice.
func WithNotifier(fn Notifier) Option {
	return func(o *options) {
		o.notifier = fn
	}
}
