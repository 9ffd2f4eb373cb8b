package subscription

import (
	"context"

	"github.com/google/uuid"
)

// SubscriptionStore defines the interface for subscription persistence.
type SubscriptionStore interface {
	// LatestActive returns the most recently created active subscription of the user.
	// Returns ErrSubscriptionNotFound if the user has none.
	LatestActive(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// GetByProviderID looks a subscription up by the billing provider's ID.
	// Returns ErrSubscriptionNotFound if no subscription matches.
	GetByProviderID(ctx context.Context, providerSubID string) (*Subscription, error)

	// Save creates or updates a subscription keyed by its ID.
	Save(ctx context.Context, sub *Subscription) error
}

// UsageStore defines the interface for the per-user usage ledger.
type UsageStore interface {
	// Get returns the user's usage counters. A missing record yields zero counts.
	Get(ctx context.Context, userID uuid.UUID) (Usage, error)

	// Increment atomically adds one to the counter stored in column when the
	// current value is below limit (Unlimited disables the check) and returns
	// the new count. Returns ErrLimitExceeded when the stored counter already
	// reached limit. Implementations must perform check and increment as a
	// single storage-side operation.
	Increment(ctx context.Context, userID uuid.UUID, column string, limit int64) (int64, error)
}

// PaymentStore defines the interface for payment history.
type PaymentStore interface {
	// ListByUser returns the user's payments, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Payment, error)

	// Insert records a payment.
	Insert(ctx context.Context, payment *Payment) error
}

// Store groups the storage dependencies of a session.
type Store interface {
	SubscriptionStore
	UsageStore
	PaymentStore
}
