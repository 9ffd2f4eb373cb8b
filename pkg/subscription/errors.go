package subscription

import "errors"

var (
	ErrUnknownPlanType      = errors.New("unknown subscription plan type")
	ErrUnknownResource      = errors.New("unknown metered resource")
	ErrUnknownStatus        = errors.New("unknown subscription status")
	ErrNoActiveSubscription = errors.New("no active subscription")

	// ErrRemoteFetch marks storage or network failures, as opposed to a missing row.
	ErrRemoteFetch = errors.New("remote fetch failed")

	ErrLimitExceeded        = errors.New("usage limit exceeded")
	ErrSubscriptionExpired  = errors.New("subscription billing period has ended")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrUnsupportedEvent     = errors.New("unsupported session event")

	ErrCheckoutUnavailable = errors.New("checkout is not configured")
	ErrCheckoutFailed      = errors.New("failed to create checkout session")
	ErrNoCheckoutURL       = errors.New("no checkout URL returned from provider")
	ErrAmountMismatch      = errors.New("checkout amount does not match plan price")

	// Provider-specific errors
	ErrMissingAPIKey              = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret       = errors.New("billing provider webhook secret is required")
	ErrInvalidProviderEnvironment = errors.New("invalid billing provider environment")
	ErrMissingPriceID             = errors.New("price ID is required")
	ErrMissingUserID              = errors.New("user ID is required")
	ErrWebhookVerificationFailed  = errors.New("webhook signature verification failed")
	ErrInvalidWebhookPayload      = errors.New("invalid webhook payload")
)
