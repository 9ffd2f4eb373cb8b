package webhook

import "errors"

var (
	ErrCallFailed        = errors.New("webhook call failed")
	ErrPermanentFailure  = errors.New("permanent webhook failure")
	ErrTemporaryFailure  = errors.New("temporary webhook failure")
	ErrCircuitOpen       = errors.New("webhook circuit breaker is open")
	ErrInvalidPayload    = errors.New("invalid webhook payload")
	ErrInvalidResponse   = errors.New("invalid webhook response")
	ErrInvalidURL        = errors.New("invalid webhook URL")
	ErrTimeout           = errors.New("webhook request timeout")
	ErrMissingSecret     = errors.New("webhook signing secret is required")
	ErrSignatureMismatch = errors.New("webhook signature mismatch")
)

// IsCircuitOpen reports whether err was caused by an open circuit breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
