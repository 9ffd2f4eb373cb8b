package api

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/seokit/handler"
	"github.com/dmitrymomot/seokit/internal/history"
	"github.com/dmitrymomot/seokit/pkg/jwt"
	"github.com/dmitrymomot/seokit/pkg/subscription"
	"github.com/dmitrymomot/seokit/pkg/tools"
)

var (
	errLimitReached        = handler.NewHTTPError(http.StatusPaymentRequired, "limit_reached")
	errNoSubscription      = handler.NewHTTPError(http.StatusPaymentRequired, "no_active_subscription")
	errSubscriptionExpired = handler.NewHTTPError(http.StatusPaymentRequired, "subscription_expired")
	errRemoteFetch         = handler.NewHTTPError(http.StatusBadGateway, "remote_fetch_failed")
	errUnknownResource     = handler.NewHTTPError(http.StatusNotFound, "unknown_resource")
	errUnknownPlan         = handler.NewHTTPError(http.StatusUnprocessableEntity, "unknown_plan")
	errToolNotConfigured   = handler.NewHTTPError(http.StatusServiceUnavailable, "tool_not_configured")
	errToolUnavailable     = handler.NewHTTPError(http.StatusServiceUnavailable, "tool_unavailable")
	errToolFailed          = handler.NewHTTPError(http.StatusBadGateway, "tool_failed")
	errInvalidToolInput    = handler.NewHTTPError(http.StatusBadRequest, "invalid_tool_input")
	errHistoryNotFound     = handler.NewHTTPError(http.StatusNotFound, "history_not_found")
	errCheckoutUnavailable = handler.NewHTTPError(http.StatusServiceUnavailable, "checkout_unavailable")
	errAmountMismatch      = handler.NewHTTPError(http.StatusUnprocessableEntity, "amount_mismatch")
	errWebhookSignature    = handler.NewHTTPError(http.StatusUnauthorized, "invalid_signature")
	errWebhookPayload      = handler.NewHTTPError(http.StatusBadRequest, "invalid_webhook_payload")
	errTokenExpired        = handler.NewHTTPError(http.StatusUnauthorized, "token_expired")
	errRateLimited         = handler.NewHTTPError(http.StatusTooManyRequests, "rate_limited")
	errForbiddenUser       = handler.NewHTTPError(http.StatusForbidden, "user_mismatch")
	errHistoryDisabled     = handler.NewHTTPError(http.StatusServiceUnavailable, "history_unavailable")
)

// mapDomainErrors translates package sentinels into HTTP errors. The original
// error stays joined so it is still logged.
func mapDomainErrors(err error) error {
	var target handler.HTTPError
	if errors.As(err, &target) {
		return err
	}

	var mapped handler.HTTPError
	switch {
	case errors.Is(err, subscription.ErrLimitExceeded):
		mapped = errLimitReached
	case errors.Is(err, subscription.ErrNoActiveSubscription):
		mapped = errNoSubscription
	case errors.Is(err, subscription.ErrSubscriptionExpired):
		mapped = errSubscriptionExpired
	case errors.Is(err, subscription.ErrCheckoutUnavailable):
		mapped = errCheckoutUnavailable
	case errors.Is(err, subscription.ErrAmountMismatch):
		mapped = errAmountMismatch
	case errors.Is(err, subscription.ErrUnknownPlanType):
		mapped = errUnknownPlan
	case errors.Is(err, subscription.ErrUnknownResource):
		mapped = errUnknownResource
	case errors.Is(err, subscription.ErrMissingUserID):
		mapped = handler.ErrBadRequest
	case errors.Is(err, subscription.ErrWebhookVerificationFailed):
		mapped = errWebhookSignature
	case errors.Is(err, subscription.ErrInvalidWebhookPayload):
		mapped = errWebhookPayload
	case errors.Is(err, subscription.ErrRemoteFetch):
		mapped = errRemoteFetch.WithMessage("Something went wrong while talking to the server. Please try again.")
	case errors.Is(err, tools.ErrToolNotConfigured):
		mapped = errToolNotConfigured
	case errors.Is(err, tools.ErrToolUnavailable):
		mapped = errToolUnavailable
	case errors.Is(err, tools.ErrToolFailed):
		mapped = errToolFailed
	case errors.Is(err, tools.ErrInvalidInput), errors.Is(err, history.ErrInvalidEntry):
		mapped = errInvalidToolInput
	case errors.Is(err, history.ErrNotFound):
		mapped = errHistoryNotFound
	case errors.Is(err, jwt.ErrExpiredToken):
		mapped = errTokenExpired
	case errors.Is(err, jwt.ErrMissingToken), errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrInvalidClaims), errors.Is(err, jwt.ErrMissingClaims):
		mapped = handler.ErrUnauthorized
	default:
		return err
	}
	return errors.Join(mapped, err)
}

// denial builds the 402 for an entitlement refusal with the message shown to the user.
func denial(reason error, res subscription.Resource) error {
	var httpErr handler.HTTPError
	if !errors.As(mapDomainErrors(reason), &httpErr) {
		return reason
	}
	return errors.Join(httpErr.WithMessage(subscription.DenialMessage(reason, res)), reason)
}
