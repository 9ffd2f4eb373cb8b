package subscription

import "time"

// Evaluate applies the entitlement policy in order and returns the first
// reason res is not available, or nil when it is:
//
//  1. no subscription, or status other than active: ErrNoActiveSubscription
//  2. now past CurrentPeriodEnd: ErrSubscriptionExpired
//  3. usage at or above a finite limit: ErrLimitExceeded
//
// Evaluate reads only its arguments and never touches storage.
func Evaluate(sub *Subscription, limits Limits, usage Usage, res Resource, now time.Time) error {
	if !sub.IsActive() {
		return ErrNoActiveSubscription
	}
	if sub.IsExpiredAt(now) {
		return ErrSubscriptionExpired
	}
	if !res.Valid() {
		return ErrUnknownResource
	}

	limit := limits.Get(res)
	if limit == Unlimited {
		return nil
	}
	if usage.Get(res) >= limit {
		return ErrLimitExceeded
	}
	return nil
}

// CheckAvailability reports whether res may be consumed now.
func CheckAvailability(sub *Subscription, limits Limits, usage Usage, res Resource, now time.Time) bool {
	return Evaluate(sub, limits, usage, res, now) == nil
}

// DenialMessage is the user-facing text for an entitlement denial of res.
func DenialMessage(reason error, res Resource) string {
	switch reason {
	case ErrNoActiveSubscription:
		return "An active subscription is required to use " + res.String() + "."
	case ErrSubscriptionExpired:
		return "Your billing period has ended. Renew your plan to keep using " + res.String() + "."
	case ErrUnknownResource:
		return "Unknown resource " + res.String() + "."
	default:
		return "You have reached your plan limit for " + res.String() + ". Upgrade your plan to continue."
	}
}
