package subscription_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/seokit/pkg/subscription"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func activeSub(plan subscription.PlanType) *subscription.Subscription {
	return &subscription.Subscription{
		ID:                 uuid.New(),
		UserID:             uuid.New(),
		PlanType:           plan,
		Status:             subscription.StatusActive,
		CurrentPeriodStart: testNow.AddDate(0, 0, -10),
		CurrentPeriodEnd:   testNow.AddDate(0, 0, 20),
		CreatedAt:          testNow.AddDate(0, 0, -10),
	}
}

func TestCheckAvailability(t *testing.T) {
	t.Parallel()

	t.Run("absent subscription denies regardless of usage", func(t *testing.T) {
		t.Parallel()

		limits := subscription.LimitsFor(subscription.PlanSolo)
		for _, res := range subscription.Resources {
			assert.False(t, subscription.CheckAvailability(nil, limits, subscription.NewUsage(), res, testNow))
		}
		assert.ErrorIs(t,
			subscription.Evaluate(nil, limits, nil, subscription.ResourceKeywords, testNow),
			subscription.ErrNoActiveSubscription)
	})

	t.Run("non-active statuses deny", func(t *testing.T) {
		t.Parallel()

		for _, st := range []subscription.Status{subscription.StatusInactive, subscription.StatusCanceled, subscription.StatusExpired} {
			sub := activeSub(subscription.PlanEscala)
			sub.Status = st
			limits := subscription.LimitsFor(sub.PlanType)
			for _, res := range subscription.Resources {
				assert.False(t, subscription.CheckAvailability(sub, limits, subscription.NewUsage(), res, testNow), "status %s", st)
			}
		}
	})

	t.Run("period end in the past denies", func(t *testing.T) {
		t.Parallel()

		sub := activeSub(subscription.PlanSolo)
		sub.CurrentPeriodEnd = testNow.Add(-time.Second)
		limits := subscription.LimitsFor(sub.PlanType)

		err := subscription.Evaluate(sub, limits, subscription.NewUsage(), subscription.ResourceKeywords, testNow)
		assert.ErrorIs(t, err, subscription.ErrSubscriptionExpired)
	})

	t.Run("period end equal to now still allows", func(t *testing.T) {
		t.Parallel()

		sub := activeSub(subscription.PlanSolo)
		sub.CurrentPeriodEnd = testNow
		limits := subscription.LimitsFor(sub.PlanType)
		assert.True(t, subscription.CheckAvailability(sub, limits, subscription.NewUsage(), subscription.ResourceKeywords, testNow))
	})

	t.Run("limit boundary", func(t *testing.T) {
		t.Parallel()

		sub := activeSub(subscription.PlanSolo)
		limits := subscription.LimitsFor(sub.PlanType)

		for _, res := range subscription.Resources {
			limit := limits[res]

			below := subscription.Usage{res: limit - 1}
			assert.True(t, subscription.CheckAvailability(sub, limits, below, res, testNow), "resource %s", res)

			at := subscription.Usage{res: limit}
			assert.False(t, subscription.CheckAvailability(sub, limits, at, res, testNow), "resource %s", res)
			assert.ErrorIs(t, subscription.Evaluate(sub, limits, at, res, testNow), subscription.ErrLimitExceeded)
		}
	})

	t.Run("unlimited always allows", func(t *testing.T) {
		t.Parallel()

		sub := activeSub(subscription.PlanEscala)
		limits := subscription.LimitsFor(sub.PlanType)
		huge := subscription.NewUsage()
		for _, res := range subscription.Resources {
			huge[res] = 1 << 40
		}
		for _, res := range subscription.Resources {
			assert.True(t, subscription.CheckAvailability(sub, limits, huge, res, testNow))
		}
	})

	t.Run("unknown resource denies", func(t *testing.T) {
		t.Parallel()

		sub := activeSub(subscription.PlanEscala)
		err := subscription.Evaluate(sub, subscription.LimitsFor(sub.PlanType), nil, subscription.Resource("video"), testNow)
		assert.ErrorIs(t, err, subscription.ErrUnknownResource)
	})
}
