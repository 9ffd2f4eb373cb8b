package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Subscription represents a user's billing state for one plan.
// A user may accumulate several records over time; the most recently created
// active one is authoritative.
type Subscription struct {
	ID                 uuid.UUID `json:"id"`
	UserID             uuid.UUID `json:"user_id"`
	PlanType           PlanType  `json:"plan_type"`
	Status             Status    `json:"status"`
	ProviderSubID      string    `json:"-"` // billing provider's subscription ID
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsActive returns true if the subscription status is active.
func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

// IsExpiredAt reports whether the current billing period has ended at now.
func (s *Subscription) IsExpiredAt(now time.Time) bool {
	return s != nil && now.After(s.CurrentPeriodEnd)
}

// DaysRemainingAt returns the number of whole days left in the billing period.
// Returns 0 once the period has ended.
func (s *Subscription) DaysRemainingAt(now time.Time) int {
	if s == nil {
		return 0
	}
	remaining := s.CurrentPeriodEnd.Sub(now)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Hours() / 24)
}

// Payment is a historical billing record. Sessions never mutate payments.
type Payment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Amount    Money     `json:"amount"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Reference string    `json:"-"` // billing provider's transaction ID
	Date      time.Time `json:"date"`
}
