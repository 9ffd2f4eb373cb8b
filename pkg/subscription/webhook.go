package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seokit/pkg/logger"
)

// WebhookEventType is the billing provider's event name.
type WebhookEventType string

const (
	WebhookSubscriptionCreated   WebhookEventType = "subscription.created"
	WebhookSubscriptionActivated WebhookEventType = "subscription.activated"
	WebhookSubscriptionUpdated   WebhookEventType = "subscription.updated"
	WebhookSubscriptionResumed   WebhookEventType = "subscription.resumed"
	WebhookSubscriptionPastDue   WebhookEventType = "subscription.past_due"
	WebhookSubscriptionPaused    WebhookEventType = "subscription.paused"
	WebhookSubscriptionCanceled  WebhookEventType = "subscription.canceled"
	WebhookTransactionCompleted  WebhookEventType = "transaction.completed"
	WebhookTransactionFailed     WebhookEventType = "transaction.payment_failed"
)

// WebhookEvent is a normalized billing notification.
type WebhookEvent struct {
	ID                string
	Type              WebhookEventType
	OccurredAt        time.Time
	UserID            uuid.UUID
	PlanType          PlanType // empty when the price is not in the catalog
	Status            Status
	SubscriptionID    string // provider's subscription ID
	PeriodStart       time.Time
	PeriodEnd         time.Time
	TransactionID     string
	TransactionStatus string
	Amount            Money
	Method            string
	BilledAt          time.Time
}

// WebhookParser verifies and parses a billing provider's webhook request.
type WebhookParser interface {
	ParseWebhookRequest(req *http.Request) (*WebhookEvent, error)
}

// BillingProcessor applies billing notifications to subscription and payment storage.
type BillingProcessor struct {
	subs     SubscriptionStore
	payments PaymentStore
	onChange func(ctx context.Context, userID uuid.UUID) error
	logger   *slog.Logger
	now      func() time.Time
}

// BillingProcessorOption configures a BillingProcessor.
type BillingProcessorOption func(*BillingProcessor)

// WithOnChange registers a callback invoked after a user's billing state changed.
// Typically Manager.RefreshUser.
func WithOnChange(fn func(ctx context.Context, userID uuid.UUID) error) BillingProcessorOption {
	return func(p *BillingProcessor) {
		p.onChange = fn
	}
}

// WithProcessorLogger sets the logger of a BillingProcessor.
func WithProcessorLogger(l *slog.Logger) BillingProcessorOption {
	return func(p *BillingProcessor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProcessorClock overrides the time source of a BillingProcessor.
func WithProcessorClock(now func() time.Time) BillingProcessorOption {
	return func(p *BillingProcessor) {
		if now != nil {
			p.now = now
		}
	}
}

// NewBillingProcessor creates a processor writing to the given stores.
func NewBillingProcessor(subs SubscriptionStore, payments PaymentStore, opts ...BillingProcessorOption) *BillingProcessor {
	p := &BillingProcessor{
		subs:     subs,
		payments: payments,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process applies ev. Unhandled event types are ignored.
func (p *BillingProcessor) Process(ctx context.Context, ev *WebhookEvent) error {
	if ev == nil {
		return ErrInvalidWebhookPayload
	}

	var userID uuid.UUID
	var err error

	switch ev.Type {
	case WebhookSubscriptionCreated, WebhookSubscriptionActivated, WebhookSubscriptionUpdated,
		WebhookSubscriptionResumed, WebhookSubscriptionPastDue, WebhookSubscriptionPaused,
		WebhookSubscriptionCanceled:
		userID, err = p.applySubscription(ctx, ev)
	case WebhookTransactionCompleted:
		userID, err = p.recordPayment(ctx, ev, "completed")
	case WebhookTransactionFailed:
		userID, err = p.recordPayment(ctx, ev, "failed")
	default:
		p.logger.DebugContext(ctx, "ignoring billing event", logger.EventType(string(ev.Type)))
		return nil
	}
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to process billing event",
			logger.EventType(string(ev.Type)),
			logger.MessageID(ev.ID),
			logger.Error(err),
		)
		return err
	}

	p.logger.InfoContext(ctx, "billing event processed",
		logger.EventType(string(ev.Type)),
		logger.MessageID(ev.ID),
		logger.UserID(userID),
	)

	if p.onChange != nil && userID != uuid.Nil {
		if err := p.onChange(ctx, userID); err != nil {
			p.logger.WarnContext(ctx, "failed to refresh session after billing event",
				logger.UserID(userID),
				logger.Error(err),
			)
		}
	}
	return nil
}

func (p *BillingProcessor) applySubscription(ctx context.Context, ev *WebhookEvent) (uuid.UUID, error) {
	if ev.SubscriptionID == "" {
		return uuid.Nil, fmt.Errorf("%w: missing subscription id", ErrInvalidWebhookPayload)
	}

	now := p.now()
	sub, err := p.subs.GetByProviderID(ctx, ev.SubscriptionID)
	switch {
	case errors.Is(err, ErrSubscriptionNotFound):
		if ev.UserID == uuid.Nil {
			return uuid.Nil, ErrMissingUserID
		}
		if ev.PlanType == "" {
			return uuid.Nil, ErrUnknownPlanType
		}
		sub = &Subscription{
			ID:            uuid.New(),
			UserID:        ev.UserID,
			PlanType:      ev.PlanType,
			ProviderSubID: ev.SubscriptionID,
			CreatedAt:     now,
		}
	case err != nil:
		return uuid.Nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	if ev.PlanType != "" {
		sub.PlanType = ev.PlanType
	}
	if ev.Type == WebhookSubscriptionCanceled {
		sub.Status = StatusCanceled
	} else if ev.Status != "" {
		sub.Status = ev.Status
	}
	if !ev.PeriodStart.IsZero() {
		sub.CurrentPeriodStart = ev.PeriodStart
	}
	if !ev.PeriodEnd.IsZero() {
		sub.CurrentPeriodEnd = ev.PeriodEnd
	}
	sub.UpdatedAt = now

	if err := p.subs.Save(ctx, sub); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save subscription: %w", err)
	}
	return sub.UserID, nil
}

func (p *BillingProcessor) recordPayment(ctx context.Context, ev *WebhookEvent, status string) (uuid.UUID, error) {
	if p.payments == nil {
		return ev.UserID, nil
	}

	userID := ev.UserID
	if userID == uuid.Nil && ev.SubscriptionID != "" {
		sub, err := p.subs.GetByProviderID(ctx, ev.SubscriptionID)
		if err == nil {
			userID = sub.UserID
		}
	}
	if userID == uuid.Nil {
		return uuid.Nil, ErrMissingUserID
	}

	date := ev.BilledAt
	if date.IsZero() {
		date = ev.OccurredAt
	}
	if date.IsZero() {
		date = p.now()
	}

	payment := &Payment{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    ev.Amount,
		Method:    ev.Method,
		Status:    status,
		Reference: ev.TransactionID,
		Date:      date,
	}
	if err := p.payments.Insert(ctx, payment); err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert payment: %w", err)
	}
	return userID, nil
}
