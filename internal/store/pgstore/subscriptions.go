package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/seokit/pkg/pg"
	"github.com/dmitrymomot/seokit/pkg/subscription"
)

const subscriptionColumns = `id, user_id, plan_type, status, COALESCE(provider_sub_id, ''),
	current_period_start, current_period_end, created_at, updated_at`

func scanSubscription(row pgx.Row) (*subscription.Subscription, error) {
	var (
		s            subscription.Subscription
		plan, status string
	)
	err := row.Scan(&s.ID, &s.UserID, &plan, &status, &s.ProviderSubID,
		&s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, err
	}

	s.PlanType = subscription.PlanType(plan)
	if s.Status, err = subscription.ParseStatus(status); err != nil {
		return nil, err
	}
	return &s, nil
}

// LatestActive implements subscription.SubscriptionStore.
func (s *Store) LatestActive(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	row := s.db.QueryRow(ctx, `SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at DESC
		LIMIT 1`, userID)

	sub, err := scanSubscription(row)
	if err != nil && !errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("pgstore: latest active subscription: %w", err)
	}
	return sub, err
}

// GetByProviderID implements subscription.SubscriptionStore.
func (s *Store) GetByProviderID(ctx context.Context, providerSubID string) (*subscription.Subscription, error) {
	row := s.db.QueryRow(ctx, `SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE provider_sub_id = $1`, providerSubID)

	sub, err := scanSubscription(row)
	if err != nil && !errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return nil, fmt.Errorf("pgstore: subscription by provider id: %w", err)
	}
	return sub, err
}

// Save implements subscription.SubscriptionStore.
func (s *Store) Save(ctx context.Context, sub *subscription.Subscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}

	var providerID *string
	if sub.ProviderSubID != "" {
		providerID = &sub.ProviderSubID
	}

	_, err := s.db.Exec(ctx, `INSERT INTO subscriptions
		(id, user_id, plan_type, status, provider_sub_id, current_period_start, current_period_end, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			plan_type = EXCLUDED.plan_type,
			status = EXCLUDED.status,
			provider_sub_id = EXCLUDED.provider_sub_id,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at`,
		sub.ID, sub.UserID, string(sub.PlanType), string(sub.Status), providerID,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgstore: save subscription: %w", err)
	}
	return nil
}
