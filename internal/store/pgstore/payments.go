package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seokit/pkg/subscription"
)

// ListByUser implements subscription.PaymentStore.
func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]subscription.Payment, error) {
	rows, err := s.db.Query(ctx, `SELECT id, user_id, amount, currency, method, status, COALESCE(reference, ''), paid_at
		FROM payments
		WHERE user_id = $1
		ORDER BY paid_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list payments: %w", err)
	}
	defer rows.Close()

	var out []subscription.Payment
	for rows.Next() {
		var p subscription.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.Amount.Amount, &p.Amount.Currency,
			&p.Method, &p.Status, &p.Reference, &p.Date); err != nil {
			return nil, fmt.Errorf("pgstore: scan payment: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: list payments: %w", err)
	}
	return out, nil
}

// Insert implements subscription.PaymentStore. Payments are unique per
// provider reference, so redelivered webhooks are ignored.
func (s *Store) Insert(ctx context.Context, p *subscription.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	var reference *string
	if p.Reference != "" {
		reference = &p.Reference
	}

	_, err := s.db.Exec(ctx, `INSERT INTO payments (id, user_id, amount, currency, method, status, reference, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (reference) DO NOTHING`,
		p.ID, p.UserID, p.Amount.Amount, p.Amount.Currency, p.Method, p.Status, reference, p.Date)
	if err != nil {
		return fmt.Errorf("pgstore: insert payment: %w", err)
	}
	return nil
}
