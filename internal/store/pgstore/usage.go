package pgstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seokit/pkg/pg"
	"github.com/dmitrymomot/seokit/pkg/subscription"
)

var usageSelect = `SELECT ` + strings.Join(subscription.Columns(), ", ") + ` FROM usage WHERE user_id = $1`

// Get implements subscription.UsageStore. A missing row yields zero counts.
func (s *Store) Get(ctx context.Context, userID uuid.UUID) (subscription.Usage, error) {
	counts := make([]int64, len(subscription.Resources))
	dest := make([]any, len(counts))
	for i := range counts {
		dest[i] = &counts[i]
	}

	if err := s.db.QueryRow(ctx, usageSelect, userID).Scan(dest...); err != nil {
		if pg.IsNotFoundError(err) {
			return subscription.NewUsage(), nil
		}
		return nil, fmt.Errorf("pgstore: get usage: %w", err)
	}

	usage := subscription.NewUsage()
	for i, res := range subscription.Resources {
		usage[res] = counts[i]
	}
	return usage, nil
}

// Increment implements subscription.UsageStore through the increment_usage
// function, which checks the limit and increments in a single UPDATE.
func (s *Store) Increment(ctx context.Context, userID uuid.UUID, column string, limit int64) (int64, error) {
	if _, ok := subscription.ResourceForColumn(column); !ok {
		return 0, fmt.Errorf("pgstore: increment usage: %w: %q", subscription.ErrUnknownResource, column)
	}

	var count *int64
	if err := s.db.QueryRow(ctx, `SELECT increment_usage($1, $2, $3)`, userID, column, limit).Scan(&count); err != nil {
		if pg.IsInvalidParameterError(err) {
			return 0, fmt.Errorf("pgstore: increment usage: %w: %v", subscription.ErrUnknownResource, err)
		}
		return 0, fmt.Errorf("pgstore: increment usage: %w", err)
	}
	if count == nil {
		return limit, subscription.ErrLimitExceeded
	}
	return *count, nil
}
