package subscription

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for development and tests.
// Increment holds the store lock across check and update.
type MemoryStore struct {
	mu            sync.Mutex
	subscriptions map[uuid.UUID]Subscription
	usage         map[uuid.UUID]Usage
	payments      []Payment
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subscriptions: make(map[uuid.UUID]Subscription),
		usage:         make(map[uuid.UUID]Usage),
	}
}

// LatestActive implements SubscriptionStore.
func (m *MemoryStore) LatestActive(_ context.Context, userID uuid.UUID) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest *Subscription
	for _, s := range m.subscriptions {
		if s.UserID != userID || s.Status != StatusActive {
			continue
		}
		if latest == nil || s.CreatedAt.After(latest.CreatedAt) {
			cp := s
			latest = &cp
		}
	}
	if latest == nil {
		return nil, ErrSubscriptionNotFound
	}
	return latest, nil
}

// GetByProviderID implements SubscriptionStore.
func (m *MemoryStore) GetByProviderID(_ context.Context, providerSubID string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.subscriptions {
		if s.ProviderSubID != "" && s.ProviderSubID == providerSubID {
			cp := s
			return &cp, nil
		}
	}
	return nil, ErrSubscriptionNotFound
}

// Save implements SubscriptionStore.
func (m *MemoryStore) Save(_ context.Context, sub *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	m.subscriptions[sub.ID] = *sub
	return nil
}

// Get implements UsageStore.
func (m *MemoryStore) Get(_ context.Context, userID uuid.UUID) (Usage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.usage[userID]
	if !ok {
		return NewUsage(), nil
	}
	return u.Clone(), nil
}

// Increment implements UsageStore.
func (m *MemoryStore) Increment(_ context.Context, userID uuid.UUID, column string, limit int64) (int64, error) {
	res, ok := ResourceForColumn(column)
	if !ok {
		return 0, ErrUnknownResource
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.usage[userID]
	if !ok {
		u = NewUsage()
		m.usage[userID] = u
	}
	if limit != Unlimited && u[res] >= limit {
		return u[res], ErrLimitExceeded
	}
	u[res]++
	return u[res], nil
}

// SetUsage replaces the usage counters of userID.
func (m *MemoryStore) SetUsage(userID uuid.UUID, usage Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage[userID] = usage.Clone()
}

// ListByUser implements PaymentStore.
func (m *MemoryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Payment
	for _, p := range m.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b Payment) int {
		return b.Date.Compare(a.Date)
	})
	return out, nil
}

// Insert implements PaymentStore.
func (m *MemoryStore) Insert(_ context.Context, payment *Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	m.payments = append(m.payments, *payment)
	return nil
}
