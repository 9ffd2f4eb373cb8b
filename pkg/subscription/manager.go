package subscription

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seokit/pkg/logger"
)

// SessionEventType identifies an identity lifecycle event.
type SessionEventType string

const (
	EventSignedIn  SessionEventType = "signed_in"
	EventSignedOut SessionEventType = "signed_out"
)

// SessionEvent is an identity change delivered by the auth provider.
type SessionEvent struct {
	Type   SessionEventType `json:"type"`
	UserID uuid.UUID        `json:"user_id"`
}

// Manager owns one Session per signed-in user.
type Manager struct {
	subs  SubscriptionStore
	usage UsageStore
	opts  options

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager backed by the given stores.
func NewManager(subs SubscriptionStore, usage UsageStore, opts ...Option) *Manager {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Manager{
		subs:     subs,
		usage:    usage,
		opts:     o,
		sessions: make(map[uuid.UUID]*Session),
	}
}

func (m *Manager) getOrCreate(userID uuid.UUID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok {
		s = newSession(userID, m.subs, m.usage, m.opts)
		m.sessions[userID] = s
	}
	return s
}

// SignIn registers a session for userID and refreshes it from storage.
// The session is kept even when the refresh fails; the failure is returned
// and recorded as the session's last error.
func (m *Manager) SignIn(ctx context.Context, userID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUserID
	}

	s := m.getOrCreate(userID)
	err := s.Refresh(ctx)

	m.opts.logger.InfoContext(ctx, "session signed in", logger.UserID(userID))
	return s, err
}

// SignOut resets and forgets the session of userID.
func (m *Manager) SignOut(ctx context.Context, userID uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.Reset()
	m.opts.logger.InfoContext(ctx, "session signed out", logger.UserID(userID))
}

// Get returns the existing session of userID.
func (m *Manager) Get(userID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	return s, ok
}

// Resolve returns the session of userID, signing the user in on first use.
// Concurrent first requests share a single initial refresh. A failed initial
// refresh is retried by the next Resolve.
func (m *Manager) Resolve(ctx context.Context, userID uuid.UUID) (*Session, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUserID
	}

	s := m.getOrCreate(userID)
	s.ensureLoaded(ctx)
	return s, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RefreshUser reloads the session of userID if it is signed in.
// Used after billing changes for that user.
func (m *Manager) RefreshUser(ctx context.Context, userID uuid.UUID) error {
	s, ok := m.Get(userID)
	if !ok {
		return nil
	}
	return s.Refresh(ctx)
}

// HandleEvent applies an identity lifecycle event.
func (m *Manager) HandleEvent(ctx context.Context, ev SessionEvent) error {
	switch ev.Type {
	case EventSignedIn:
		_, err := m.SignIn(ctx, ev.UserID)
		return err
	case EventSignedOut:
		m.SignOut(ctx, ev.UserID)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedEvent, ev.Type)
	}
}
