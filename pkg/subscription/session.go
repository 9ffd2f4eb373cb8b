package subscription

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/seokit/pkg/logger"
)

// Session holds the cached billing state of one signed-in user.
//
// The cache is guarded for memory safety only. Check-then-increment is not
// serialized: two concurrent Consume calls may both pass the local check, and
// the storage-side Increment decides which of them wins.
type Session struct {
	userID   uuid.UUID
	subs     SubscriptionStore
	usage    UsageStore
	opts     options
	inflight atomic.Int32

	loadMu sync.Mutex
	loaded atomic.Bool

	mu           sync.RWMutex
	subscription *Subscription
	limits       Limits
	used         Usage
	payments     []Payment
	lastErr      error
	notice       *Notice
}

// NewSession creates an empty session for userID.
// Call Refresh to load state from storage.
func NewSession(userID uuid.UUID, subs SubscriptionStore, usage UsageStore, opts ...Option) *Session {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newSession(userID, subs, usage, o)
}

func newSession(userID uuid.UUID, subs SubscriptionStore, usage UsageStore, o options) *Session {
	return &Session{
		userID: userID,
		subs:   subs,
		usage:  usage,
		opts:   o,
		limits: LimitsFor(DefaultPlan),
		used:   NewUsage(),
	}
}

// UserID returns the owner of the session.
func (s *Session) UserID() uuid.UUID {
	return s.userID
}

// Loading reports whether a remote call is in flight.
func (s *Session) Loading() bool {
	return s.inflight.Load() > 0
}

func (s *Session) begin() func() {
	s.inflight.Add(1)
	return func() { s.inflight.Add(-1) }
}

// Refresh reloads the subscription and then the usage counters.
// Both are attempted; the returned error joins any failures.
func (s *Session) Refresh(ctx context.Context) error {
	_, subErr := s.RefreshSubscription(ctx)
	_, usageErr := s.RefreshUsage(ctx)
	err := errors.Join(subErr, usageErr)
	if err == nil {
		s.loaded.Store(true)
	}
	return err
}

// ensureLoaded runs the initial Refresh until one succeeds. Concurrent
// callers wait for the load in progress. The load outlives ctx so a caller
// that goes away does not leave the session empty.
func (s *Session) ensureLoaded(ctx context.Context) {
	if s.loaded.Load() {
		return
	}
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.loaded.Load() {
		return
	}
	_ = s.Refresh(context.WithoutCancel(ctx))
}

// RefreshSubscription loads the most recently created active subscription.
// Returns (nil, nil) when the user has none. Storage failures are returned
// joined with ErrRemoteFetch and leave the cache untouched.
func (s *Session) RefreshSubscription(ctx context.Context) (*Subscription, error) {
	defer s.begin()()

	sub, err := s.subs.LatestActive(ctx, s.userID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			s.setSubscription(nil)
			return nil, nil
		}
		return nil, s.remoteFailure(ctx, "refresh subscription", err)
	}

	if sub == nil {
		s.setSubscription(nil)
		return nil, nil
	}
	if !sub.PlanType.Valid() {
		s.setSubscription(nil)
		return nil, s.remoteFailure(ctx, "refresh subscription",
			fmt.Errorf("%w: %q", ErrUnknownPlanType, sub.PlanType))
	}

	cp := *sub
	s.setSubscription(&cp)
	return &cp, nil
}

func (s *Session) setSubscription(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscription = sub
	if sub == nil {
		s.limits = LimitsFor(DefaultPlan)
		return
	}
	s.limits = LimitsFor(sub.PlanType)
}

// RefreshUsage loads the usage counters. A missing record yields zeros.
func (s *Session) RefreshUsage(ctx context.Context) (Usage, error) {
	defer s.begin()()

	u, err := s.usage.Get(ctx, s.userID)
	if err != nil {
		return nil, s.remoteFailure(ctx, "refresh usage", err)
	}

	u = u.Clone()
	s.mu.Lock()
	s.used = u
	s.mu.Unlock()

	return u.Clone(), nil
}

// Subscription returns a copy of the cached subscription, nil if absent.
func (s *Session) Subscription() *Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.subscription == nil {
		return nil
	}
	cp := *s.subscription
	return &cp
}

// Limits returns the quotas of the cached plan, or the default plan's when absent.
func (s *Session) Limits() Limits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return LimitsFor(s.planType())
}

// Usage returns a copy of the cached usage counters.
func (s *Session) Usage() Usage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.used.Clone()
}

func (s *Session) planType() PlanType {
	if s.subscription == nil {
		return DefaultPlan
	}
	return s.subscription.PlanType
}

// Availability returns nil when res may be consumed now, or the denial reason.
func (s *Session) Availability(res Resource) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Evaluate(s.subscription, s.limits, s.used, res, s.opts.now())
}

// Authorize is Availability for callers about to spend resources on res.
// A denial raises the limit_reached notice, as Consume does.
func (s *Session) Authorize(ctx context.Context, res Resource) error {
	reason := s.Availability(res)
	if reason != nil {
		s.deny(ctx, res, reason)
	}
	return reason
}

// IsAvailable reports whether res may be consumed now. It reads cached state only.
func (s *Session) IsAvailable(res Resource) bool {
	return s.Availability(res) == nil
}

// Increment records one unit of res and reports whether it was recorded.
// Failures are available through LastError and Notice.
func (s *Session) Increment(ctx context.Context, res Resource) bool {
	return s.Consume(ctx, res) == nil
}

// Consume records one unit of res against the storage-side counter.
//
// A denied entitlement returns its reason (ErrNoActiveSubscription,
// ErrSubscriptionExpired or ErrLimitExceeded) and leaves the cache as is.
// A storage failure returns an error joined with ErrRemoteFetch.
func (s *Session) Consume(ctx context.Context, res Resource) error {
	s.mu.RLock()
	reason := Evaluate(s.subscription, s.limits, s.used, res, s.opts.now())
	limit := s.limits.Get(res)
	s.mu.RUnlock()

	if reason != nil {
		s.deny(ctx, res, reason)
		return reason
	}

	done := s.begin()
	count, err := s.usage.Increment(ctx, s.userID, res.Column(), limit)
	done()

	if err != nil {
		if errors.Is(err, ErrLimitExceeded) {
			// storage already holds limit units
			s.mu.Lock()
			if s.used[res] < limit {
				s.used[res] = limit
			}
			s.mu.Unlock()
			s.deny(ctx, res, ErrLimitExceeded)
			return ErrLimitExceeded
		}
		return s.remoteFailure(ctx, "increment usage", err)
	}

	s.mu.Lock()
	s.used[res]++
	s.mu.Unlock()

	s.opts.logger.DebugContext(ctx, "usage recorded",
		logger.UserID(s.userID),
		logger.Resource(res.String()),
		logger.Count(count),
	)
	return nil
}

// FetchPayments loads the payment history, newest first.
func (s *Session) FetchPayments(ctx context.Context) ([]Payment, error) {
	if s.opts.payments == nil {
		return nil, nil
	}
	defer s.begin()()

	list, err := s.opts.payments.ListByUser(ctx, s.userID)
	if err != nil {
		return nil, s.remoteFailure(ctx, "fetch payments", err)
	}

	slices.SortStableFunc(list, func(a, b Payment) int {
		return b.Date.Compare(a.Date)
	})

	s.mu.Lock()
	s.payments = slices.Clone(list)
	s.mu.Unlock()

	return list, nil
}

// Payments returns the last fetched payment history.
func (s *Session) Payments() []Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.payments)
}

// InitiateCheckout starts a checkout for plan at its catalog price and
// returns the URL the user should be redirected to.
func (s *Session) InitiateCheckout(ctx context.Context, plan PlanType) (string, error) {
	if !plan.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlanType, plan)
	}
	if s.opts.checkout == nil {
		return "", ErrCheckoutUnavailable
	}
	defer s.begin()()

	url, err := s.opts.checkout.CreateCheckout(ctx, CheckoutRequest{
		PlanType: plan,
		Amount:   PriceFor(plan).Major(),
		UserID:   s.userID,
	})
	if err != nil {
		return "", s.remoteFailure(ctx, "initiate checkout", errors.Join(ErrCheckoutFailed, err))
	}
	if url == "" {
		return "", s.remoteFailure(ctx, "initiate checkout", ErrNoCheckoutURL)
	}

	s.opts.logger.InfoContext(ctx, "checkout initiated",
		logger.UserID(s.userID),
		logger.Plan(string(plan)),
	)
	return url, nil
}

// Reset drops all cached state, as on sign-out.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscription = nil
	s.limits = LimitsFor(DefaultPlan)
	s.used = NewUsage()
	s.payments = nil
	s.lastErr = nil
	s.notice = nil
}

// LastError returns the most recent remote failure, nil if none.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Notice returns the most recent notice, nil if none.
func (s *Session) Notice() *Notice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.notice == nil {
		return nil
	}
	n := *s.notice
	return &n
}

// ClearNotice dismisses the current notice and the last error.
func (s *Session) ClearNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = nil
	s.lastErr = nil
}

func (s *Session) deny(ctx context.Context, res Resource, reason error) {
	s.raise(ctx, Notice{
		Kind:     NoticeLimitReached,
		Resource: res,
		Message:  DenialMessage(reason, res),
		At:       s.opts.now(),
	}, nil)

	s.opts.logger.InfoContext(ctx, "entitlement denied",
		logger.UserID(s.userID),
		logger.Resource(res.String()),
		logger.Reason(reason.Error()),
	)
}

func (s *Session) remoteFailure(ctx context.Context, op string, cause error) error {
	err := errors.Join(ErrRemoteFetch, cause)

	s.raise(ctx, Notice{
		Kind:    NoticeRemoteError,
		Message: remoteErrorMessage,
		At:      s.opts.now(),
	}, err)

	s.opts.logger.ErrorContext(ctx, "subscription session operation failed",
		logger.UserID(s.userID),
		logger.Operation(op),
		logger.Error(cause),
	)
	return err
}

func (s *Session) raise(ctx context.Context, n Notice, err error) {
	s.mu.Lock()
	s.notice = &n
	if err != nil {
		s.lastErr = err
	}
	s.mu.Unlock()

	if s.opts.notifier != nil {
		s.opts.notifier(ctx, s.userID, n)
	}
}

// Snapshot is an immutable view of a session.
type Snapshot struct {
	UserID       uuid.UUID     `json:"user_id"`
	Subscription *Subscription `json:"subscription"`
	Plan         *Plan         `json:"plan"`
	DaysLeft     int           `json:"days_remaining"`
	Limits       Limits        `json:"limits"`
	Usage        Usage         `json:"usage"`
	Resources    []UsageInfo   `json:"resources"`
	Loading      bool          `json:"loading"`
	LastError    string        `json:"last_error,omitempty"`
	Notice       *Notice       `json:"notice,omitempty"`
	TakenAt      time.Time     `json:"taken_at"`
}

// Snapshot captures the cached state together with per-resource availability.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.opts.now()
	snap := Snapshot{
		UserID:  s.userID,
		Limits:  LimitsFor(s.planType()),
		Usage:   s.used.Clone(),
		Loading: s.Loading(),
		TakenAt: now,
	}
	if s.subscription != nil {
		cp := *s.subscription
		snap.Subscription = &cp
		snap.DaysLeft = cp.DaysRemainingAt(now)
		if p, ok := PlanFor(cp.PlanType); ok {
			snap.Plan = &p
		}
	}
	snap.Resources = snap.Usage.Report(snap.Limits, func(r Resource) bool {
		return CheckAvailability(s.subscription, s.limits, s.used, r, now)
	})
	if s.lastErr != nil {
		snap.LastError = s.lastErr.Error()
	}
	if s.notice != nil {
		n := *s.notice
		snap.Notice = &n
	}
	return snap
}
