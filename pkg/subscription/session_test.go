package subscription_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seokit/pkg/subscription"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) LatestActive(ctx context.Context, userID uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, userID)
	sub, _ := args.Get(0).(*subscription.Subscription)
	return sub, args.Error(1)
}

func (m *mockStore) GetByProviderID(ctx context.Context, providerSubID string) (*subscription.Subscription, error) {
	args := m.Called(ctx, providerSubID)
	sub, _ := args.Get(0).(*subscription.Subscription)
	return sub, args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, sub *subscription.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockStore) Get(ctx context.Context, userID uuid.UUID) (subscription.Usage, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(subscription.Usage)
	return u, args.Error(1)
}

func (m *mockStore) Increment(ctx context.Context, userID uuid.UUID, column string, limit int64) (int64, error) {
	args := m.Called(ctx, userID, column, limit)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]subscription.Payment, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).([]subscription.Payment)
	return p, args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, payment *subscription.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

// seededSession returns a refreshed session backed by a MemoryStore.
func seededSession(t *testing.T, plan subscription.PlanType, usage subscription.Usage, opts ...subscription.Option) (*subscription.Session, *subscription.MemoryStore) {
	t.Helper()

	store := subscription.NewMemoryStore()
	sub := activeSub(plan)
	require.NoError(t, store.Save(context.Background(), sub))
	if usage != nil {
		store.SetUsage(sub.UserID, usage)
	}

	opts = append([]subscription.Option{subscription.WithClock(fixedClock())}, opts...)
	sess := subscription.NewSession(sub.UserID, store, store, opts...)
	require.NoError(t, sess.Refresh(context.Background()))
	return sess, store
}

func TestSession_RefreshSubscription(t *testing.T) {
	t.Parallel()

	t.Run("picks the most recent active subscription", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		userID := uuid.New()
		ctx := context.Background()

		older := activeSub(subscription.PlanSolo)
		older.UserID = userID
		older.CreatedAt = testNow.AddDate(0, -2, 0)
		newer := activeSub(subscription.PlanDiscovery)
		newer.UserID = userID
		canceled := activeSub(subscription.PlanEscala)
		canceled.UserID = userID
		canceled.Status = subscription.StatusCanceled
		canceled.CreatedAt = testNow
		for _, s := range []*subscription.Subscription{older, newer, canceled} {
			require.NoError(t, store.Save(ctx, s))
		}

		sess := subscription.NewSession(userID, store, store, subscription.WithClock(fixedClock()))
		sub, err := sess.RefreshSubscription(ctx)
		require.NoError(t, err)
		require.NotNil(t, sub)
		assert.Equal(t, newer.ID, sub.ID)
		assert.Equal(t, subscription.LimitsFor(subscription.PlanDiscovery), sess.Limits())
	})

	t.Run("absent subscription resets to default limits", func(t *testing.T) {
		t.Parallel()

		sess, store := seededSession(t, subscription.PlanEscala, nil)
		require.NotNil(t, sess.Subscription())

		// subscription disappears from storage
		other := subscription.NewSession(sess.UserID(), subscription.NewMemoryStore(), store, subscription.WithClock(fixedClock()))
		sub, err := other.RefreshSubscription(context.Background())
		require.NoError(t, err)
		assert.Nil(t, sub)
		assert.Nil(t, other.Subscription())
		assert.Equal(t, subscription.LimitsFor(subscription.PlanSolo), other.Limits())
		assert.False(t, other.IsAvailable(subscription.ResourceKeywords))
		assert.NoError(t, other.LastError())
	})

	t.Run("storage failure is a remote fetch error", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		userID := uuid.New()
		store.On("LatestActive", mock.Anything, userID).Return(nil, errors.New("connection refused"))

		var notices []subscription.Notice
		sess := subscription.NewSession(userID, store, store,
			subscription.WithNotifier(func(_ context.Context, _ uuid.UUID, n subscription.Notice) {
				notices = append(notices, n)
			}),
		)

		sub, err := sess.RefreshSubscription(context.Background())
		assert.Nil(t, sub)
		assert.ErrorIs(t, err, subscription.ErrRemoteFetch)
		assert.ErrorIs(t, sess.LastError(), subscription.ErrRemoteFetch)
		require.Len(t, notices, 1)
		assert.Equal(t, subscription.NoticeRemoteError, notices[0].Kind)
		assert.False(t, sess.Loading())
		store.AssertExpectations(t)
	})

	t.Run("unknown plan type is rejected", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		sub := activeSub("enterprise")
		store.On("LatestActive", mock.Anything, sub.UserID).Return(sub, nil)

		sess := subscription.NewSession(sub.UserID, store, store)
		got, err := sess.RefreshSubscription(context.Background())
		assert.Nil(t, got)
		assert.ErrorIs(t, err, subscription.ErrRemoteFetch)
		assert.ErrorIs(t, err, subscription.ErrUnknownPlanType)
		assert.Nil(t, sess.Subscription())
	})
}

func TestSession_RefreshUsage(t *testing.T) {
	t.Parallel()

	t.Run("missing record yields zeros", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		sess := subscription.NewSession(uuid.New(), store, store)
		usage, err := sess.RefreshUsage(context.Background())
		require.NoError(t, err)
		for _, res := range subscription.Resources {
			assert.Equal(t, int64(0), usage[res])
		}
	})

	t.Run("storage failure keeps cached usage", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		userID := uuid.New()
		store.On("Get", mock.Anything, userID).Return(subscription.Usage{subscription.ResourceKeywords: 3}, nil).Once()
		store.On("Get", mock.Anything, userID).Return(nil, errors.New("timeout")).Once()

		sess := subscription.NewSession(userID, store, store)
		_, err := sess.RefreshUsage(context.Background())
		require.NoError(t, err)

		_, err = sess.RefreshUsage(context.Background())
		assert.ErrorIs(t, err, subscription.ErrRemoteFetch)
		assert.Equal(t, int64(3), sess.Usage()[subscription.ResourceKeywords])
		store.AssertExpectations(t)
	})
}

func TestSession_Increment(t *testing.T) {
	t.Parallel()

	t.Run("scenario A: last unit of solo keywords", func(t *testing.T) {
		t.Parallel()

		sess, store := seededSession(t, subscription.PlanSolo, subscription.Usage{subscription.ResourceKeywords: 19})
		ctx := context.Background()

		assert.True(t, sess.IsAvailable(subscription.ResourceKeywords))
		assert.True(t, sess.Increment(ctx, subscription.ResourceKeywords))
		assert.Equal(t, int64(20), sess.Usage()[subscription.ResourceKeywords])
		assert.False(t, sess.IsAvailable(subscription.ResourceKeywords))

		stored, err := store.Get(ctx, sess.UserID())
		require.NoError(t, err)
		assert.Equal(t, int64(20), stored[subscription.ResourceKeywords])
	})

	t.Run("scenario B: escala ignores usage", func(t *testing.T) {
		t.Parallel()

		usage := subscription.NewUsage()
		for _, res := range subscription.Resources {
			usage[res] = 1_000_000
		}
		sess, _ := seededSession(t, subscription.PlanEscala, usage)

		for _, res := range subscription.Resources {
			assert.True(t, sess.IsAvailable(res))
			assert.True(t, sess.Increment(context.Background(), res))
		}
	})

	t.Run("scenario C: expired status denies everything", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		sub := activeSub(subscription.PlanEscala)
		sub.Status = subscription.StatusExpired
		store.On("LatestActive", mock.Anything, sub.UserID).Return(sub, nil)
		store.On("Get", mock.Anything, sub.UserID).Return(subscription.NewUsage(), nil)

		sess := subscription.NewSession(sub.UserID, store, store, subscription.WithClock(fixedClock()))
		require.NoError(t, sess.Refresh(context.Background()))

		for _, res := range subscription.Resources {
			assert.False(t, sess.IsAvailable(res))
			assert.False(t, sess.Increment(context.Background(), res))
		}
		store.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("scenario D: concurrent increments at the last unit", func(t *testing.T) {
		t.Parallel()

		sess, _ := seededSession(t, subscription.PlanSolo, subscription.Usage{subscription.ResourceKeywords: 19})
		ctx := context.Background()

		var wg sync.WaitGroup
		results := make([]bool, 2)
		start := make(chan struct{})
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				results[i] = sess.Increment(ctx, subscription.ResourceKeywords)
			}(i)
		}
		close(start)
		wg.Wait()

		successes := 0
		for _, ok := range results {
			if ok {
				successes++
			}
		}
		assert.Equal(t, 1, successes)

		usage, err := sess.RefreshUsage(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(20), usage[subscription.ResourceKeywords])
		assert.Equal(t, int64(20), sess.Usage()[subscription.ResourceKeywords])
	})

	t.Run("denied increment does not mutate usage", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		sub := activeSub(subscription.PlanSolo)
		store.On("LatestActive", mock.Anything, sub.UserID).Return(sub, nil)
		store.On("Get", mock.Anything, sub.UserID).Return(subscription.Usage{subscription.ResourceBlogCopy: 15}, nil)

		var notices []subscription.Notice
		sess := subscription.NewSession(sub.UserID, store, store,
			subscription.WithClock(fixedClock()),
			subscription.WithNotifier(func(_ context.Context, _ uuid.UUID, n subscription.Notice) {
				notices = append(notices, n)
			}),
		)
		require.NoError(t, sess.Refresh(context.Background()))

		before := sess.Usage()
		assert.False(t, sess.Increment(context.Background(), subscription.ResourceBlogCopy))
		assert.False(t, sess.Increment(context.Background(), subscription.ResourceBlogCopy))
		assert.Equal(t, before, sess.Usage())

		require.Len(t, notices, 2)
		assert.Equal(t, subscription.NoticeLimitReached, notices[0].Kind)
		assert.Equal(t, subscription.ResourceBlogCopy, notices[0].Resource)
		assert.NoError(t, sess.LastError())
		store.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("remote failure leaves usage unchanged", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		sub := activeSub(subscription.PlanSolo)
		store.On("LatestActive", mock.Anything, sub.UserID).Return(sub, nil)
		store.On("Get", mock.Anything, sub.UserID).Return(subscription.Usage{subscription.ResourceMetadata: 7}, nil)
		store.On("Increment", mock.Anything, sub.UserID, "metadata", int64(50)).Return(int64(0), errors.New("rpc failed"))

		sess := subscription.NewSession(sub.UserID, store, store, subscription.WithClock(fixedClock()))
		require.NoError(t, sess.Refresh(context.Background()))

		err := sess.Consume(context.Background(), subscription.ResourceMetadata)
		assert.ErrorIs(t, err, subscription.ErrRemoteFetch)
		assert.Equal(t, int64(7), sess.Usage()[subscription.ResourceMetadata])
		assert.ErrorIs(t, sess.LastError(), subscription.ErrRemoteFetch)
		require.NotNil(t, sess.Notice())
		assert.Equal(t, subscription.NoticeRemoteError, sess.Notice().Kind)
		store.AssertExpectations(t)
	})

	t.Run("storage refusal is a denial", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{}
		sub := activeSub(subscription.PlanSolo)
		store.On("LatestActive", mock.Anything, sub.UserID).Return(sub, nil)
		store.On("Get", mock.Anything, sub.UserID).Return(subscription.Usage{subscription.ResourceKeywords: 10}, nil)
		store.On("Increment", mock.Anything, sub.UserID, "keywords", int64(20)).Return(int64(20), subscription.ErrLimitExceeded)

		sess := subscription.NewSession(sub.UserID, store, store, subscription.WithClock(fixedClock()))
		require.NoError(t, sess.Refresh(context.Background()))

		err := sess.Consume(context.Background(), subscription.ResourceKeywords)
		assert.ErrorIs(t, err, subscription.ErrLimitExceeded)
		assert.NotErrorIs(t, err, subscription.ErrRemoteFetch)
		assert.NoError(t, sess.LastError())
		assert.False(t, sess.IsAvailable(subscription.ResourceKeywords))
	})
}

func TestSession_Payments(t *testing.T) {
	t.Parallel()

	store := subscription.NewMemoryStore()
	userID := uuid.New()
	ctx := context.Background()

	for i, day := range []int{1, 20, 10} {
		require.NoError(t, store.Insert(ctx, &subscription.Payment{
			UserID: userID,
			Amount: subscription.Money{Amount: int64(9700 * (i + 1)), Currency: "BRL"},
			Method: "card",
			Status: "completed",
			Date:   time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC),
		}))
	}
	require.NoError(t, store.Insert(ctx, &subscription.Payment{UserID: uuid.New(), Date: testNow}))

	sess := subscription.NewSession(userID, store, store, subscription.WithPaymentStore(store))
	assert.Empty(t, sess.Payments())

	list, err := sess.FetchPayments(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 20, list[0].Date.Day())
	assert.Equal(t, 10, list[1].Date.Day())
	assert.Equal(t, 1, list[2].Date.Day())
	assert.Equal(t, list, sess.Payments())
}

type stubCheckout struct {
	got subscription.CheckoutRequest
	url string
	err error
}

func (s *stubCheckout) CreateCheckout(_ context.Context, req subscription.CheckoutRequest) (string, error) {
	s.got = req
	return s.url, s.err
}

func TestSession_InitiateCheckout(t *testing.T) {
	t.Parallel()

	t.Run("uses catalog price", func(t *testing.T) {
		t.Parallel()

		checkout := &stubCheckout{url: "https://pay.example.com/c/1"}
		store := subscription.NewMemoryStore()
		userID := uuid.New()
		sess := subscription.NewSession(userID, store, store, subscription.WithCheckout(checkout))

		url, err := sess.InitiateCheckout(context.Background(), subscription.PlanDiscovery)
		require.NoError(t, err)
		assert.Equal(t, "https://pay.example.com/c/1", url)
		assert.Equal(t, subscription.CheckoutRequest{PlanType: subscription.PlanDiscovery, Amount: 297, UserID: userID}, checkout.got)
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		sess := subscription.NewSession(uuid.New(), store, store)
		_, err := sess.InitiateCheckout(context.Background(), subscription.PlanSolo)
		assert.ErrorIs(t, err, subscription.ErrCheckoutUnavailable)
	})

	t.Run("provider failure", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		sess := subscription.NewSession(uuid.New(), store, store,
			subscription.WithCheckout(&stubCheckout{err: errors.New("gateway down")}))
		_, err := sess.InitiateCheckout(context.Background(), subscription.PlanSolo)
		assert.ErrorIs(t, err, subscription.ErrCheckoutFailed)
		assert.ErrorIs(t, sess.LastError(), subscription.ErrRemoteFetch)
	})

	t.Run("unknown plan", func(t *testing.T) {
		t.Parallel()

		store := subscription.NewMemoryStore()
		sess := subscription.NewSession(uuid.New(), store, store, subscription.WithCheckout(&stubCheckout{}))
		_, err := sess.InitiateCheckout(context.Background(), "enterprise")
		assert.ErrorIs(t, err, subscription.ErrUnknownPlanType)
	})
}

func TestSession_ResetAndSnapshot(t *testing.T) {
	t.Parallel()

	sess, _ := seededSession(t, subscription.PlanDiscovery, subscription.Usage{subscription.ResourceKeywords: 30})

	snap := sess.Snapshot()
	require.NotNil(t, snap.Subscription)
	require.NotNil(t, snap.Plan)
	assert.Equal(t, subscription.PlanDiscovery, snap.Plan.Type)
	assert.Equal(t, 20, snap.DaysLeft)
	assert.Equal(t, int64(30), snap.Usage[subscription.ResourceKeywords])
	require.Len(t, snap.Resources, len(subscription.Resources))
	for _, info := range snap.Resources {
		if info.Resource == subscription.ResourceKeywords {
			assert.Equal(t, 50, info.Percentage)
			assert.True(t, info.Available)
		}
	}

	sess.Reset()
	snap = sess.Snapshot()
	assert.Nil(t, snap.Subscription)
	assert.Nil(t, snap.Plan)
	assert.Zero(t, snap.DaysLeft)
	assert.Equal(t, subscription.LimitsFor(subscription.PlanSolo), snap.Limits)
	assert.Equal(t, int64(0), snap.Usage[subscription.ResourceKeywords])
	for _, info := range snap.Resources {
		assert.False(t, info.Available)
	}
}

func TestSession_Authorize(t *testing.T) {
	t.Parallel()

	sess, _ := seededSession(t, subscription.PlanSolo, subscription.Usage{
		subscription.ResourceBlogCopy: 15,
		subscription.ResourceMetadata: 3,
	})
	ctx := context.Background()

	require.NoError(t, sess.Authorize(ctx, subscription.ResourceMetadata))
	assert.Nil(t, sess.Notice())

	err := sess.Authorize(ctx, subscription.ResourceBlogCopy)
	assert.ErrorIs(t, err, subscription.ErrLimitExceeded)
	n := sess.Notice()
	require.NotNil(t, n)
	assert.Equal(t, subscription.NoticeLimitReached, n.Kind)
	assert.Equal(t, subscription.ResourceBlogCopy, n.Resource)
	assert.NoError(t, sess.LastError(), "denials are not remote failures")
	assert.Equal(t, int64(15), sess.Usage()[subscription.ResourceBlogCopy])
}
