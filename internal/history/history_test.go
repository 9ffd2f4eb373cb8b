package history_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seokit/internal/history"
	"github.com/dmitrymomot/seokit/pkg/mongo"
	"github.com/dmitrymomot/seokit/pkg/subscription"
)

func newRepository(t *testing.T) *history.Repository {
	t.Helper()

	url := os.Getenv("MONGODB_TEST_URL")
	if url == "" {
		t.Skip("MONGODB_TEST_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := mongo.NewWithDatabase(ctx, mongo.Config{
		ConnectionURL:  url,
		Database:       "seokit_test_" + uuid.NewString()[:8],
		ConnectTimeout: 5 * time.Second,
		RetryAttempts:  1,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = db.Client().Disconnect(context.Background())
	})

	repo := history.NewRepository(db)
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func TestRepository_SaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	repo := &history.Repository{}
	_, err := repo.Save(context.Background(), uuid.Nil, subscription.ResourceKeywords, nil, nil)
	require.ErrorIs(t, err, history.ErrInvalidEntry)

	_, err = repo.Save(context.Background(), uuid.New(), subscription.Resource("podcast"), nil, nil)
	require.ErrorIs(t, err, history.ErrInvalidEntry)
}

func TestRepository_Integration(t *testing.T) {
	t.Parallel()

	repo := newRepository(t)
	ctx := context.Background()
	user := uuid.New()
	other := uuid.New()

	first, err := repo.Save(ctx, user, subscription.ResourceKeywords,
		json.RawMessage(`{"product":"shoes"}`), json.RawMessage(`["a","b"]`))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.Save(ctx, user, subscription.ResourceKeywords,
		json.RawMessage(`{"product":"hats"}`), json.RawMessage(`{"k":1}`))
	require.NoError(t, err)
	_, err = repo.Save(ctx, user, subscription.ResourceMetadata, nil, nil)
	require.NoError(t, err)
	_, err = repo.Save(ctx, other, subscription.ResourceKeywords, nil, nil)
	require.NoError(t, err)

	list, err := repo.ListByTool(ctx, user, subscription.ResourceKeywords, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.JSONEq(t, `["a","b"]`, string(list[1].Output))
	assert.JSONEq(t, `{"product":"shoes"}`, string(list[1].Input))

	assert.ErrorIs(t, repo.Delete(ctx, other, first.ID), history.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, user, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user, first.ID), history.ErrNotFound)

	list, err = repo.ListByTool(ctx, user, subscription.ResourceKeywords, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
