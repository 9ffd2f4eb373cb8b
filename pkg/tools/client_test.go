package tools_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seokit/pkg/subscription"
	"github.com/dmitrymomot/seokit/pkg/tools"
	"github.com/dmitrymomot/seokit/pkg/webhook"
)

type mockCaller struct {
	mock.Mock
}

func (m *mockCaller) Call(ctx context.Context, endpoint string, data any, opts ...webhook.CallOption) (*webhook.Response, error) {
	args := m.Called(ctx, endpoint, data)
	resp, _ := args.Get(0).(*webhook.Response)
	return resp, args.Error(1)
}

func TestConfig_Endpoints(t *testing.T) {
	t.Parallel()

	cfg := tools.Config{
		KeywordsURL: "http://tools.local/keywords",
		MetadataURL: "http://tools.local/metadata",
	}
	assert.Equal(t, map[subscription.Resource]string{
		subscription.ResourceKeywords: "http://tools.local/keywords",
		subscription.ResourceMetadata: "http://tools.local/metadata",
	}, cfg.Endpoints())
}

func TestClient_Invoke(t *testing.T) {
	t.Parallel()

	t.Run("posts input and returns output", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"product":"shoes"}`, string(body))
			assert.NotEmpty(t, r.Header.Get(webhook.HeaderSignature))
			_, _ = io.WriteString(w, `{"keywords":["running shoes"]}`)
		}))
		defer srv.Close()

		client := tools.New(tools.Config{
			KeywordsURL:   srv.URL,
			SigningSecret: "s3cret",
			Timeout:       time.Second,
		})
		require.True(t, client.Configured(subscription.ResourceKeywords))

		res, err := client.Invoke(context.Background(), subscription.ResourceKeywords, json.RawMessage(`{"product":"shoes"}`))
		require.NoError(t, err)
		assert.Equal(t, subscription.ResourceKeywords, res.Resource)
		assert.JSONEq(t, `{"keywords":["running shoes"]}`, string(res.Output))
		assert.Equal(t, 1, res.Attempts)
	})

	t.Run("not configured", func(t *testing.T) {
		t.Parallel()

		client := tools.New(tools.Config{})
		assert.False(t, client.Configured(subscription.ResourceBlogCopy))
		_, err := client.Invoke(context.Background(), subscription.ResourceBlogCopy, json.RawMessage(`{}`))
		require.ErrorIs(t, err, tools.ErrToolNotConfigured)
	})

	t.Run("unknown resource", func(t *testing.T) {
		t.Parallel()

		client := tools.New(tools.Config{})
		_, err := client.Invoke(context.Background(), subscription.Resource("podcast"), json.RawMessage(`{}`))
		require.ErrorIs(t, err, subscription.ErrUnknownResource)
	})

	t.Run("input must be an object", func(t *testing.T) {
		t.Parallel()

		client := tools.New(tools.Config{MetadataURL: "http://tools.local/m"})
		for _, in := range []string{`[]`, `"x"`, `null`, `{`} {
			_, err := client.Invoke(context.Background(), subscription.ResourceMetadata, json.RawMessage(in))
			assert.ErrorIs(t, err, tools.ErrInvalidInput, in)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		t.Parallel()

		caller := &mockCaller{}
		caller.On("Call", mock.Anything, "http://tools.local/m", mock.Anything).
			Return(nil, webhook.ErrCallFailed).Once()

		client := tools.New(tools.Config{MetadataURL: "http://tools.local/m"}, tools.WithCaller(caller))
		_, err := client.Invoke(context.Background(), subscription.ResourceMetadata, json.RawMessage(`{"url":"x"}`))
		require.ErrorIs(t, err, tools.ErrToolFailed)
		require.ErrorIs(t, err, webhook.ErrCallFailed)
		caller.AssertExpectations(t)
	})

	t.Run("open circuit", func(t *testing.T) {
		t.Parallel()

		caller := &mockCaller{}
		caller.On("Call", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, webhook.ErrCircuitOpen).Once()

		client := tools.New(tools.Config{MetadataURL: "http://tools.local/m"}, tools.WithCaller(caller))
		_, err := client.Invoke(context.Background(), subscription.ResourceMetadata, json.RawMessage(`{}`))
		require.ErrorIs(t, err, tools.ErrToolUnavailable)
	})
}
