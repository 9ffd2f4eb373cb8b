package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/seokit/pkg/jwt"
)

func TestMiddleware(t *testing.T) {
	t.Parallel()

	svc := newService(t, jwt.Config{})
	userID := uuid.New()
	token, err := svc.Issue(userID, time.Hour)
	require.NoError(t, err)

	var seen uuid.UUID
	h := jwt.Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = jwt.UserIDFromContext(r.Context())
		raw, _ := jwt.GetToken(r.Context())
		assert.Equal(t, token, raw)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + token, http.StatusNoContent},
		{"lowercase scheme", "bearer " + token, http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"basic", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, tt.name)
	}
	assert.Equal(t, userID, seen)
}

func TestMiddlewareWithConfig(t *testing.T) {
	t.Parallel()

	svc := newService(t, jwt.Config{})
	token, err := svc.Issue(uuid.New(), time.Hour)
	require.NoError(t, err)

	var handled error
	h := jwt.MiddlewareWithConfig(jwt.MiddlewareConfig{
		Service:   svc,
		Extractor: jwt.CookieTokenExtractor("access_token"),
		Skip:      func(r *http.Request) bool { return r.URL.Path == "/public" },
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			handled = err
			w.WriteHeader(http.StatusTeapot)
		},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, handled, jwt.ErrMissingToken)
}
