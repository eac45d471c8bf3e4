package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/checklist/internal/domain/session"
	"github.com/rpggio/checklist/internal/repository"
	"github.com/stretchr/testify/require"
)

type testResolver struct {
	tokenToUser map[string]string
}

func (r *testResolver) GetUser(_ context.Context, token string) (*session.User, error) {
	userID, ok := r.tokenToUser[token]
	if !ok {
		return nil, repository.ErrUnauthorized
	}
	return &session.User{ID: userID}, nil
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &testResolver{tokenToUser: map[string]string{"token": "u1"}}

	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "u1", userID)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	resolver := &testResolver{tokenToUser: map[string]string{}}

	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"", "Bearer ", "Bearer other", "Basic token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}
