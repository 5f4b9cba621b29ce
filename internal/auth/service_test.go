package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"booksvc/internal/httpx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	users, err := DevelopmentUsers("password")
	require.NoError(t, err)
	return NewService("test-secret", time.Hour, users)
}

func TestService_AuthenticateBasic(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id, err := svc.AuthenticateBasic(ctx, "admin", "password")
	require.NoError(t, err)
	assert.Equal(t, "admin", id.Username)
	assert.True(t, id.HasRole(httpx.RoleReader))
	assert.True(t, id.HasRole(httpx.RoleWriter))

	_, err = svc.AuthenticateBasic(ctx, "admin", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.AuthenticateBasic(ctx, "nobody", "password")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestService_AuthenticateBearer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, _, err := svc.IssueToken(httpx.Identity{Username: "writer", Roles: []httpx.Role{httpx.RoleWriter}})
	require.NoError(t, err)

	id, err := svc.AuthenticateBearer(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "writer", id.Username)
	assert.Equal(t, []httpx.Role{httpx.RoleWriter}, id.Roles)

	_, err = svc.AuthenticateBearer(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestHTTPHandler_Token(t *testing.T) {
	svc := newTestService(t)
	mux := http.NewServeMux()
	NewHTTPHandler(svc).Routes(mux)
	handler := httpx.AuthMiddleware(svc)(mux)

	t.Run("basic credentials get a token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
		r.SetBasicAuth("reader", "password")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var resp TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.InDelta(t, 3600, resp.ExpiresIn, 2)

		id, err := svc.AuthenticateBearer(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, []httpx.Role{httpx.RoleReader}, id.Roles)
	})

	t.Run("anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/token", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("bearer token cannot mint another", func(t *testing.T) {
		token, _, err := svc.IssueToken(httpx.Identity{Username: "reader", Roles: []httpx.Role{httpx.RoleReader}})
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("bad password", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/auth/token", nil)
		r.SetBasicAuth("reader", "nope")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
