package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubAuthenticator struct{}

func (stubAuthenticator) AuthenticateBasic(_ context.Context, username, password string) (Identity, error) {
	if username == "writer" && password == "secret" {
		return Identity{Username: "writer", Roles: []Role{RoleWriter}}, nil
	}
	return Identity{}, errors.New("bad credentials")
}

func (stubAuthenticator) AuthenticateBearer(_ context.Context, token string) (Identity, error) {
	if token == "good" {
		return Identity{Username: "reader", Roles: []Role{RoleReader}}, nil
	}
	return Identity{}, errors.New("bad token")
}

func TestAuthMiddleware(t *testing.T) {
	var got Identity
	var authenticated bool
	handler := AuthMiddleware(stubAuthenticator{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, authenticated = IdentityFrom(r)
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name           string
		setup          func(r *http.Request)
		expectedStatus int
		expectedUser   string
		expectedMethod AuthMethod
	}{
		{"anonymous passes through", func(r *http.Request) {}, http.StatusOK, "", ""},
		{"basic", func(r *http.Request) { r.SetBasicAuth("writer", "secret") }, http.StatusOK, "writer", AuthBasic},
		{"bad basic", func(r *http.Request) { r.SetBasicAuth("writer", "nope") }, http.StatusUnauthorized, "", ""},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK, "reader", AuthBearer},
		{"bad bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized, "", ""},
		{"unknown scheme", func(r *http.Request) { r.Header.Set("Authorization", "Digest xyz") }, http.StatusUnauthorized, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, authenticated = Identity{}, false
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedUser != "", authenticated)
			assert.Equal(t, tt.expectedUser, got.Username)
			assert.Equal(t, tt.expectedMethod, got.Method)
			if w.Code == http.StatusUnauthorized {
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(RoleWriter)(okHandler)

	tests := []struct {
		name           string
		identity       *Identity
		expectedStatus int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"missing role", &Identity{Username: "r", Roles: []Role{RoleReader}}, http.StatusForbidden},
		{"granted", &Identity{Username: "w", Roles: []Role{RoleWriter}}, http.StatusOK},
		{"admin", &Identity{Username: "a", Roles: []Role{RoleReader, RoleWriter}}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPut, "/books", nil)
			if tt.identity != nil {
				r = r.WithContext(ContextWithIdentity(r.Context(), *tt.identity))
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
