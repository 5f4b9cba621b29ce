package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"
)

// Authenticator resolves request credentials to a caller identity.
type Authenticator interface {
	AuthenticateBasic(ctx context.Context, username, password string) (Identity, error)
	AuthenticateBearer(ctx context.Context, token string) (Identity, error)
}

// AuthMiddleware attaches the caller identity to the request context. Requests
// without credentials pass through anonymously and are rejected by RequireRole;
// requests with bad credentials are rejected here.
func AuthMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				id  Identity
				err error
			)
			authHeader := r.Header.Get("Authorization")
			switch {
			case authHeader == "":
				next.ServeHTTP(w, r)
				return
			case strings.HasPrefix(authHeader, "Bearer "):
				id, err = authn.AuthenticateBearer(r.Context(), strings.TrimPrefix(authHeader, "Bearer "))
				id.Method = AuthBearer
			default:
				username, password, ok := r.BasicAuth()
				if !ok {
					unauthorized(w)
					return
				}
				id, err = authn.AuthenticateBasic(r.Context(), username, password)
				id.Method = AuthBasic
			}

			log := hlog.FromRequest(r)
			if err != nil {
				log.Debug().Err(err).Msg("authentication failed")
				unauthorized(w)
				return
			}
			log.Debug().Str("username", id.Username).Interface("roles", id.Roles).Msg("authentication succeeded")
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole guards a handler: 401 without an identity, 403 without the role.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r)
			if !ok {
				unauthorized(w)
				return
			}
			if !id.HasRole(role) {
				Text(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="booksvc"`)
	Text(w, http.StatusUnauthorized, "unauthorized")
}
