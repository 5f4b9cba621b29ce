package httpx

import (
	"context"
	"net/http"
	"slices"
)

type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "requestID"
)

// Role names an authority granted to a caller.
type Role string

const (
	RoleReader Role = "READER"
	RoleWriter Role = "WRITER"
)

// AuthMethod records which credentials established an Identity.
type AuthMethod string

const (
	AuthBasic  AuthMethod = "basic"
	AuthBearer AuthMethod = "bearer"
)

// Identity is the authenticated caller of a request.
type Identity struct {
	Username string
	Roles    []Role
	Method   AuthMethod
}

// HasRole reports whether the identity was granted role.
func (i Identity) HasRole(role Role) bool {
	return slices.Contains(i.Roles, role)
}

// IdentityFrom retrieves the caller identity from the request context.
func IdentityFrom(r *http.Request) (Identity, bool) {
	id, ok := r.Context().Value(identityKey).(Identity)
	return id, ok
}

// ContextWithIdentity returns a new context carrying the caller identity.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// RequestIDFrom retrieves the request id set by RequestIDMiddleware.
func RequestIDFrom(r *http.Request) string {
	if v, ok := r.Context().Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithRequestID returns a new context carrying the request id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}
