package auth

import (
	"context"
	"errors"
	"time"

	"booksvc/internal/httpx"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
)

// Service authenticates callers against the configured users and issues tokens.
type Service struct {
	secret string
	ttl    time.Duration
	users  map[string]User
}

var _ httpx.Authenticator = (*Service)(nil)

func NewService(secret string, ttl time.Duration, users []User) *Service {
	byName := make(map[string]User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &Service{secret: secret, ttl: ttl, users: byName}
}

func (s *Service) AuthenticateBasic(_ context.Context, username, password string) (httpx.Identity, error) {
	u, ok := s.users[username]
	if !ok || !VerifyPassword(u.PasswordHash, password) {
		return httpx.Identity{}, ErrUnauthorized
	}
	return httpx.Identity{Username: u.Username, Roles: u.Roles}, nil
}

func (s *Service) AuthenticateBearer(_ context.Context, token string) (httpx.Identity, error) {
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return httpx.Identity{}, errors.Join(ErrUnauthorized, err)
	}
	return httpx.Identity{Username: claims.Sub, Roles: claims.Roles}, nil
}

// IssueToken returns a bearer token carrying id's roles.
func (s *Service) IssueToken(id httpx.Identity) (string, time.Time, error) {
	return GenerateToken(s.secret, id.Username, id.Roles, s.ttl)
}
