package auth

import (
	"testing"
	"time"

	"booksvc/internal/httpx"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	token, expiresAt, err := GenerateToken("test-secret-key", "reader", []httpx.Role{httpx.RoleReader}, time.Hour)

	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)
}

func TestParseToken(t *testing.T) {
	secret := "test-secret-key"
	roles := []httpx.Role{httpx.RoleReader, httpx.RoleWriter}

	t.Run("valid token", func(t *testing.T) {
		token, _, err := GenerateToken(secret, "admin", roles, time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken(secret, token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Sub)
		assert.Equal(t, roles, claims.Roles)
	})

	t.Run("invalid signature", func(t *testing.T) {
		token, _, err := GenerateToken("wrong-secret", "admin", roles, time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken(secret, token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("expired token", func(t *testing.T) {
		token, _, err := GenerateToken(secret, "admin", roles, -time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken(secret, token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
		assert.Nil(t, claims)
	})

	t.Run("unexpected signing method", func(t *testing.T) {
		c := Claims{Sub: "admin", Roles: roles, RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		claims, err := ParseToken(secret, token)
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("malformed token", func(t *testing.T) {
		claims, err := ParseToken(secret, "not.a.valid.token")
		assert.Error(t, err)
		assert.Nil(t, claims)
	})
}

func TestVerifyPassword(t *testing.T) {
	password := "testpassword123"

	hash, err := HashPassword(password)
	require.NoError(t, err)
	assert.NotEqual(t, password, hash)

	assert.True(t, VerifyPassword(hash, password))
	assert.False(t, VerifyPassword(hash, "wrongpassword"))
}
