package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"booksvc/internal/auth"
	"booksvc/internal/httpx"
)

// Test credentials for the three default roles.
const (
	ReaderUser = "reader"
	WriterUser = "writer"
	AdminUser  = "admin"
	Password   = "password"
)

// TestSecret signs bearer tokens in tests.
const TestSecret = "test-secret"

// Identities maps each test user to the roles it is granted.
var Identities = map[string][]httpx.Role{
	ReaderUser: {httpx.RoleReader},
	WriterUser: {httpx.RoleWriter},
	AdminUser:  {httpx.RoleReader, httpx.RoleWriter},
}

// GenerateTestToken generates a JWT token for testing
func GenerateTestToken(username string, roles ...httpx.Role) string {
	token, _, _ := auth.GenerateToken(TestSecret, username, roles, time.Hour)
	return token
}

// GenerateExpiredToken generates an expired JWT token for testing
func GenerateExpiredToken(username string, roles ...httpx.Role) string {
	token, _, _ := auth.GenerateToken(TestSecret, username, roles, -time.Hour)
	return token
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// NewRequestWithAuth creates a new HTTP request with JWT auth for testing
func NewRequestWithAuth(method, path string, body interface{}, token string) *http.Request {
	r := NewRequest(method, path, body)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// NewRequestWithBasicAuth creates a new HTTP request with basic credentials for testing
func NewRequestWithBasicAuth(method, path string, body interface{}, username, password string) *http.Request {
	r := NewRequest(method, path, body)
	r.SetBasicAuth(username, password)
	return r
}
