package auth

import (
	"fmt"
	"strings"

	"booksvc/internal/httpx"
)

// User is a configured account allowed to call the API.
type User struct {
	Username     string
	PasswordHash string
	Roles        []httpx.Role
}

// ParseUsers reads a comma separated list of name:bcrypthash:ROLE|ROLE entries.
func ParseUsers(list string) ([]User, error) {
	var users []User
	seen := make(map[string]bool)
	for _, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("user entry %q: want name:hash:roles", entry)
		}
		if seen[parts[0]] {
			return nil, fmt.Errorf("user %q configured twice", parts[0])
		}
		seen[parts[0]] = true

		roles, err := parseRoles(parts[2])
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", parts[0], err)
		}
		users = append(users, User{Username: parts[0], PasswordHash: parts[1], Roles: roles})
	}
	return users, nil
}

func parseRoles(s string) ([]httpx.Role, error) {
	var roles []httpx.Role
	for _, r := range strings.Split(s, "|") {
		switch role := httpx.Role(strings.ToUpper(strings.TrimSpace(r))); role {
		case httpx.RoleReader, httpx.RoleWriter:
			roles = append(roles, role)
		default:
			return nil, fmt.Errorf("unknown role %q", r)
		}
	}
	return roles, nil
}

// DevelopmentUsers returns the reader, writer and admin accounts, all sharing
// password. Only meant for local runs without a USERS setting.
func DevelopmentUsers(password string) ([]User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return []User{
		{Username: "reader", PasswordHash: hash, Roles: []httpx.Role{httpx.RoleReader}},
		{Username: "writer", PasswordHash: hash, Roles: []httpx.Role{httpx.RoleWriter}},
		{Username: "admin", PasswordHash: hash, Roles: []httpx.Role{httpx.RoleReader, httpx.RoleWriter}},
	}, nil
}
