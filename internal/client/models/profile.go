// Package models defines the client-side data of the storefront: the signed-in
// profile, catalog entries, cart lines and orders.
package models

import (
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)

// Profile is the authenticated user as returned by the login endpoint.
type Profile struct {
	ID        int64  `json:"id,omitempty"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      Role   `json:"role"`
}

func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// DisplayName prefers "First Last" and falls back to the username.
func (p Profile) DisplayName() string {
	full := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if full == "" {
		return p.Username
	}
	return full
}

// Session pairs the bearer token with the profile it was issued for.
type Session struct {
	Token   string
	Profile Profile
}

// Credentials are the login form values. Password is a byte slice so callers
// can wipe it once the request is sent.
type Credentials struct {
	Username string
	Password []byte
}

type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Missing returns the names of required registration fields left blank.
func (r Registration) Missing() []string {
	var out []string
	if common.IsBlank(r.Username) {
		out = append(out, "username")
	}
	if common.IsBlank(r.Email) {
		out = append(out, "email")
	}
	if r.Password == "" {
		out = append(out, "password")
	}
	return out
}
