// Package auth handles principal authentication, the persisted session
// store, and the principal registry for the CRM. It verifies credentials
// against the registry, hands out sanitized principals (never carrying
// secret material), and keeps sessions in Redis keyed by an opaque cookie.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package auth

import (
	"fmt"
	"time"
)

// Role is the closed set of authorization levels a principal can hold.
type Role string

const (
	// RoleAdmin may manage the principal registry and reach admin views.
	RoleAdmin Role = "admin"

	// RoleVendedor is the standard sales user. Every principal created
	// through the registry starts with this role.
	RoleVendedor Role = "vendedor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleVendedor
}

// ParseRole converts a stored or submitted string into a Role, rejecting
// anything outside the enum.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Principal is the authenticated identity other packages reason about.
// The type has no secret field, so secret material cannot leak through it.
type Principal struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`

	// OwnerID scopes per-record data (leads, collections) in feature views.
	OwnerID int64 `json:"owner_id"`
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// Credential is the registry-side record. It never crosses the auth
// service boundary; callers only ever see the Principal it produces.
type Credential struct {
	ID          int64
	Email       string
	Name        string
	Role        Role
	SecretHash  string
	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// Principal returns the credential with the secret stripped.
func (c *Credential) Principal() *Principal {
	return &Principal{
		ID:      c.ID,
		Email:   c.Email,
		Name:    c.Name,
		Role:    c.Role,
		OwnerID: c.ID,
	}
}

// --- Request DTOs (bound from HTTP requests) ---

// LoginRequest holds the data submitted by the login form or JSON API.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// CreatePrincipalRequest holds the data submitted by the admin "add user"
// form or JSON API.
type CreatePrincipalRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// --- Service Input DTOs (passed from handler to service) ---

// LoginInput is the input for authenticating a principal.
type LoginInput struct {
	Email    string
	Password string
}

// CreatePrincipalInput is the input for adding a registry entry.
type CreatePrincipalInput struct {
	Name     string
	Email    string
	Password string
}

// --- Session ---

// Session is the persisted form of a Principal stored in Redis. The
// session token is the key, and this struct is the value (JSON-encoded).
type Session struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// newSession captures a principal for persistence.
func newSession(p *Principal) Session {
	return Session{
		ID:        p.ID,
		Email:     p.Email,
		Name:      p.Name,
		Role:      p.Role,
		OwnerID:   p.OwnerID,
		CreatedAt: time.Now().UTC(),
	}
}

// valid reports whether the decoded session describes a usable principal.
func (s *Session) valid() bool {
	return s.ID > 0 && s.Email != "" && s.Role.Valid()
}

// Principal rebuilds the principal held by this session.
func (s *Session) Principal() *Principal {
	return &Principal{
		ID:      s.ID,
		Email:   s.Email,
		Name:    s.Name,
		Role:    s.Role,
		OwnerID: s.OwnerID,
	}
}
