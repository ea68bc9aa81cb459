// Package domain contains the core business entities for folio.
// These are plain Go structs with no storage or transport dependencies,
// representing the identities and content collections the API manages.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the coarse permission class embedded in an identity and its tokens.
type Role string

const (
	// RoleAdmin may mutate every content collection.
	RoleAdmin Role = "ADMIN"

	// RoleReader may only read public content.
	RoleReader Role = "READER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleReader
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts s into a Role. Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// User represents an identity that can sign in to the API.
// The current deployment holds exactly one: the bootstrapped administrator.
type User struct {
	// ID is the unique identifier for the user.
	ID uuid.UUID `json:"id"`

	// Email is the unique login name.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// Role determines which routes the user may call.
	Role Role `json:"role"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`
}

// NewUser creates a new User with a fresh ID.
func NewUser(email, passwordHash string, role Role) *User {
	return &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
}

// NormalizeEmail returns email in the form identities are stored under.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdmin returns true if the user holds the administrator role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
