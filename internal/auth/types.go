package auth

import (
	"errors"
	"fmt"
	"time"
)

// Role is the fixed authorisation tag carried by every principal and token.
// It is a closed set: only the constants below are valid.
type Role string

const (
	// RoleUser is a shopper account created through /api/user/signup.
	RoleUser Role = "user"

	// RoleVendor is a store account created through /api/vendor/register.
	// Only vendors may create or manage products.
	RoleVendor Role = "vendor"
)

// ValidRoles is the complete set of roles.
var ValidRoles = []Role{RoleUser, RoleVendor}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// String returns the wire form of the role.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a wire string into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Principal is an authenticated identity: a user or a vendor.
// Users and vendors share the same shape; Name and StoreName are only
// populated for vendors.
type Principal struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	Name         string    `json:"name,omitempty"`
	StoreName    string    `json:"storeName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Identity is the minimal view of a principal attached to a request once
// the auth gate has resolved it.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Identity returns the request-scoped view of the principal.
func (p *Principal) Identity() Identity {
	return Identity{ID: p.ID, Email: p.Email, Role: p.Role}
}

// Sentinel errors for auth operations.
//
// The first group are input/credential failures surfaced to clients;
// the token group is returned by TokenIssuer.
var (
	ErrMissingFields     = errors.New("all fields must be filled")
	ErrInvalidEmail      = errors.New("email is not valid")
	ErrEmailInUse        = errors.New("email already in use")
	ErrIncorrectEmail    = errors.New("incorrect email")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrPrincipalNotFound = errors.New("principal not found")
	ErrUnknownRole       = errors.New("unknown role")

	ErrTokenMissing   = errors.New("token missing")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenExpired   = errors.New("token expired")
)
