// Package auth implements the authentication/authorization core: bearer
// token verification against the identity provider, profile resolution from
// the store, and the account flows (registration saga, login, password
// recovery) that sit behind the /api/auth routes.
package auth

import "errors"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Principal is the authenticated identity plus resolved role for one
// request. It is built per request and never persisted.
type Principal struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	FullName string `json:"fullName"`
}

// BypassesOwnership reports whether the principal's role skips ownership
// checks entirely.
func (p *Principal) BypassesOwnership() bool {
	return p.Role == RoleTeacher || p.Role == RoleAdmin
}

// Gate failure modes. The HTTP layer maps these onto status codes.
var (
	ErrMissingToken    = errors.New("no token provided")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrProfileNotFound = errors.New("profile not found")
	ErrLookupFailed    = errors.New("profile lookup failed")
)
