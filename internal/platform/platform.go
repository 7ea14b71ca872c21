// Package platform contains the outbound clients for the hosted
// database-as-a-service platform: a GoTrue-style identity API and a
// PostgREST-style table API. Both are expressed as interfaces so the
// HTTP layer can be exercised against in-memory fakes.
package platform

import "context"

// User is an identity as known to the provider.
type User struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	UserMetadata map[string]string `json:"user_metadata,omitempty"`
}

// Session is issued by the provider on sign-in. Tokens are opaque to this
// backend; they are only ever echoed back to the provider for verification.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Identity covers the provider operations this backend consumes.
type Identity interface {
	CreateUser(ctx context.Context, email, password, fullName, role string) (*User, error)
	DeleteUser(ctx context.Context, id string) error
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, token string) error
	GetUser(ctx context.Context, token string) (*User, error)
	SendPasswordReset(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, token, newPassword string) error
	ResendVerification(ctx context.Context, email string) error
}

// Filter is an equality filter on a single column.
type Filter struct {
	Column string
	Value  string
}

// Query shapes a table read or the row selection of a write. Select may use
// the platform's embedded-resource syntax, e.g. "id, courses(name, code)".
type Query struct {
	Select  string
	Filters []Filter
	Order   string // e.g. "created_at.desc"
}

// Store covers row-level access to the platform tables. Writes that return
// a representation decode it into dest; passing a nil dest discards it.
type Store interface {
	Select(ctx context.Context, table string, q Query, dest interface{}) error
	SelectOne(ctx context.Context, table string, q Query, dest interface{}) error
	Insert(ctx context.Context, table string, row, dest interface{}) error
	Update(ctx context.Context, table string, q Query, patch, dest interface{}) error
	Delete(ctx context.Context, table string, q Query) error
}
