package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/subodhkmahto/student-teacher-management-system/internal/platform"
)

// Authenticator resolves a bearer token to a Principal. Every call
// re-verifies against the identity provider; tokens are never inspected or
// cached locally.
type Authenticator struct {
	identity platform.Identity
	store    platform.Store
}

func NewAuthenticator(identity platform.Identity, store platform.Store) *Authenticator {
	return &Authenticator{identity: identity, store: store}
}

type profileRow struct {
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Verify runs the gate chain core: token → provider identity → profile row.
func (a *Authenticator) Verify(ctx context.Context, token string) (*Principal, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}

	user, err := a.identity.GetUser(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if user == nil || user.ID == "" {
		return nil, ErrInvalidToken
	}

	var profile profileRow
	err = a.store.SelectOne(ctx, "profiles", platform.Query{
		Select:  "role, full_name, email",
		Filters: []platform.Filter{{Column: "id", Value: user.ID}},
	}, &profile)
	if err != nil {
		// Identity creation and profile creation are separate steps, so an
		// identity without a profile row is a reachable state.
		if platform.IsNotFound(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	email := user.Email
	if email == "" {
		email = profile.Email
	}
	return &Principal{
		ID:       user.ID,
		Email:    email,
		Role:     Role(profile.Role),
		FullName: profile.FullName,
	}, nil
}
