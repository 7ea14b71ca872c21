package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/subodhkmahto/student-teacher-management-system/internal/platform"
	"github.com/subodhkmahto/student-teacher-management-system/internal/platform/platformtest"
)

func TestVerifyMissingToken(t *testing.T) {
	authenticator := NewAuthenticator(platformtest.NewFakeIdentity(), platformtest.NewFakeStore())
	for _, token := range []string{"", "   "} {
		if _, err := authenticator.Verify(context.Background(), token); !errors.Is(err, ErrMissingToken) {
			t.Fatalf("expected ErrMissingToken for %q, got %v", token, err)
		}
	}
}

func TestVerifyInvalidToken(t *testing.T) {
	authenticator := NewAuthenticator(platformtest.NewFakeIdentity(), platformtest.NewFakeStore())
	if _, err := authenticator.Verify(context.Background(), "tok-unknown"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyProfileNotFound(t *testing.T) {
	identity := platformtest.NewFakeIdentity()
	store := platformtest.NewFakeStore()
	// Identity exists at the provider but the profile row was never created.
	token := identity.MintToken("orphan-id")

	authenticator := NewAuthenticator(identity, store)
	if _, err := authenticator.Verify(context.Background(), token); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestVerifyLookupFailed(t *testing.T) {
	identity := platformtest.NewFakeIdentity()
	store := platformtest.NewFakeStore()
	token := identity.MintToken("user-1")
	store.FailNext["profiles"] = &platform.Error{Status: 500, Message: "connection reset"}

	authenticator := NewAuthenticator(identity, store)
	if _, err := authenticator.Verify(context.Background(), token); !errors.Is(err, ErrLookupFailed) {
		t.Fatalf("expected ErrLookupFailed, got %v", err)
	}
}

func TestVerifyAttachesStoredRole(t *testing.T) {
	identity := platformtest.NewFakeIdentity()
	store := platformtest.NewFakeStore()
	token := identity.MintToken("user-1")
	store.Seed("profiles", platformtest.Row{
		"id":        "user-1",
		"email":     "a@x.com",
		"full_name": "A",
		"role":      "teacher",
	})

	authenticator := NewAuthenticator(identity, store)
	principal, err := authenticator.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if principal.ID != "user-1" {
		t.Fatalf("unexpected principal id %s", principal.ID)
	}
	if principal.Role != RoleTeacher {
		t.Fatalf("expected stored role teacher, got %s", principal.Role)
	}
	if principal.FullName != "A" {
		t.Fatalf("unexpected full name %s", principal.FullName)
	}
}

func TestBypassesOwnership(t *testing.T) {
	cases := map[Role]bool{
		RoleStudent: false,
		RoleTeacher: true,
		RoleAdmin:   true,
	}
	for role, want := range cases {
		principal := &Principal{ID: "user-1", Role: role}
		if principal.BypassesOwnership() != want {
			t.Fatalf("role %s: expected bypass=%v", role, want)
		}
	}
}
