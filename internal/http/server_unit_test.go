package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/subodhkmahto/student-teacher-management-system/internal/auth"
	"github.com/subodhkmahto/student-teacher-management-system/internal/config"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":                   "",
		"Bearer":             "",
		"Bearer abc":         "abc",
		"bearer abc":         "abc",
		"Bearer  abc ":       "abc",
		"Basic dXNlcjpwYXNz": "",
		"Token abc":          "",
	}
	for header, want := range cases {
		if got := bearerToken(header); got != want {
			t.Fatalf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestCompactRowDropsEmptyStrings(t *testing.T) {
	row := compactRow(platformRow{
		"full_name": "A",
		"email":     "",
		"grade":     "10",
		"credits":   0,
	})
	if _, ok := row["email"]; ok {
		t.Fatalf("empty string should be dropped")
	}
	if row["full_name"] != "A" || row["grade"] != "10" {
		t.Fatalf("non-empty values must survive: %v", row)
	}
	if _, ok := row["credits"]; !ok {
		t.Fatalf("non-string zero values must survive")
	}
}

func withPrincipal(r *http.Request, principal *auth.Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey{}, principal))
}

func runGates(t *testing.T, principal *auth.Principal, gates ...func(http.Handler) http.Handler) int {
	t.Helper()
	reached := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	var handler http.Handler = reached
	for i := len(gates) - 1; i >= 0; i-- {
		handler = gates[i](handler)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if principal != nil {
		req = withPrincipal(req, principal)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthorizeRequiresPrincipal(t *testing.T) {
	s := NewServer(config.Config{}, nil, nil, nil)
	if code := runGates(t, nil, s.authorize(auth.RoleTeacher)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without principal, got %d", code)
	}
}

func TestAuthorizeRoleCheck(t *testing.T) {
	s := NewServer(config.Config{}, nil, nil, nil)
	student := &auth.Principal{ID: "u1", Role: auth.RoleStudent}
	teacher := &auth.Principal{ID: "u2", Role: auth.RoleTeacher}

	if code := runGates(t, student, s.authorize(auth.RoleTeacher)); code != http.StatusForbidden {
		t.Fatalf("expected 403 for student, got %d", code)
	}
	if code := runGates(t, teacher, s.authorize(auth.RoleTeacher)); code != http.StatusOK {
		t.Fatalf("expected 200 for teacher, got %d", code)
	}
	if code := runGates(t, student, s.authorize(auth.RoleTeacher, auth.RoleStudent)); code != http.StatusOK {
		t.Fatalf("expected 200 for student in widened allow-list, got %d", code)
	}
}

// Composing a strict gate with a wider one must decide exactly like the
// strict gate alone, whichever order they run in.
func TestAuthorizeCompositionOrderIndependent(t *testing.T) {
	s := NewServer(config.Config{}, nil, nil, nil)
	strict := s.authorize(auth.RoleTeacher)
	wide := s.authorize(auth.RoleTeacher, auth.RoleStudent)

	principals := []*auth.Principal{
		{ID: "u1", Role: auth.RoleStudent},
		{ID: "u2", Role: auth.RoleTeacher},
		{ID: "u3", Role: auth.RoleAdmin},
	}
	for _, principal := range principals {
		alone := runGates(t, principal, strict)
		strictFirst := runGates(t, principal, strict, wide)
		wideFirst := runGates(t, principal, wide, strict)
		if strictFirst != alone || wideFirst != alone {
			t.Fatalf("role %s: composition changed the decision: alone=%d strictFirst=%d wideFirst=%d",
				principal.Role, alone, strictFirst, wideFirst)
		}
	}
}

func newTestRouter(gate func(http.Handler) http.Handler, handler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.With(gate).Get("/{id}", handler.ServeHTTP)
	return r
}

func TestRequireOwner(t *testing.T) {
	s := NewServer(config.Config{}, nil, nil, nil)
	gate := s.requireOwner("id")

	run := func(principal *auth.Principal, path string) int {
		reached := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		router := newTestRouter(gate, reached)
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if principal != nil {
			req = withPrincipal(req, principal)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	student := &auth.Principal{ID: "user-1", Role: auth.RoleStudent}
	if code := run(student, "/user-1"); code != http.StatusOK {
		t.Fatalf("owner must pass, got %d", code)
	}
	if code := run(student, "/user-2"); code != http.StatusForbidden {
		t.Fatalf("non-owner must be denied, got %d", code)
	}
	// Case-sensitive equality.
	if code := run(student, "/USER-1"); code != http.StatusForbidden {
		t.Fatalf("ownership comparison must be case-sensitive, got %d", code)
	}
	for _, role := range []auth.Role{auth.RoleTeacher, auth.RoleAdmin} {
		privileged := &auth.Principal{ID: "someone-else", Role: role}
		if code := run(privileged, "/user-1"); code != http.StatusOK {
			t.Fatalf("role %s must bypass ownership, got %d", role, code)
		}
	}
	if code := run(nil, "/user-1"); code != http.StatusUnauthorized {
		t.Fatalf("missing principal must be 401, got %d", code)
	}
}
