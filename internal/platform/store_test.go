package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStoreSelectEncodesQuery(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"s1","grade":"A"}]`))
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, "service-key")
	var rows []map[string]string
	err := store.Select(context.Background(), "students", Query{
		Select:  "*",
		Filters: []Filter{{Column: "id", Value: "s1"}},
		Order:   "created_at.desc",
	}, &rows)
	if err != nil {
		t.Fatalf("select error: %v", err)
	}
	if gotPath != "/rest/v1/students" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if got := gotQuery["select"]; len(got) != 1 || got[0] != "*" {
		t.Fatalf("unexpected select param %v", gotQuery)
	}
	if got := gotQuery["id"]; len(got) != 1 || got[0] != "eq.s1" {
		t.Fatalf("unexpected filter param %v", gotQuery)
	}
	if got := gotQuery["order"]; len(got) != 1 || !strings.HasPrefix(got[0], "created_at.desc") {
		t.Fatalf("unexpected order param %v", gotQuery)
	}
	if gotAuth != "Bearer service-key" {
		t.Fatalf("unexpected authorization %s", gotAuth)
	}
	if len(rows) != 1 || rows[0]["grade"] != "A" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestStoreInsertRequestsRepresentation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.Contains(r.Header.Get("Prefer"), "return=representation") {
			t.Errorf("missing Prefer header, got %q", r.Header.Get("Prefer"))
		}
		if !strings.Contains(r.Header.Get("Accept"), "application/vnd.pgrst.object+json") {
			t.Errorf("missing single-object Accept header, got %q", r.Header.Get("Accept"))
		}
		var row map[string]string
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			t.Errorf("body decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(row)
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, "service-key")
	var created map[string]string
	if err := store.Insert(context.Background(), "courses", map[string]string{"name": "Algebra"}, &created); err != nil {
		t.Fatalf("insert error: %v", err)
	}
	if created["name"] != "Algebra" {
		t.Fatalf("unexpected representation %v", created)
	}
}

func TestStoreUniqueViolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint \"teachers_email_key\""}`))
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, "service-key")
	err := store.Insert(context.Background(), "teachers", map[string]string{"email": "dup@x.com"}, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsNotFound(err) {
		t.Fatalf("unique violation misread as not found")
	}
	if !strings.Contains(Message(err), "duplicate key value") {
		t.Fatalf("message not preserved: %q", Message(err))
	}
}

func TestStoreNotFoundSingleObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotAcceptable)
		_, _ = w.Write([]byte(`{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`))
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, "service-key")
	var row map[string]string
	err := store.SelectOne(context.Background(), "profiles", Query{Filters: []Filter{{Column: "id", Value: "missing"}}}, &row)
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
