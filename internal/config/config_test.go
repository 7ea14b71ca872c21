package config

import (
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":13000")
	t.Setenv("SUPABASE_URL", "https://demo.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	t.Setenv("FRONTEND_URL", "https://app.example.com")
	t.Setenv("APP_ENV", "production")
	t.Setenv("REQUEST_TIMEOUT", "45s")

	cfg := Load()
	if cfg.HTTPAddr != ":13000" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.SupabaseURL != "https://demo.supabase.co" {
		t.Fatalf("expected SUPABASE_URL override, got %s", cfg.SupabaseURL)
	}
	if cfg.ServiceRoleKey != "service-key" {
		t.Fatalf("expected SUPABASE_SERVICE_ROLE_KEY override, got %s", cfg.ServiceRoleKey)
	}
	if cfg.AnonKey != "anon-key" {
		t.Fatalf("expected SUPABASE_ANON_KEY override, got %s", cfg.AnonKey)
	}
	if cfg.FrontendURL != "https://app.example.com" {
		t.Fatalf("expected FRONTEND_URL override, got %s", cfg.FrontendURL)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production mode")
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Fatalf("expected REQUEST_TIMEOUT 45s, got %s", cfg.RequestTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateMissingKeys(t *testing.T) {
	cfg := Config{SupabaseURL: "https://demo.supabase.co"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected error for missing platform keys")
	}
}

func TestFrontendURLDefaultIsDevelopmentOnly(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://demo.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	t.Setenv("FRONTEND_URL", "")

	t.Setenv("APP_ENV", "development")
	cfg := Load()
	if cfg.FrontendURL != "http://localhost:5173" {
		t.Fatalf("expected dev fallback frontend URL, got %q", cfg.FrontendURL)
	}

	t.Setenv("APP_ENV", "production")
	cfg = Load()
	if cfg.FrontendURL != "" {
		t.Fatalf("dev fallback must not apply in production, got %q", cfg.FrontendURL)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for production without FRONTEND_URL")
	}
}
