package config

import (
	"errors"
	"os"
	"time"
)

type Config struct {
	HTTPAddr       string
	SupabaseURL    string
	ServiceRoleKey string
	AnonKey        string
	FrontendURL    string
	Env            string
	RequestTimeout time.Duration
	HTTPTimeout    time.Duration
}

func Load() Config {
	cfg := Config{
		HTTPAddr:       getenv("HTTP_ADDR", ":3000"),
		SupabaseURL:    getenv("SUPABASE_URL", ""),
		ServiceRoleKey: getenv("SUPABASE_SERVICE_ROLE_KEY", ""),
		AnonKey:        getenv("SUPABASE_ANON_KEY", ""),
		FrontendURL:    getenv("FRONTEND_URL", ""),
		Env:            getenv("APP_ENV", "development"),
		RequestTimeout: getenvDuration("REQUEST_TIMEOUT", 30*time.Second),
		HTTPTimeout:    getenvDuration("OUTBOUND_HTTP_TIMEOUT", 15*time.Second),
	}
	// The dev-server default must never leak into a production CORS
	// allow-list; production deployments have to set FRONTEND_URL.
	if cfg.FrontendURL == "" && !cfg.IsProduction() {
		cfg.FrontendURL = "http://localhost:5173"
	}
	return cfg
}

// Validate checks that the settings required at startup are set.
func (c Config) Validate() error {
	if c.SupabaseURL == "" || c.ServiceRoleKey == "" || c.AnonKey == "" {
		return errors.New("missing Supabase environment variables: SUPABASE_URL, SUPABASE_SERVICE_ROLE_KEY and SUPABASE_ANON_KEY are required")
	}
	if c.IsProduction() && c.FrontendURL == "" {
		return errors.New("FRONTEND_URL is required when APP_ENV=production")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}
