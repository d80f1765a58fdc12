package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"API_FIRESTORE_PROJECT_ID": "muebleria-test",
			"API_AUTH_JWT_SECRET":      "super-secret",
		}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Fatalf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Fatalf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Auth.Issuer != "muebleria-api" {
		t.Fatalf("Auth.Issuer = %q, want muebleria-api", cfg.Auth.Issuer)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("Auth.TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Events.ProjectID != "muebleria-test" {
		t.Fatalf("Events.ProjectID should default to Firestore project, got %q", cfg.Events.ProjectID)
	}
	if cfg.Events.Topic != "order-events" {
		t.Fatalf("Events.Topic = %q, want order-events", cfg.Events.Topic)
	}
	if cfg.Security.Environment != "local" {
		t.Fatalf("Security.Environment = %q, want local", cfg.Security.Environment)
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(map[string]string{
			"API_SERVER_PORT":          "9090",
			"API_SERVER_READ_TIMEOUT":  "5s",
			"API_FIRESTORE_PROJECT_ID": "muebleria-prod",
			"API_AUTH_JWT_SECRET":      "super-secret",
			"API_AUTH_TOKEN_TTL":       "30m",
			"API_EVENTS_PROJECT_ID":    "events-prod",
			"API_EVENTS_TOPIC":         "orders",
			"API_SECURITY_ENVIRONMENT": "Production",
		}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Fatalf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("Server.ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Fatalf("Auth.TokenTTL = %v, want 30m", cfg.Auth.TokenTTL)
	}
	if cfg.Events.ProjectID != "events-prod" {
		t.Fatalf("Events.ProjectID = %q, want events-prod", cfg.Events.ProjectID)
	}
	if cfg.Events.Topic != "orders" {
		t.Fatalf("Events.Topic = %q, want orders", cfg.Events.Topic)
	}
	if cfg.Security.Environment != "production" {
		t.Fatalf("Security.Environment = %q, want production", cfg.Security.Environment)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(map[string]string{}))
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}

	fields := validationErr.Fields()
	wantMissing := map[string]bool{"Firestore.ProjectID": false, "Auth.JWTSecret": false}
	for _, field := range fields {
		if _, ok := wantMissing[field]; ok {
			wantMissing[field] = true
		}
	}
	for field, seen := range wantMissing {
		if !seen {
			t.Fatalf("expected %s in missing fields, got %v", field, fields)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	contents := "# local overrides\nexport API_SERVER_PORT=7001\nAPI_FIRESTORE_PROJECT_ID=\"muebleria-local\"\nAPI_AUTH_JWT_SECRET='dev-secret'\n"
	if err := os.WriteFile(envFile, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(WithoutSystemEnv(), WithEnvFile(envFile))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "7001" {
		t.Fatalf("Server.Port = %q, want 7001", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "muebleria-local" {
		t.Fatalf("Firestore.ProjectID = %q, want muebleria-local", cfg.Firestore.ProjectID)
	}
	if cfg.Auth.JWTSecret != "dev-secret" {
		t.Fatalf("Auth.JWTSecret = %q, want dev-secret", cfg.Auth.JWTSecret)
	}
}

func TestLoadEnvMapPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("API_SERVER_PORT=7001\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(
		WithoutSystemEnv(),
		WithEnvFile(envFile),
		WithEnvMap(map[string]string{
			"API_SERVER_PORT":          "9000",
			"API_FIRESTORE_PROJECT_ID": "muebleria-test",
			"API_AUTH_JWT_SECRET":      "super-secret",
		}),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != "9000" {
		t.Fatalf("env map should win over .env, got port %q", cfg.Server.Port)
	}
}
