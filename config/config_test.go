package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
databaseURL: postgres://localhost/rentflow
jwtSecret: test-secret
policies:
  singleActiveReservation: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %q", cfg.Port)
	}
	if !cfg.Policies.SingleActiveReservation {
		t.Fatal("expected singleActiveReservation policy enabled")
	}
	if cfg.Policies.CascadeOnCarDelete {
		t.Fatal("expected cascadeOnCarDelete policy disabled by default")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
databaseURL: postgres://localhost/rentflow
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for missing jwtSecret")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
port: "8080"
databaseURL: postgres://localhost/rentflow
jwtSecret: file-secret
`)

	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Fatalf("expected env override, got %q", cfg.JWTSecret)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSOrigins)
	}
}
