package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesEnvOverYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte(`
server:
  port: "7000"
  env: development
postgres:
  url: postgres://from-yaml
auth:
  jwtSecret: yaml-secret
quiz:
  ttl: 5m
`)
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("POSTGRES_URL", "postgres://from-env")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Fatalf("expected yaml port, got %q", cfg.Server.Port)
	}
	if cfg.Postgres.URL != "postgres://from-env" {
		t.Fatalf("expected env postgres url, got %q", cfg.Postgres.URL)
	}
	if !cfg.IsProduction() {
		t.Fatalf("expected production env")
	}
	if cfg.Auth.JWTSecret != "yaml-secret" {
		t.Fatalf("expected yaml jwt secret, got %q", cfg.Auth.JWTSecret)
	}
	if TTLDuration(cfg.Quiz.TTL, time.Minute) != 5*time.Minute {
		t.Fatalf("expected quiz ttl 5m")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("APP_ENV", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "5000" || cfg.Server.Env != "development" {
		t.Fatalf("unexpected defaults: %+v", cfg.Server)
	}
	if cfg.Mongo.Database != "quiz-app" {
		t.Fatalf("unexpected mongo database default %q", cfg.Mongo.Database)
	}
}

func TestTTLDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"":      time.Minute,
		"90s":   90 * time.Second,
		"7d":    7 * 24 * time.Hour,
		"bogus": time.Minute,
	}
	for raw, want := range cases {
		if got := TTLDuration(raw, time.Minute); got != want {
			t.Fatalf("TTLDuration(%q) = %v, want %v", raw, got, want)
		}
	}
}
