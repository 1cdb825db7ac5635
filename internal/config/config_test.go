package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected default http addr: %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.AccessTTL != time.Hour {
		t.Fatalf("unexpected default access ttl: %s", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.RefreshTTL != 7*time.Hour {
		t.Fatalf("unexpected default refresh ttl: %s", cfg.Auth.RefreshTTL)
	}
	if cfg.Auth.RefreshGrace != 30*time.Second {
		t.Fatalf("unexpected default refresh grace: %s", cfg.Auth.RefreshGrace)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
env: prod
http:
  addr: ":9090"
auth:
  jwt_secret: file-secret
  access_ttl: 30m
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Env != "prod" {
		t.Fatalf("env not loaded from file: %s", cfg.Env)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Fatalf("http addr not loaded from file: %s", cfg.HTTP.Addr)
	}
	if cfg.Auth.JWTSecret != "file-secret" {
		t.Fatalf("jwt secret not loaded from file")
	}
	if cfg.Auth.AccessTTL != 30*time.Minute {
		t.Fatalf("access ttl not loaded from file: %s", cfg.Auth.AccessTTL)
	}
	if cfg.Auth.RefreshTTL != 7*time.Hour {
		t.Fatalf("unset fields should keep defaults, got refresh ttl %s", cfg.Auth.RefreshTTL)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("AUTH_REFRESH_TTL", "8h")
	t.Setenv("AUTH_LOGIN_PER_MINUTE", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Auth.JWTSecret != "env-secret" {
		t.Fatalf("jwt secret env override not applied")
	}
	if cfg.Auth.RefreshTTL != 8*time.Hour {
		t.Fatalf("refresh ttl env override not applied: %s", cfg.Auth.RefreshTTL)
	}
	if cfg.Auth.LoginPerMinute != 3 {
		t.Fatalf("login per minute env override not applied: %d", cfg.Auth.LoginPerMinute)
	}
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("AUTH_ACCESS_TTL", "not-a-duration")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for invalid duration override")
	}
}
