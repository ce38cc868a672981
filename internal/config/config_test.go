package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadReadsYAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  port: "9000"
postgres:
  url: postgres://file
quiz:
  ttl: 2m
  default_limit: 5
auth:
  admin_emails: ["boss@example.com"]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PORT", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("POSTGRES_URL", "postgres://env")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9000" || cfg.Postgres.URL != "postgres://env" || cfg.Auth.JWTSecret != "from-env" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Storage.Backend != BackendPostgres {
		t.Fatalf("expected postgres backend inferred from url, got %q", cfg.Storage.Backend)
	}
	if cfg.Quiz.DefaultLimit != 5 || len(cfg.Auth.AdminEmails) != 1 {
		t.Fatalf("unexpected quiz/auth section %+v %+v", cfg.Quiz, cfg.Auth)
	}
	if TTLDuration(cfg.Quiz.TTL, time.Minute) != 2*time.Minute {
		t.Fatalf("expected 2m ttl")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORAGE_BACKEND", "POSTGRES_URL", "MONGO_URI"} {
		t.Setenv(key, "")
	}
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8080" || cfg.Storage.Backend != BackendMemory || cfg.Auth.CookieName == "" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if TTLDuration("", time.Second) != time.Second || TTLDuration("bogus", time.Second) != time.Second {
		t.Fatalf("expected fallback")
	}
}
