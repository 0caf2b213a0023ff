package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("TEST_JWT_SECRET", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: "9090"
  read_timeout: 5s
auth:
  jwt_secret: ${TEST_JWT_SECRET}
  token_ttl: 2h
contest:
  cache_ttl: 30s
  timezone: Asia/Kolkata
rate_limit:
  rps: 5
  burst: 10
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.RateLimit.RPS != 5 || cfg.RateLimit.Burst != 10 {
		t.Fatalf("unexpected rate limit %+v", cfg.RateLimit)
	}
	if got := TTLDuration(cfg.Auth.TokenTTL, time.Hour); got != 2*time.Hour {
		t.Fatalf("expected 2h token ttl, got %v", got)
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "Asia/Kolkata" {
		t.Fatalf("expected Asia/Kolkata, got %v %v", loc, err)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for garbage, got %v", got)
	}
}

func TestLocationDefaultsToUTC(t *testing.T) {
	loc, err := Config{}.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC, got %v %v", loc, err)
	}
}
