package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "STORE_DRIVER", "REMOTE_BASE_URL", "REMOTE_RPS", "CORS_ORIGINS", "REMOTE_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()
	if cfg.StoreDriver != StoreMemory {
		t.Fatalf("expected memory driver, got %q", cfg.StoreDriver)
	}
	if cfg.RemoteTimeout != 15*time.Second {
		t.Fatalf("unexpected remote timeout %s", cfg.RemoteTimeout)
	}
	if cfg.RemoteRPS != 10 {
		t.Fatalf("unexpected rps %v", cfg.RemoteRPS)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REMOTE_BASE_URL", "https://api.example.test/v1/")
	t.Setenv("REMOTE_TIMEOUT_SECONDS", "3")
	t.Setenv("REMOTE_RPS", "2.5")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")

	cfg := FromEnv()
	if cfg.StoreDriver != StoreRedis {
		t.Fatalf("expected redis driver, got %q", cfg.StoreDriver)
	}
	if cfg.RemoteBaseURL != "https://api.example.test/v1" {
		t.Fatalf("trailing slash not trimmed: %q", cfg.RemoteBaseURL)
	}
	if cfg.RemoteTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.RemoteTimeout)
	}
	if cfg.RemoteRPS != 2.5 {
		t.Fatalf("unexpected rps %v", cfg.RemoteRPS)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://a.test" || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
}

func TestEnvDurationIgnoresGarbage(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "soon")
	if got := FromEnv().ShutdownTimeout; got != 10*time.Second {
		t.Fatalf("expected default, got %s", got)
	}
}
