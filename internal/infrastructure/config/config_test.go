package config_test

import (
	"testing"
	"time"

	"github.com/iho/commissionledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.LockBackend != config.LockBackendRedis {
		t.Fatalf("expected redis lock backend by default, got %s", cfg.LockBackend)
	}

	if cfg.EventPublisher != config.PublisherLog {
		t.Fatalf("expected log publisher by default, got %s", cfg.EventPublisher)
	}

	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected 5m cache TTL, got %s", cfg.CacheTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("LOCK_BACKEND", "local")
	t.Setenv("EVENT_PUBLISHER", "nats")
	t.Setenv("NATS_URL", "nats://bus:4222")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.LockBackend != config.LockBackendLocal || cfg.EventPublisher != config.PublisherNATS {
		t.Fatalf("expected backend overrides, got lock=%s publisher=%s", cfg.LockBackend, cfg.EventPublisher)
	}

	if cfg.NATSURL != "nats://bus:4222" || cfg.RateLimitRPS != 2.5 || !cfg.AutoMigrate {
		t.Fatalf("unexpected overrides: nats=%s rps=%v migrate=%v", cfg.NATSURL, cfg.RateLimitRPS, cfg.AutoMigrate)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRejectsUnknownBackends(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"lock backend", "LOCK_BACKEND", "zookeeper"},
		{"publisher", "EVENT_PUBLISHER", "kafka"},
		{"batch size", "OUTBOX_BATCH_SIZE", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
