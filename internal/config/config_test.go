package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SLOT_STEP_MINUTES", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SlotStepMinutes != 30 {
		t.Fatalf("expected default slot step of 30 minutes, got %d", cfg.SlotStepMinutes)
	}
	if cfg.MaxLookaheadDays != 90 {
		t.Fatalf("expected default lookahead of 90 days, got %d", cfg.MaxLookaheadDays)
	}
	if cfg.SlotCacheTTL != 2*time.Minute {
		t.Fatalf("expected default slot cache TTL, got %s", cfg.SlotCacheTTL)
	}
	if cfg.EmailProvider != "stub" {
		t.Fatalf("expected stub email provider by default, got %s", cfg.EmailProvider)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("MAX_LOOKAHEAD_DAYS", "30")
	t.Setenv("SLOT_CACHE_TTL", "45s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("EMAIL_PROVIDER", "SES")
	t.Setenv("USE_MEMORY_QUEUE", "true")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port override, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected database url override, got %s", cfg.DatabaseURL)
	}
	if cfg.MaxLookaheadDays != 30 {
		t.Fatalf("expected lookahead override, got %d", cfg.MaxLookaheadDays)
	}
	if cfg.SlotCacheTTL != 45*time.Second {
		t.Fatalf("expected slot cache TTL override, got %s", cfg.SlotCacheTTL)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.example.com" {
		t.Fatalf("unexpected cors origins: %#v", cfg.CORSAllowedOrigins)
	}
	if cfg.EmailProvider != "ses" {
		t.Fatalf("expected lowered email provider, got %s", cfg.EmailProvider)
	}
	if !cfg.UseMemoryQueue {
		t.Fatal("expected memory queue enabled")
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_SEC", "not-a-number")
	t.Setenv("SLOT_CACHE_TTL", "soon")
	cfg := Load()
	if cfg.RateLimitPerSec != 10 {
		t.Fatalf("expected rate limit fallback, got %f", cfg.RateLimitPerSec)
	}
	if cfg.SlotCacheTTL != 2*time.Minute {
		t.Fatalf("expected TTL fallback, got %s", cfg.SlotCacheTTL)
	}
}
