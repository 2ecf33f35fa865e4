package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.MongoDatabase != "feudlive" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RevealDelay != 2*time.Second || cfg.SessionTTL != 6*time.Hour {
		t.Fatalf("unexpected duration defaults: %+v", cfg)
	}
	if cfg.MaxPlayers != 10 || cfg.MaxPerTeam() != 5 {
		t.Fatalf("unexpected player caps: %d/%d", cfg.MaxPlayers, cfg.MaxPerTeam())
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_URI", "redis://cache:6379")
	t.Setenv("REVEAL_DELAY", "500ms")
	t.Setenv("MAX_PLAYERS", "8")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" {
		t.Fatalf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.RedisAddr() != "cache:6379" {
		t.Fatalf("expected redis prefix stripped, got %s", cfg.RedisAddr())
	}
	if cfg.RevealDelay != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %s", cfg.RevealDelay)
	}
	if cfg.MaxPerTeam() != 4 {
		t.Fatalf("expected 4 per team, got %d", cfg.MaxPerTeam())
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected two origins, got %v", cfg.CORSOrigins)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"MAX_PLAYERS":   "1",
		"SESSION_TTL":   "0s",
		"REVEAL_DELAY":  "-1s",
		"RESTART_DELAY": "soon",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%s to be rejected", key, val)
			}
		})
	}
}
