package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadWithDefaults_Succeeds(t *testing.T) {
	// Ensure envs are clean to use defaults
	os.Unsetenv("DB_PATH")
	os.Unsetenv("HTTP_ADDRESS")
	os.Unsetenv("JWT_SECRET")
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.HTTP.Address == "" || cfg.Database.Path == "" || cfg.Auth.JWTSecret == "" {
		t.Fatalf("unexpected empty defaults: %+v", cfg)
	}
	if cfg.Auth.AccessTTL != 15*time.Minute || cfg.Auth.RefreshTTL != 24*time.Hour {
		t.Fatalf("unexpected token TTL defaults: %+v", cfg.Auth)
	}
	if cfg.Routing.BaseURL == "" || cfg.Routing.Timeout == 0 {
		t.Fatalf("unexpected routing defaults: %+v", cfg.Routing)
	}
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	// Clear JWT_SECRET ensures error
	os.Unsetenv("JWT_SECRET")
	// Other vars can be set or default
	t.Setenv("DB_PATH", "test.db")
	t.Setenv("HTTP_ADDRESS", ":1234")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is not set")
	}
	// When set, it should succeed
	t.Setenv("JWT_SECRET", "x")
	if _, err := Load(); err != nil {
		t.Fatalf("Load with secret set: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL_SECONDS", "60")
	t.Setenv("ROUTING_API_KEY", "ors-key")
	cfg, err := LoadWithDefaults()
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.Auth.AccessTTL != time.Minute {
		t.Errorf("access TTL override not applied: %v", cfg.Auth.AccessTTL)
	}
	if cfg.Routing.APIKey != "ors-key" {
		t.Errorf("routing key override not applied: %q", cfg.Routing.APIKey)
	}
}
