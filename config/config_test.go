package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when JWT_SECRET is missing")
	}
}

func TestLoad_RejectsShortSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "short")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "32 bytes") {
		t.Fatalf("expected short secret error, got %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("PORT", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("s", 40))
	t.Setenv("TOKEN_TTL", "15m")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("STORE_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TokenTTL != 15*time.Minute {
		t.Errorf("TokenTTL = %v, want 15m", cfg.TokenTTL)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.StoreTimeout != 3*time.Second {
		t.Errorf("invalid duration should fall back to default, got %v", cfg.StoreTimeout)
	}
}

func TestDialector_SelectsDriver(t *testing.T) {
	if got := dialector("postgres://u:p@localhost/db").Name(); got != "postgres" {
		t.Errorf("postgres DSN selected %q", got)
	}
	if got := dialector("pizza.db").Name(); got != "sqlite" {
		t.Errorf("file DSN selected %q", got)
	}
}
