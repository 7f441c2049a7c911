package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load returned nil config")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.LockoutMaxFailures != 5 {
		t.Errorf("LockoutMaxFailures = %d, want 5", cfg.LockoutMaxFailures)
	}
	if cfg.LockoutWindow != "15m" {
		t.Errorf("LockoutWindow = %q, want %q", cfg.LockoutWindow, "15m")
	}
	if cfg.DefaultRole != "member" {
		t.Errorf("DefaultRole = %q, want %q", cfg.DefaultRole, "member")
	}
	if cfg.JWTIssuer != "identity-store" {
		t.Errorf("JWTIssuer = %q, want %q", cfg.JWTIssuer, "identity-store")
	}
	if cfg.JWTAccessTTL != "15m" {
		t.Errorf("JWTAccessTTL = %q, want %q", cfg.JWTAccessTTL, "15m")
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	os.Clearenv()
	os.Setenv("DATABASE_URL", "postgres://localhost/identity")
	os.Setenv("BCRYPT_COST", "14")
	os.Setenv("LOCKOUT_MAX_FAILURES", "3")
	os.Setenv("DEFAULT_ROLE", "user")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/identity" {
		t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
	}
	if cfg.BcryptCost != 14 {
		t.Errorf("BcryptCost = %d, want 14", cfg.BcryptCost)
	}
	if cfg.LockoutMaxFailures != 3 {
		t.Errorf("LockoutMaxFailures = %d, want 3", cfg.LockoutMaxFailures)
	}
	if cfg.DefaultRole != "user" {
		t.Errorf("DefaultRole = %q, want %q", cfg.DefaultRole, "user")
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	os.Clearenv()
	os.Setenv("BCRYPT_COST", "99")

	if _, err := Load(); err == nil {
		t.Fatal("Load accepted BCRYPT_COST=99, want error")
	}
}

func TestDurations(t *testing.T) {
	cfg := &Config{LockoutWindow: "30m", JWTAccessTTL: "1h"}
	if got := cfg.LockoutDuration(); got != 30*time.Minute {
		t.Errorf("LockoutDuration = %v, want 30m", got)
	}
	if got := cfg.AccessTTL(); got != time.Hour {
		t.Errorf("AccessTTL = %v, want 1h", got)
	}

	cfg = &Config{}
	if got := cfg.LockoutDuration(); got != 15*time.Minute {
		t.Errorf("LockoutDuration fallback = %v, want 15m", got)
	}
	if got := cfg.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL fallback = %v, want 15m", got)
	}
}
