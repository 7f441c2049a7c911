// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// DatabaseURL is the Postgres DSN for the credential store.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// LockoutMaxFailures is the number of consecutive failed sign-ins before a user is locked out.
	LockoutMaxFailures int `mapstructure:"LOCKOUT_MAX_FAILURES"`
	// LockoutWindow is how long a lockout lasts (e.g. "15m").
	LockoutWindow string `mapstructure:"LOCKOUT_WINDOW"`
	// DefaultRole is the role assigned to newly registered users. Empty means no default role.
	DefaultRole string `mapstructure:"DEFAULT_ROLE"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim on issued tokens.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim on issued tokens.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored (e.g. in CI). Env vars
// override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("LOCKOUT_MAX_FAILURES", 5)
	v.SetDefault("LOCKOUT_WINDOW", "15m")
	v.SetDefault("DEFAULT_ROLE", "member")
	v.SetDefault("JWT_ISSUER", "identity-store")
	v.SetDefault("JWT_AUDIENCE", "identity-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if cfg.LockoutMaxFailures < 1 {
		return nil, errors.New("config: LOCKOUT_MAX_FAILURES must be at least 1")
	}

	return &cfg, nil
}

// LockoutDuration parses LockoutWindow as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) LockoutDuration() time.Duration {
	d, err := time.ParseDuration(c.LockoutWindow)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}
