// Package config loads runtime settings from the environment.
//
// A .env file in the working directory is read first if present (handy in
// development), then real environment variables are processed with envconfig.
// Variables already set in the environment win over .env values.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseDriver    string        `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	DatabaseURL       string        `envconfig:"DATABASE_URL" default:"data/sitebook.db"`
	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`

	// Session token verification. JWKSURL takes precedence; JWTSecret is the
	// HS256 fallback for local development.
	JWKSURL           string   `envconfig:"AUTH_JWKS_URL"`
	Issuer            string   `envconfig:"AUTH_ISSUER"`
	AuthorizedParties []string `envconfig:"AUTH_AUTHORIZED_PARTIES"`
	JWTSecret         string   `envconfig:"AUTH_JWT_SECRET"`

	// Provider backend API used to refresh cached user profiles. Without a
	// secret key every user is provisioned with placeholder values.
	IdentityAPIURL    string `envconfig:"IDENTITY_API_URL" default:"https://api.clerk.com"`
	IdentitySecretKey string `envconfig:"IDENTITY_SECRET_KEY"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// Load reads .env (if any) and the environment, then validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.AppEnv = strings.ToLower(strings.TrimSpace(c.AppEnv))
	c.DatabaseDriver = strings.ToLower(strings.TrimSpace(c.DatabaseDriver))
	c.AuthorizedParties = compact(c.AuthorizedParties)
	c.CORSAllowedOrigins = compact(c.CORSAllowedOrigins)
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	switch c.AppEnv {
	case EnvDevelopment, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be %q or %q, got %q", EnvDevelopment, EnvProduction, c.AppEnv))
	}
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DatabaseDriver))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.JWKSURL == "" && c.JWTSecret == "" {
		errs = append(errs, errors.New("one of AUTH_JWKS_URL or AUTH_JWT_SECRET is required"))
	}
	if c.JWKSURL != "" && c.Issuer == "" {
		errs = append(errs, errors.New("AUTH_ISSUER is required when AUTH_JWKS_URL is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsDevelopment reports whether internal error detail may be exposed.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == EnvDevelopment
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel)
	}
	return level, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
