// Package config loads server configuration from the environment.
//
// HOW CONFIGURATION IS RESOLVED:
//  1. An optional .env file in the working directory is loaded into the process
//     environment (godotenv). Variables already set in the real environment win.
//  2. envconfig maps each variable onto a field of Config using the struct tags,
//     applying defaults and parsing ints, bools, durations and lists.
//  3. Validate() checks requirements that span several fields, e.g. the clerk
//     provider needs a secret key but the local one does not.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	IdentityLocal = "local"
	IdentityClerk = "clerk"

	EnvProduction = "production"
)

type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`

	// Storage
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	DBPath      string `envconfig:"DB_PATH" default:"data/marketplace.db"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Bearer tokens issued by the identity provider
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	JWTIssuer string `envconfig:"JWT_ISSUER" default:"course-marketplace"`

	// Identity / role provider
	IdentityProvider string        `envconfig:"IDENTITY_PROVIDER" default:"local"`
	ClerkAPIURL      string        `envconfig:"CLERK_API_URL" default:"https://api.clerk.com"`
	ClerkSecretKey   string        `envconfig:"CLERK_SECRET_KEY"`
	IdentityTimeout  time.Duration `envconfig:"IDENTITY_TIMEOUT" default:"10s"`

	// Media host (any S3-compatible store)
	S3Endpoint      string `envconfig:"S3_ENDPOINT"`
	S3Region        string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Bucket        string `envconfig:"S3_BUCKET"`
	S3AccessKey     string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey     string `envconfig:"S3_SECRET_KEY"`
	S3PublicBaseURL string `envconfig:"S3_PUBLIC_BASE_URL"`

	MaxUploadBytes     int64    `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`
	WebhookSecret      string   `envconfig:"WEBHOOK_SECRET"`
	ExposeErrorDetails bool     `envconfig:"EXPOSE_ERROR_DETAILS" default:"false"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
}

// Load reads .env (if present) and the environment into a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return errors.New("config: DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.DBDriver)
	}

	switch c.IdentityProvider {
	case IdentityLocal:
	case IdentityClerk:
		if c.ClerkSecretKey == "" {
			return errors.New("config: CLERK_SECRET_KEY is required for the clerk identity provider")
		}
	default:
		return fmt.Errorf("config: unknown IDENTITY_PROVIDER %q", c.IdentityProvider)
	}

	if c.S3Bucket == "" {
		return errors.New("config: S3_BUCKET is required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("config: MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}
