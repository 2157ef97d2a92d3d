// Package config reads the storefront configuration from flags and
// environment variables.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

var (
	ErrUnknownBackend  = errors.New("unknown storage backend")
	ErrMissingDatabase = errors.New("DATABASE_URL is required for the postgres backend")
	ErrMissingTable    = errors.New("DYNAMODB_TABLE is required for the dynamodb backend")
	ErrJWTSecret       = errors.New("JWT_SECRET must be at least 32 characters long")
	ErrFixtureSources  = errors.New("FIXTURES_DIR and FIXTURES_URL are mutually exclusive")
)

// Config holds the storefront settings. Environment variables take
// precedence over flags.
type Config struct {
	RunAddress      string        `env:"RUN_ADDRESS"`
	StorageBackend  string        `env:"STORAGE_BACKEND"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	DynamoTable     string        `env:"DYNAMODB_TABLE"`
	FixturesDir     string        `env:"FIXTURES_DIR"`
	FixturesURL     string        `env:"FIXTURES_URL"`
	DefaultLanguage string        `env:"DEFAULT_LANGUAGE"`
	KafkaBrokers    []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic      string        `env:"KAFKA_TOPIC"`
	JWTSecret       string        `env:"JWT_SECRET"`
	SessionTTL      time.Duration `env:"SESSION_TTL"`
	LogLevel        string        `env:"LOG_LEVEL"`
}

// Parse reads the configuration from the process flags and environment
func Parse() (*Config, error) {
	return parse(os.Args[1:], nil)
}

// parse reads flags from args, then applies environment variables on top.
// A nil environ means the process environment.
func parse(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{
		DynamoTable:     "storefront-state",
		DefaultLanguage: "pl",
		KafkaTopic:      "storefront-events",
		SessionTTL:      24 * time.Hour,
		LogLevel:        "info",
	}

	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	fs.StringVar(&cfg.StorageBackend, "s", BackendMemory, "storage backend: memory, postgres or dynamodb")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "database URL for the postgres backend")
	fs.StringVar(&cfg.FixturesDir, "f", "", "directory with fixture files (default: embedded)")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that depend on each other
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabase
		}
	case BackendDynamoDB:
		if c.DynamoTable == "" {
			return ErrMissingTable
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.StorageBackend)
	}

	if len(c.JWTSecret) < 32 {
		return ErrJWTSecret
	}
	if c.FixturesDir != "" && c.FixturesURL != "" {
		return ErrFixtureSources
	}
	return nil
}

// KafkaEnabled reports whether change events should be published
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
