package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// developmentJWTSecret signs tokens outside production when JWT_SECRET is unset
const developmentJWTSecret = "fitappkid-development-only"

// Config holds application configuration
type Config struct {
	ServerPort   string
	AppEnv       string
	LogMode      string
	DatabaseType string
	DatabasePath string
	DatabaseURL  string
	Timezone     string

	JWTSecret string
	JWTIssuer string

	AWSRegion     string
	SESFromEmail  string
	SESFromName   string
	NotifyParents bool

	ResolveMaxAttempts    int
	ResolveInitialBackoff time.Duration
	RateLimitPerMinute    int
	RequestTimeout        time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:            getEnv("PORT", "8080"),
		AppEnv:                normalizeEnv(getEnv("APP_ENV", "development")),
		LogMode:               getEnv("LOG_MODE", "development"),
		DatabaseType:          getEnv("DB_TYPE", "sqlite"),
		DatabasePath:          getEnv("DB_PATH", "./fitappkid.db"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		Timezone:              getEnv("TIMEZONE", "UTC"),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		JWTIssuer:             getEnv("JWT_ISSUER", ""),
		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		SESFromEmail:          getEnv("SES_FROM_EMAIL", ""),
		SESFromName:           getEnv("SES_FROM_NAME", "FitAppKid"),
		NotifyParents:         getEnvBool("NOTIFY_PARENTS", true),
		ResolveMaxAttempts:    getEnvInt("RESOLVE_MAX_ATTEMPTS", 3),
		ResolveInitialBackoff: getEnvDuration("RESOLVE_INITIAL_BACKOFF", 50*time.Millisecond),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RequestTimeout:        getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),
	}

	if cfg.JWTSecret == "" && cfg.AppEnv != "production" {
		cfg.JWTSecret = developmentJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	if c.JWTSecret == "" && c.AppEnv == "production" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	switch strings.ToLower(c.DatabaseType) {
	case "sqlite", "sqlite3", "":
	case "postgres", "postgresql", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for %s", c.DatabaseType)
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
	if c.ResolveMaxAttempts < 1 {
		return fmt.Errorf("RESOLVE_MAX_ATTEMPTS must be at least 1")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the time zone used to derive activity dates
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// NotificationsEnabled reports whether parent emails should be sent
func (c *Config) NotificationsEnabled() bool {
	return c.NotifyParents && c.SESFromEmail != ""
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
