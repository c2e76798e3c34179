package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Persistence: a postgres:// URL or a sqlite file path
	DatabaseURL string

	// Observability
	SentryDSN           string // Sentry DSN for error tracking
	CloudWatchNamespace string // CloudWatch namespace, production only

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from the upstream gateway
	// - "jwt": Validate HS256 bearer tokens signed with JWTSecret
	AuthMode  string
	JWTSecret string

	// Harmonizer
	DefaultStyle      string
	MaxChords         int // longest chord sequence accepted per request
	BatchConcurrency  int // melodies harmonized in parallel per batch
	PreviewSampleRate int // WAV preview sample rate in Hz
}

func Load() *Config {
	return &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         getEnv("DATABASE_URL", "harmonizer.sqlite3"),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "MagdaHarmonizer"),
		AuthMode:            getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
		JWTSecret:           getEnv("JWT_SECRET", ""),
		DefaultStyle:        getEnv("DEFAULT_STYLE", "pop"),
		MaxChords:           getEnvInt("MAX_CHORDS", 256),
		BatchConcurrency:    getEnvInt("BATCH_CONCURRENCY", 4),
		PreviewSampleRate:   getEnvInt("PREVIEW_SAMPLE_RATE", 22050),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

// IsGatewayMode returns true if running behind the gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsJWTMode returns true if bearer tokens are validated locally
func (c *Config) IsJWTMode() bool {
	return c.AuthMode == "jwt"
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
