// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the HTTP server, LLM providers, rate limits, and data paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// LLM Configuration
	GeminiAPIKey string // Gemini API key, used for embeddings and answer generation
	GroqAPIKey   string // Groq API key (fallback LLM provider)

	// LLM Model Configuration (optional, defaults apply if empty)
	GeminiModel string // Gemini model for answer generation
	GroqModel   string // Groq model for answer generation

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Rate Limiting
	GlobalRateLimitRPS float64 // Global rate limit in requests per second (default: 100)
	ChatRateLimitRPM   int     // Per-IP chat requests per minute (default: 30, 0 = disabled)

	// Data Configuration
	DataDir string // Data directory for the SQLite database and vector index

	// Error Tracking
	SentryDSN         string // Sentry DSN (empty = disabled)
	SentryEnvironment string // Deployment environment reported to Sentry
}

// ValidationMode selects which settings are mandatory.
type ValidationMode int

const (
	// ServerMode requires the Gemini API key: the server embeds queries
	// and generates answers.
	ServerMode ValidationMode = iota
	// IngestMode runs without LLM access; parsing and the BM25 index are
	// fully offline, the vector index is rebuilt only when a key is set.
	IngestMode
)

// Load reads configuration from environment variables with server-mode
// validation. It attempts to load .env file first, then reads from env vars.
func Load() (*Config, error) {
	return LoadForMode(ServerMode)
}

// LoadForMode reads configuration from environment variables and validates
// it for the given mode.
func LoadForMode(mode ValidationMode) (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// LLM Configuration
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GroqAPIKey:   getEnv("GROQ_API_KEY", ""),

		// LLM Model Configuration (empty = use defaults from genai package)
		GeminiModel: getEnv("GEMINI_MODEL", ""),
		GroqModel:   getEnv("GROQ_MODEL", ""),

		// Metrics Authentication
		MetricsUsername: getEnv("METRICS_USERNAME", "prometheus"),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),

		// Server Configuration
		Port:            getEnv("PORT", "8000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		// Rate Limiting
		GlobalRateLimitRPS: getFloatEnv("GLOBAL_RATE_LIMIT_RPS", 100.0),
		ChatRateLimitRPM:   getIntEnv("CHAT_RATE_LIMIT_RPM", 30),

		// Data Configuration
		DataDir: getEnv("DATA_DIR", getDefaultDataDir()),

		// Error Tracking
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		SentryEnvironment: getEnv("SENTRY_ENVIRONMENT", "production"),
	}

	// Validate configuration
	if err := cfg.ValidateForMode(mode); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set for server mode
func (c *Config) Validate() error {
	return c.ValidateForMode(ServerMode)
}

// ValidateForMode checks if required configuration values are set for the
// given mode
func (c *Config) ValidateForMode(mode ValidationMode) error {
	var errs []error

	if mode == ServerMode && c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("DATA_DIR is required"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout))
	}
	if c.GlobalRateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("GLOBAL_RATE_LIMIT_RPS must be positive, got %v", c.GlobalRateLimitRPS))
	}
	if c.ChatRateLimitRPM < 0 {
		errs = append(errs, fmt.Errorf("CHAT_RATE_LIMIT_RPM cannot be negative, got %d", c.ChatRateLimitRPM))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "schedule.db")
}

// HasFallbackProvider returns true if the Groq fallback provider is configured.
func (c *Config) HasFallbackProvider() bool {
	return c.GroqAPIKey != ""
}
