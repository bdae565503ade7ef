package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test_key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.GeminiAPIKey != "test_key" {
		t.Errorf("Expected key 'test_key', got '%s'", cfg.GeminiAPIKey)
	}

	// Check defaults
	if cfg.Port != "8000" {
		t.Errorf("Expected default port '8000', got '%s'", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.ChatRateLimitRPM != 30 {
		t.Errorf("Expected default chat rate limit 30, got %d", cfg.ChatRateLimitRPM)
	}
}

func TestLoadMissingGeminiKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail without GEMINI_API_KEY")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Errorf("Expected error to mention GEMINI_API_KEY, got: %v", err)
	}
}

func TestLoadForModeIngest(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := LoadForMode(IngestMode)
	if err != nil {
		t.Fatalf("LoadForMode(IngestMode) failed: %v", err)
	}
	if cfg.GeminiAPIKey != "" {
		t.Errorf("Expected empty key, got '%s'", cfg.GeminiAPIKey)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test_key")
	t.Setenv("GROQ_API_KEY", "groq_key")
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("CHAT_RATE_LIMIT_RPM", "10")
	t.Setenv("DATA_DIR", "/tmp/schedule-data")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.LogLevel)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("Expected shutdown timeout 5s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.ChatRateLimitRPM != 10 {
		t.Errorf("Expected chat rate limit 10, got %d", cfg.ChatRateLimitRPM)
	}
	if !cfg.HasFallbackProvider() {
		t.Error("Expected fallback provider to be configured")
	}
	if got := cfg.SQLitePath(); got != "/tmp/schedule-data/schedule.db" {
		t.Errorf("Unexpected SQLite path: %s", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			errContains: "LOG_LEVEL",
		},
		{
			name:        "empty port",
			mutate:      func(c *Config) { c.Port = "" },
			errContains: "PORT",
		},
		{
			name:        "negative shutdown timeout",
			mutate:      func(c *Config) { c.ShutdownTimeout = -time.Second },
			errContains: "SHUTDOWN_TIMEOUT",
		},
		{
			name:        "negative chat rate limit",
			mutate:      func(c *Config) { c.ChatRateLimitRPM = -1 },
			errContains: "CHAT_RATE_LIMIT_RPM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				GeminiAPIKey:       "k",
				Port:               "8000",
				LogLevel:           "info",
				ShutdownTimeout:    30 * time.Second,
				GlobalRateLimitRPS: 100,
				ChatRateLimitRPM:   30,
				DataDir:            "/data",
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("Expected error to mention %s, got: %v", tt.errContains, err)
			}
		})
	}
}
