package config

import (
	"strings"
	"testing"
	"time"

	"anonchat/internal/repository"
)

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		expected    bool
	}{
		{"production", "production", true},
		{"prod", "prod", true},
		{"development", "development", false},
		{"dev", "dev", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Environment: tt.environment}
			if got := cfg.IsProduction(); got != tt.expected {
				t.Errorf("IsProduction() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Environment:  "development",
		LogFormat:    "text",
		StoreBackend: BackendMemory,
		PollInterval: time.Second,
		MaxRetries:   repository.DefaultMaxRetries,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name          string
		modify        func(*Config)
		wantError     bool
		errorContains string
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:          "unknown_backend",
			modify:        func(c *Config) { c.StoreBackend = "redis" },
			wantError:     true,
			errorContains: "STORE_BACKEND",
		},
		{
			name:          "poll_interval_too_short",
			modify:        func(c *Config) { c.PollInterval = 10 * time.Millisecond },
			wantError:     true,
			errorContains: "POLL_INTERVAL",
		},
		{
			name:          "zero_retries",
			modify:        func(c *Config) { c.MaxRetries = 0 },
			wantError:     true,
			errorContains: "MAX_RETRIES",
		},
		{
			name:          "unknown_log_format",
			modify:        func(c *Config) { c.LogFormat = "xml" },
			wantError:     true,
			errorContains: "LOG_FORMAT",
		},
		{
			name: "memory_in_production",
			modify: func(c *Config) {
				c.Environment = "production"
			},
			wantError:     true,
			errorContains: "not allowed in production",
		},
		{
			name: "badger_in_production",
			modify: func(c *Config) {
				c.Environment = "production"
				c.StoreBackend = BackendBadger
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()

			if tt.wantError {
				if err == nil {
					t.Error("Expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error containing %q, got %q", tt.errorContains, err.Error())
				}
			} else if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "LOG_LEVEL", "LOG_FORMAT", "STORE_BACKEND", "POLL_INTERVAL",
		"CONSISTENCY", "MAX_RETRIES", "HASH_PASSWORDS", "OPS_ADDR"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.StoreBackend != BackendMemory {
		t.Errorf("StoreBackend = %q, want memory", cfg.StoreBackend)
	}
	if cfg.PollInterval != time.Second {
		t.Errorf("PollInterval = %s, want 1s", cfg.PollInterval)
	}
	if cfg.Consistency != repository.LastWriteWins {
		t.Errorf("Consistency = %s, want last-write-wins", cfg.Consistency)
	}
	if cfg.MaxRetries != repository.DefaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", cfg.MaxRetries, repository.DefaultMaxRetries)
	}
	if cfg.HashPasswords {
		t.Error("HashPasswords should default to false")
	}
	if cfg.OpsAddr != "" {
		t.Errorf("OpsAddr = %q, want empty", cfg.OpsAddr)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/chat.db")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("CONSISTENCY", "compare-and-swap")
	t.Setenv("MAX_RETRIES", "9")
	t.Setenv("HASH_PASSWORDS", "true")
	t.Setenv("OPS_ADDR", ":9090")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if cfg.StoreBackend != BackendSQLite || cfg.SQLitePath != "/tmp/chat.db" {
		t.Errorf("unexpected sqlite settings: %q %q", cfg.StoreBackend, cfg.SQLitePath)
	}
	if cfg.PollInterval != 250*time.Millisecond {
		t.Errorf("PollInterval = %s, want 250ms", cfg.PollInterval)
	}

	opts := cfg.RepositoryOptions()
	if opts.Consistency != repository.CompareAndSwap || opts.MaxRetries != 9 {
		t.Errorf("RepositoryOptions() = %+v", opts)
	}
	if !cfg.HashPasswords {
		t.Error("HashPasswords should be true")
	}
	if cfg.OpsAddr != ":9090" {
		t.Errorf("OpsAddr = %q, want :9090", cfg.OpsAddr)
	}
}

func TestFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"POLL_INTERVAL", "soon"},
		{"CONSISTENCY", "eventual"},
		{"MAX_RETRIES", "many"},
		{"HASH_PASSWORDS", "maybe"},
		{"STORE_BACKEND", "floppy"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := FromEnv(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			} else if !strings.Contains(err.Error(), tt.key) {
				t.Errorf("Expected error to name %s, got %q", tt.key, err.Error())
			}
		})
	}
}
