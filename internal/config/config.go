// Package config provides environment-driven configuration for the family
// store server and the sync CLI.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all application configuration values.
type Config struct {
	DatabaseURL      Secret
	Port             string
	ListenHost       string
	CORSOrigins      []string
	LogLevel         string
	MaxGenerations   int
	BulkChunkSize    int
	SyncConcurrency  int
	FailureRetention time.Duration
	SupabaseURL      string
	SupabaseKey      Secret
}

// Load reads the server configuration. DATABASE_URL is required.
func Load() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(true); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadSync reads the configuration used by sync clients, which talk to a
// remote store and need no database.
func LoadSync() (*Config, error) {
	cfg, err := read()
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(false); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func read() (*Config, error) {
	cfg := &Config{
		DatabaseURL: Secret(envOrDefault("DATABASE_URL", "")),
		Port:        envOrDefault("PORT", "3040"),
		ListenHost:  envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		SupabaseURL: envOrDefault("SUPABASE_URL", ""),
		SupabaseKey: Secret(envOrDefault("SUPABASE_KEY", "")),
	}

	var err error
	if cfg.MaxGenerations, err = intInRange("MAX_GENERATIONS", 4, 1, 50); err != nil {
		return nil, err
	}
	if cfg.BulkChunkSize, err = intInRange("BULK_CHUNK_SIZE", 200, 1, 1000); err != nil {
		return nil, err
	}
	if cfg.SyncConcurrency, err = intInRange("SYNC_CONCURRENCY", 8, 1, 64); err != nil {
		return nil, err
	}

	retention, err := time.ParseDuration(envOrDefault("FAILURE_RETENTION", "720h"))
	if err != nil || retention < time.Hour {
		return nil, fmt.Errorf("FAILURE_RETENTION must be a duration of at least 1h")
	}
	cfg.FailureRetention = retention

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:5173")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

// HasSupabase reports whether a Supabase backend is configured.
func (c *Config) HasSupabase() bool {
	return c.SupabaseURL != "" && c.SupabaseKey.Value() != ""
}

func intInRange(key string, fallback, lo, hi int) (int, error) {
	n, err := strconv.Atoi(envOrDefault(key, strconv.Itoa(fallback)))
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("%s must be an integer between %d and %d", key, lo, hi)
	}
	return n, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
