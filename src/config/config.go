// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults match the backend's development setup.
const (
	DefaultBackendURL = "http://127.0.0.1:8000"
	DefaultStatePath  = ".config/termchat/state.db"
)

// Config holds all application configuration.
type Config struct {
	BackendURL      string        // base URL of the generation backend
	StatePath       string        // bolt file holding durable client state
	CooldownSeconds int           // pause enforced after each response
	RequestTimeout  time.Duration // budget for a single backend call
	RevealInterval  time.Duration // tick between reveal animation frames
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		BackendURL:      strings.TrimRight(getEnv("BACKEND_URL", DefaultBackendURL), "/"),
		StatePath:       getEnv("STATE_PATH", DefaultStatePath),
		CooldownSeconds: getEnvInt("COOLDOWN_SECONDS", 10),
		RequestTimeout:  time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 60)) * time.Second,
		RevealInterval:  time.Duration(getEnvInt("REVEAL_INTERVAL_MS", 30)) * time.Millisecond,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are usable.
func (c *Config) Validate() error {
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.BackendURL)
	}
	if c.StatePath == "" {
		return fmt.Errorf("STATE_PATH cannot be empty")
	}
	if c.CooldownSeconds < 0 {
		return fmt.Errorf("COOLDOWN_SECONDS must be >= 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	if c.RevealInterval <= 0 {
		return fmt.Errorf("REVEAL_INTERVAL_MS must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
