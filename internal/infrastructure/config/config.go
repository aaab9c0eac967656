package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	Admin     AdminConfig
	Dispatch  DispatchConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// AdminConfig holds the admin/introspection HTTP server configuration.
type AdminConfig struct {
	Port string `envconfig:"ADMIN_PORT" default:"8372"`
	Host string `envconfig:"ADMIN_HOST" default:"127.0.0.1"`
}

// DispatchConfig holds dispatcher defaults applied to new processes.
type DispatchConfig struct {
	// MaxThreads is the worker-pool budget a process starts with before
	// it calls set_max_threads itself.
	MaxThreads int `envconfig:"MAX_THREADS_DEFAULT" default:"0"`
	// NonBlock makes every process non-blocking regardless of open flags.
	NonBlock bool `envconfig:"NON_BLOCK" default:"false"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds admin API rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Admin: AdminConfig{
			Port: "8372",
			Host: "127.0.0.1",
		},
		Dispatch: DispatchConfig{
			MaxThreads: 0,
			NonBlock:   false,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}
