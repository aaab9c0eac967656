package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8372", cfg.Admin.Port)
	assert.Equal(t, "127.0.0.1", cfg.Admin.Host)
	assert.Equal(t, 0, cfg.Dispatch.MaxThreads)
	assert.False(t, cfg.Dispatch.NonBlock)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ADMIN_PORT", "9000")
	t.Setenv("MAX_THREADS_DEFAULT", "8")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Admin.Port)
	assert.Equal(t, 8, cfg.Dispatch.MaxThreads)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("MAX_THREADS_DEFAULT", "not-a-number")

	cfg := LoadOrDefault()
	assert.Equal(t, 0, cfg.Dispatch.MaxThreads)
}
