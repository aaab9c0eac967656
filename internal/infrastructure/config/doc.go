// Package config provides 12-factor configuration management for binderd.
//
// Configuration is loaded from environment variables with sensible
// defaults. CLI flags can override environment variables for development
// flexibility.
//
// Configuration Sections:
//   - Admin: introspection HTTP server settings (port, host)
//   - Dispatch: defaults applied to newly opened processes
//   - Logging: log level and output format
//   - RateLimit: admin API rate limiting
//
// Environment Variables:
//   - ADMIN_PORT, ADMIN_HOST
//   - MAX_THREADS_DEFAULT, NON_BLOCK
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
