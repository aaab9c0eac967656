// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// The dispatcher logs process lifecycle at debug level and routing
// anomalies (dead targets, dropped notifications, protocol violations)
// with structured fields, so a busy system stays quiet by default.
//
// Example Usage:
//
//	log := logging.NewDefault()
//	log.Info("admin server listening", zap.String("addr", addr))
package logging
