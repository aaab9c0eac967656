/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the
dispatcher, tracking transaction routing, queue traffic, looper pool
state, death notifications, and admin HTTP requests.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to the admin Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record dispatcher metrics
	metrics.TransactionRouted("BC_TRANSACTION", false)
	metrics.SetLoopers(3, 1)

All metrics are registered with the default Prometheus registry and are
exposed on the admin API's /metrics endpoint.
*/
package monitoring
