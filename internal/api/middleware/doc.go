// Package middleware provides HTTP middleware for the admin API: CORS
// handling and request rate limiting.
package middleware
