// Package http provides the read-only admin and introspection API for
// the dispatcher: liveness, per-process state snapshots, and Prometheus
// metrics. The kernel original surfaced this through debugfs; a local
// HTTP endpoint is the user-space equivalent.
package http
