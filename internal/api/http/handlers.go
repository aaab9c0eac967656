package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openmesa/binderd/internal/device"
	"github.com/openmesa/binderd/internal/infrastructure/monitoring"
	"github.com/openmesa/binderd/internal/ipc/wire"
)

// Handlers serves the admin API endpoints.
type Handlers struct {
	device  *device.Device
	metrics *monitoring.Metrics
	started time.Time
}

// NewHandlers creates the admin API handlers.
func NewHandlers(dev *device.Device, metrics *monitoring.Metrics) *Handlers {
	return &Handlers{
		device:  dev,
		metrics: metrics,
		started: time.Now(),
	}
}

// Register mounts the admin routes on the router.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/processes", h.Processes)
	r.GET("/stats", h.Stats)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"version":  wire.ProtocolVersion,
		"uptime_s": time.Since(h.started).Seconds(),
	})
}

// Processes returns a snapshot of every open process record.
func (h *Handlers) Processes(c *gin.Context) {
	snaps := h.device.Snapshots()
	c.JSON(http.StatusOK, gin.H{
		"count":     len(snaps),
		"processes": snaps,
	})
}

// Stats returns the JSON metrics snapshot.
func (h *Handlers) Stats(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.metrics.GetSnapshot())
}
