package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction routing metrics
	TransactionsTotal *prometheus.CounterVec
	CommandFailures   *prometheus.CounterVec
	WriteBytes        prometheus.Counter
	ReadBytes         prometheus.Counter

	// Process lifecycle metrics
	ProcessesActive prometheus.Gauge
	ProcessesTotal  prometheus.Counter

	// Looper pool metrics
	LoopersActive   prometheus.Gauge
	LoopersPending  prometheus.Gauge
	SpawnsSignalled prometheus.Counter

	// Death notification metrics
	DeathNotices prometheus.Counter

	// Admin HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// System metrics
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON admin API
type Snapshot struct {
	TransactionsRouted int64   `json:"transactions_routed"`
	CommandFailures    int64   `json:"command_failures"`
	DeathNotices       int64   `json:"death_notices"`
	ActiveProcesses    int64   `json:"active_processes"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		TransactionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "binderd_transactions_total",
				Help: "Total number of transactions routed",
			},
			[]string{"opcode", "one_way"},
		),
		CommandFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "binderd_command_failures_total",
				Help: "Per-command failures surfaced through last-error",
			},
			[]string{"kind"},
		),
		WriteBytes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "binderd_write_bytes_total",
				Help: "Transaction payload bytes accepted on the write side",
			},
		),
		ReadBytes: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "binderd_read_bytes_total",
				Help: "Bytes serialised into read buffers",
			},
		),

		ProcessesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "binderd_processes_active",
				Help: "Number of open process records",
			},
		),
		ProcessesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "binderd_processes_total",
				Help: "Total number of process records opened",
			},
		),

		LoopersActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "binderd_loopers_active",
				Help: "Workers currently inside the read loop",
			},
		),
		LoopersPending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "binderd_loopers_pending",
				Help: "Spawn requests emitted but not yet honoured",
			},
		),
		SpawnsSignalled: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "binderd_spawns_signalled_total",
				Help: "BR_SPAWN_LOOPER hints emitted",
			},
		),

		DeathNotices: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "binderd_death_notices_total",
				Help: "Dead-binder notices delivered to notifiers",
			},
		),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "binderd_http_requests_total",
				Help: "Total number of admin HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "binderd_http_request_duration_seconds",
				Help:    "Admin HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),
	}
}

// TransactionRouted records a routed transaction or reply.
func (m *Metrics) TransactionRouted(opcode string, oneWay bool) {
	label := "false"
	if oneWay {
		label = "true"
	}
	m.TransactionsTotal.WithLabelValues(opcode, label).Inc()

	m.mu.Lock()
	m.snapshot.TransactionsRouted++
	m.mu.Unlock()
}

// CommandFailed records a per-command failure.
func (m *Metrics) CommandFailed(kind string) {
	m.CommandFailures.WithLabelValues(kind).Inc()

	m.mu.Lock()
	m.snapshot.CommandFailures++
	m.mu.Unlock()
}

// BytesWritten records payload bytes accepted on the write side.
func (m *Metrics) BytesWritten(n int) {
	m.WriteBytes.Add(float64(n))
}

// BytesRead records bytes serialised into a read buffer.
func (m *Metrics) BytesRead(n int) {
	m.ReadBytes.Add(float64(n))
}

// ProcessOpened records a new process record.
func (m *Metrics) ProcessOpened() {
	m.ProcessesActive.Inc()
	m.ProcessesTotal.Inc()

	m.mu.Lock()
	m.snapshot.ActiveProcesses++
	m.mu.Unlock()
}

// ProcessReleased records a released process record.
func (m *Metrics) ProcessReleased() {
	m.ProcessesActive.Dec()

	m.mu.Lock()
	m.snapshot.ActiveProcesses--
	m.mu.Unlock()
}

// SetLoopers records the looper pool state of the process that reported
// last; the gauges are not aggregated across processes.
func (m *Metrics) SetLoopers(active, pending int) {
	m.LoopersActive.Set(float64(active))
	m.LoopersPending.Set(float64(pending))
}

// SpawnSignalled records an emitted spawn hint.
func (m *Metrics) SpawnSignalled() {
	m.SpawnsSignalled.Inc()
}

// DeathNotified records a delivered dead-binder notice.
func (m *Metrics) DeathNotified() {
	m.DeathNotices.Inc()

	m.mu.Lock()
	m.snapshot.DeathNotices++
	m.mu.Unlock()
}

// RecordHTTPRequest records an admin HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// GetSnapshot returns current metric values for the JSON admin API.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
