package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Blueprint metrics
	Mutations *prometheus.CounterVec
	Imports   *prometheus.CounterVec
	Exports   *prometheus.CounterVec

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsCreated *prometheus.CounterVec
	SessionsExpired prometheus.Counter

	// Registry metrics
	RegistryPlugins prometheus.Gauge

	// Recent list metrics
	RecentSaves prometheus.Counter

	// Upstream metrics
	UpstreamCalls    *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON API
type Snapshot struct {
	TotalRequests   int64   `json:"total_requests"`
	TotalErrors     int64   `json:"total_errors"`
	TotalMutations  int64   `json:"total_mutations"`
	ActiveSessions  int64   `json:"active_sessions"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
	UptimeSeconds   float64 `json:"uptime_seconds"`
	totalDurationMs float64
}

// NewMetrics creates a metrics collector backed by its own registry, so
// several collectors can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cradle_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cradle_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cradle_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cradle_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Blueprint metrics
		Mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cradle_blueprint_actions_total",
				Help: "Blueprint store actions by kind and effect",
			},
			[]string{"kind", "effect"},
		),
		Imports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cradle_blueprint_imports_total",
				Help: "Blueprint imports by outcome",
			},
			[]string{"status"},
		),
		Exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cradle_blueprint_exports_total",
				Help: "Blueprint exports by format",
			},
			[]string{"format"},
		),

		// Session metrics
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cradle_sessions_active",
				Help: "Number of live editing sessions",
			},
		),
		SessionsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cradle_sessions_created_total",
				Help: "Editing sessions created, by starting template",
			},
			[]string{"template"},
		),
		SessionsExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cradle_sessions_expired_total",
				Help: "Editing sessions removed for idleness",
			},
		),

		// Registry metrics
		RegistryPlugins: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cradle_registry_plugins",
				Help: "Number of node types in the catalog",
			},
		),

		RecentSaves: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cradle_recent_saves_total",
				Help: "Blueprints pushed to a recent list",
			},
		),

		// Upstream metrics
		UpstreamCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cradle_upstream_calls_total",
				Help: "Calls to upstream services by status",
			},
			[]string{"service", "status"},
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cradle_upstream_duration_seconds",
				Help:    "Upstream call duration in seconds",
				Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"service"},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cradle_ws_connections",
				Help: "Number of open snapshot streams",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cradle_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "cradle_uptime_seconds",
			Help: "Backend uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.totalDurationMs += float64(duration.Microseconds()) / 1000
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordMutation records one store dispatch. It matches the store observer
// signature once the effect is rendered as a string.
func (m *Metrics) RecordMutation(kind, effect string) {
	m.Mutations.WithLabelValues(kind, effect).Inc()
	if effect == "graph" {
		m.mu.Lock()
		m.snapshot.TotalMutations++
		m.mu.Unlock()
	}
}

// RecordImport records an import attempt.
func (m *Metrics) RecordImport(ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.Imports.WithLabelValues(status).Inc()
}

// RecordExport records an export.
func (m *Metrics) RecordExport(format string) {
	m.Exports.WithLabelValues(format).Inc()
}

// RecordUpstreamCall records one upstream call. status is the HTTP status
// or "error" when no response was received.
func (m *Metrics) RecordUpstreamCall(service, status string, duration time.Duration) {
	m.UpstreamCalls.WithLabelValues(service, status).Inc()
	m.UpstreamDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// SetSessionsActive sets the number of live sessions
func (m *Metrics) SetSessionsActive(count int) {
	m.SessionsActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveSessions = int64(count)
	m.mu.Unlock()
}

// IncSessionsCreated counts a new session.
func (m *Metrics) IncSessionsCreated(template string) {
	if template == "" {
		template = "none"
	}
	m.SessionsCreated.WithLabelValues(template).Inc()
}

// AddSessionsExpired counts sessions removed by the idle sweep.
func (m *Metrics) AddSessionsExpired(n int) {
	m.SessionsExpired.Add(float64(n))
}

// SetRegistryPlugins sets the catalog size
func (m *Metrics) SetRegistryPlugins(count int) {
	m.RegistryPlugins.Set(float64(count))
}

// IncRecentSaves counts a recent list push.
func (m *Metrics) IncRecentSaves() {
	m.RecentSaves.Inc()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
}

// Snapshot returns the current summary values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	if s.TotalRequests > 0 {
		s.AvgLatencyMs = s.totalDurationMs / float64(s.TotalRequests)
	}
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
