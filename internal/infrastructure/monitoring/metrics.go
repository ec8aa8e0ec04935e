package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/deskview/internal/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var statuses = []transport.Status{
	transport.StatusDisconnected,
	transport.StatusConnecting,
	transport.StatusConnected,
	transport.StatusReconnecting,
}

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics (inspection API)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Connection metrics
	ConnectionStatus *prometheus.GaugeVec
	Frames           *prometheus.CounterVec
	Reconnects       prometheus.Counter
	ReconnectDelay   prometheus.Histogram

	// Command metrics
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec

	// Desktop metrics
	Windows      prometheus.Gauge
	Apps         prometheus.Gauge
	StateVersion prometheus.Gauge

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	FramesDecoded      int64  `json:"frames_decoded"`
	FramesDropped      int64  `json:"frames_dropped"`
	Reconnects         int64  `json:"reconnects"`
	LastReconnectDelay string `json:"last_reconnect_delay,omitempty"`
	Commands           int64  `json:"commands"`
	CommandErrors      int64  `json:"command_errors"`
	UptimeSeconds      int64  `json:"uptime_seconds"`
}

// NewMetrics creates a collector on its own registry. A nil registry gets
// a fresh one, so tests and multiple sessions never collide.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskview_http_requests_total",
				Help: "Total number of inspection API requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskview_http_request_duration_seconds",
				Help:    "Inspection API request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),

		ConnectionStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deskview_connection_status",
				Help: "1 for the current connection status, 0 otherwise",
			},
			[]string{"status"},
		),
		Frames: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskview_frames_total",
				Help: "Inbound frames by message type and decode result",
			},
			[]string{"type", "result"},
		),
		Reconnects: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "deskview_reconnects_total",
				Help: "Total number of scheduled reconnect attempts",
			},
		),
		ReconnectDelay: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deskview_reconnect_delay_seconds",
				Help:    "Backoff delay of scheduled reconnects",
				Buckets: []float64{.5, 1, 2, 4, 5, 10, 30},
			},
		),

		Commands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskview_commands_total",
				Help: "Commands sent to the desktop API by operation and result",
			},
			[]string{"op", "result"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskview_command_duration_seconds",
				Help:    "Command round-trip duration in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),

		Windows: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskview_windows",
				Help: "Windows in the local desktop mirror",
			},
		),
		Apps: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskview_apps",
				Help: "Apps registered in the local desktop mirror",
			},
		),
		StateVersion: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskview_state_version",
				Help: "Number of state changes applied to the mirror",
			},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "deskview_uptime_seconds",
			Help: "Viewer uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.OnStatus(transport.StatusDisconnected)
	return m
}

// Registry returns the registry the metrics live in
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// OnStatus records the current connection status
func (m *Metrics) OnStatus(status transport.Status) {
	for _, s := range statuses {
		value := 0.0
		if s == status {
			value = 1
		}
		m.ConnectionStatus.WithLabelValues(s.String()).Set(value)
	}
}

// OnFrame records one inbound frame
func (m *Metrics) OnFrame(kind string, decoded bool) {
	result := "decoded"
	if !decoded {
		result = "dropped"
	}
	if kind == "" {
		kind = "none"
	}
	m.Frames.WithLabelValues(kind, result).Inc()

	m.mu.Lock()
	if decoded {
		m.snapshot.FramesDecoded++
	} else {
		m.snapshot.FramesDropped++
	}
	m.mu.Unlock()
}

// OnReconnectScheduled records a reconnect attempt and its delay
func (m *Metrics) OnReconnectScheduled(_ int, delay time.Duration) {
	m.Reconnects.Inc()
	m.ReconnectDelay.Observe(delay.Seconds())

	m.mu.Lock()
	m.snapshot.Reconnects++
	m.snapshot.LastReconnectDelay = delay.String()
	m.mu.Unlock()
}

// OnCommand records a command outcome
func (m *Metrics) OnCommand(op string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.Commands.WithLabelValues(op, result).Inc()
	m.CommandDuration.WithLabelValues(op).Observe(elapsed.Seconds())

	m.mu.Lock()
	m.snapshot.Commands++
	if err != nil {
		m.snapshot.CommandErrors++
	}
	m.mu.Unlock()
}

// RecordDesktop records the size and version of the mirror
func (m *Metrics) RecordDesktop(windows, apps int, version uint64) {
	m.Windows.Set(float64(windows))
	m.Apps.Set(float64(apps))
	m.StateVersion.Set(float64(version))
}

// RecordHTTPRequest records an inspection API request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// Snapshot returns the JSON view of the counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = int64(time.Since(m.startTime).Seconds())
	return s
}
