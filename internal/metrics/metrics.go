// Package metrics exposes the module's Prometheus collectors: command
// throughput/latency, safety-violation counts, and telemetry staleness.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector this module registers.
type Metrics struct {
	CommandsTotal    *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
	CommandsActive   prometheus.Gauge
	SafetyViolations *prometheus.CounterVec
	GeofenceRejects  *prometheus.CounterVec
	TelemetryStaleness prometheus.Gauge
	ConnectionStatus prometheus.Gauge
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Get returns the process-wide Metrics instance, registering its
// collectors on the default registry the first time it's called.
func Get() *Metrics {
	globalOnce.Do(func() {
		global = newMetrics()
	})
	return global
}

func newMetrics() *Metrics {
	m := &Metrics{}

	m.CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vehiclecore",
			Subsystem: "command",
			Name:      "total",
			Help:      "Total vehicle commands issued, by name and terminal status",
		},
		[]string{"command", "status"},
	)

	m.CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vehiclecore",
			Subsystem: "command",
			Name:      "duration_seconds",
			Help:      "Command duration from issue to terminal state",
			Buckets:   []float64{.1, .5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"command"},
	)

	m.CommandsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vehiclecore",
			Subsystem: "command",
			Name:      "active",
			Help:      "Number of commands currently running",
		},
	)

	m.SafetyViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vehiclecore",
			Subsystem: "safety",
			Name:      "violations_total",
			Help:      "Safety monitor violations, by type",
		},
		[]string{"type"},
	)

	m.GeofenceRejects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vehiclecore",
			Subsystem: "geofence",
			Name:      "rejects_total",
			Help:      "Commands rejected by geofence validation, by operation",
		},
		[]string{"operation"},
	)

	m.TelemetryStaleness = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vehiclecore",
			Subsystem: "telemetry",
			Name:      "staleness_seconds",
			Help:      "Time since the last telemetry update was applied",
		},
	)

	m.ConnectionStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vehiclecore",
			Subsystem: "link",
			Name:      "connected",
			Help:      "1 if the vehicle link is connected, 0 otherwise",
		},
	)

	return m
}

// Handler returns the HTTP handler to serve on a /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCommand records a terminal command outcome and its duration.
func (m *Metrics) RecordCommand(command, status string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(command, status).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordViolation records one safety-monitor violation of the given type.
func (m *Metrics) RecordViolation(violationType string) {
	m.SafetyViolations.WithLabelValues(violationType).Inc()
}

// RecordGeofenceReject records one geofence-rejected operation.
func (m *Metrics) RecordGeofenceReject(operation string) {
	m.GeofenceRejects.WithLabelValues(operation).Inc()
}

// SetConnected updates the link-connected gauge.
func (m *Metrics) SetConnected(connected bool) {
	if connected {
		m.ConnectionStatus.Set(1)
	} else {
		m.ConnectionStatus.Set(0)
	}
}

// SetTelemetryStaleness updates the telemetry-staleness gauge from the
// age of the last applied update.
func (m *Metrics) SetTelemetryStaleness(age time.Duration) {
	m.TelemetryStaleness.Set(age.Seconds())
}
