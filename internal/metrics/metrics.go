// Package metrics exposes Prometheus metrics for host changes and caddy reloads.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reload outcomes
const (
	ReloadSuccess = "success"
	ReloadFailure = "failure"
	ReloadTimeout = "timeout"
	ReloadError   = "error"
)

// Host operation results
const (
	ResultOK       = "ok"
	ResultConflict = "conflict"
	ResultError    = "error"
)

// Metrics holds every collector owned by the service
type Metrics struct {
	hosts          prometheus.Gauge
	hostOperations *prometheus.CounterVec
	reloads        *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	caddyUp        prometheus.Gauge
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		hosts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "caddymanager_hosts",
			Help: "Number of host entries found in the Caddyfile at the last read",
		}),
		hostOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caddymanager_host_operations_total",
			Help: "Host registry operations by operation and result",
		}, []string{"operation", "result"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "caddymanager_caddy_reloads_total",
			Help: "Caddy reload attempts by outcome (success, failure, timeout, error)",
		}, []string{"outcome"}),
		reloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "caddymanager_caddy_reload_duration_seconds",
			Help:    "Wall time of caddy reload invocations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		caddyUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "caddymanager_caddy_process_started",
			Help: "1 when a caddy process id was captured at startup, 0 otherwise",
		}),
	}

	reg.MustRegister(m.hosts, m.hostOperations, m.reloads, m.reloadDuration, m.caddyUp)
	return m
}

// SetHosts records the current number of host entries
func (m *Metrics) SetHosts(n int) {
	if m == nil {
		return
	}
	m.hosts.Set(float64(n))
}

// HostOperation counts one registry operation
func (m *Metrics) HostOperation(operation, result string) {
	if m == nil {
		return
	}
	m.hostOperations.WithLabelValues(operation, result).Inc()
}

// Reload counts one reload attempt and its duration
func (m *Metrics) Reload(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.reloads.WithLabelValues(outcome).Inc()
	m.reloadDuration.Observe(elapsed.Seconds())
}

// SetCaddyStarted records whether a caddy process handle is held
func (m *Metrics) SetCaddyStarted(started bool) {
	if m == nil {
		return
	}
	if started {
		m.caddyUp.Set(1)
	} else {
		m.caddyUp.Set(0)
	}
}
