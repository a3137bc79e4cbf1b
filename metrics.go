package bserve

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the Prometheus collectors updated by the dispatcher and the server. A nil *Metrics
// records nothing.
type Metrics struct {
	RequestsTotal     *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	FailuresTotal     *prometheus.CounterVec
	ConnectionsActive prometheus.Gauge
}

// NewMetrics inits the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bserve_requests_total",
				Help: "Total dispatched requests",
			},
			[]string{"method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bserve_request_duration_seconds",
				Help:    "Dispatch duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		FailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bserve_failures_total",
				Help: "Failures handed to error recovery",
			},
			[]string{"kind"},
		),
		ConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bserve_connections_active",
				Help: "Open client connections",
			},
		),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.FailuresTotal, m.ConnectionsActive)

	return m
}

func (m *Metrics) observeRequest(method string, status int, took time.Duration) {
	if m == nil {
		return
	}

	m.RequestsTotal.WithLabelValues(method, statusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(took.Seconds())
}

func (m *Metrics) observeFailure(kind FailureKind) {
	if m == nil {
		return
	}

	m.FailuresTotal.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) connOpened() {
	if m == nil {
		return
	}

	m.ConnectionsActive.Inc()
}

func (m *Metrics) connClosed() {
	if m == nil {
		return
	}

	m.ConnectionsActive.Dec()
}

// statusClass turns 404 into "4xx".
func statusClass(code int) string {
	if code < 100 || code > 999 {
		return "unknown"
	}

	return strconv.Itoa(code/100) + "xx"
}
