package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes used as the status label.
const (
	StatusOK        = "ok"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Metrics holds the executor's collectors. Each instance owns its registry,
// so several executors (and tests) never collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts plan executions by plan and status.
	RequestsTotal *prometheus.CounterVec
	// RowsTotal counts rows delivered by the root operator.
	RowsTotal *prometheus.CounterVec
	// RequestDuration is the wall time of one execution.
	RequestDuration *prometheus.HistogramVec
	// InFlight is the number of executions currently running.
	InFlight prometheus.Gauge
}

// New registers the collectors under namespace on a fresh registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of plan executions",
			},
			[]string{"plan", "status"},
		),
		RowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_total",
				Help:      "Total number of rows returned by plan executions",
			},
			[]string{"plan"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Plan execution latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"plan"},
		),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Plan executions currently running",
		}),
	}
}

// Observe records one finished execution.
func (m *Metrics) Observe(plan, status string, rows int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(plan, status).Inc()
	m.RowsTotal.WithLabelValues(plan).Add(float64(rows))
	m.RequestDuration.WithLabelValues(plan).Observe(elapsed.Seconds())
}

// Registry exposes the registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
