// Package observability provides Prometheus metrics for the risk platform.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Risk calculation metrics
	CalculationsTotal   *prometheus.CounterVec
	CalculationDuration *prometheus.HistogramVec

	// Import metrics
	ImportsTotal    *prometheus.CounterVec
	ImportRowsTotal prometheus.Counter

	// Explanation metrics
	ExplanationsTotal *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on its own registry,
// so that several instances can coexist (e.g. in tests).
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "risk_platform"
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		CalculationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "calculations_total",
			Help:      "Total number of risk metric calculations by metric and outcome",
		}, []string{"metric", "outcome"}),
		CalculationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "risk",
			Name:      "calculation_duration_seconds",
			Help:      "Duration of risk metric calculations",
			Buckets:   []float64{.00001, .0001, .001, .01, .1, 1},
		}, []string{"metric"}),

		ImportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "etl",
			Name:      "imports_total",
			Help:      "Total number of file imports by format and outcome",
		}, []string{"format", "outcome"}),
		ImportRowsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "etl",
			Name:      "import_rows_total",
			Help:      "Total number of data rows read from imported files",
		}),

		ExplanationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "explain",
			Name:      "explanations_total",
			Help:      "Total number of metric explanation attempts by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveCalculation records one calculation
func (m *Metrics) ObserveCalculation(metric, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CalculationsTotal.WithLabelValues(metric, outcome).Inc()
	m.CalculationDuration.WithLabelValues(metric).Observe(elapsed.Seconds())
}

// ObserveImport records one file import
func (m *Metrics) ObserveImport(format, outcome string, rows int) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(format, outcome).Inc()
	if rows > 0 {
		m.ImportRowsTotal.Add(float64(rows))
	}
}

// ObserveExplanation records one explanation attempt
func (m *Metrics) ObserveExplanation(outcome string) {
	if m == nil {
		return
	}
	m.ExplanationsTotal.WithLabelValues(outcome).Inc()
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
