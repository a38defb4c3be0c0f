// Package middleware provides cross-cutting concerns for the tournament
// engine: Prometheus metrics and OpenTelemetry tracing around the refresh
// cycle.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-shiai/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of refresh cycles, report
// generation, and entities excluded for invariant violations.
type PrometheusMetrics struct {
	refreshLatency   *prometheus.HistogramVec
	reportsGenerated *prometheus.CounterVec
	levelsDrawn      *prometheus.CounterVec
	entitiesExcluded *prometheus.CounterVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all required metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		refreshLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shiai_refresh_duration_seconds",
				Help:    "Execution time of category refresh cycles.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "category"},
		),
		reportsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shiai_reports_generated_total",
				Help: "Total number of category reports regenerated.",
			},
			[]string{"category", "discipline"},
		),
		levelsDrawn: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shiai_levels_drawn_total",
				Help: "Total number of next-level draws generated.",
			},
			[]string{"category", "level"},
		),
		entitiesExcluded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shiai_entities_excluded_total",
				Help: "Total number of entities excluded from rankings for invariant violations.",
			},
			[]string{"category"},
		),
		operationCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shiai_operations_total",
				Help: "Total number of engine operations performed.",
			},
			[]string{"operation", "category"},
		),
		systemGauges: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shiai_system_state",
				Help: "Current engine state values.",
			},
			[]string{"metric", "category"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.refreshLatency.WithLabelValues(operation, labels["category"]).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	category := labels["category"]
	switch metric {
	case "reports_generated_total":
		pm.reportsGenerated.WithLabelValues(category, labels["discipline"]).Add(value)
	case "levels_drawn_total":
		pm.levelsDrawn.WithLabelValues(category, labels["level"]).Add(value)
	case "entities_excluded_total":
		pm.entitiesExcluded.WithLabelValues(category).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, category).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.systemGauges.WithLabelValues(metric, labels["category"]).Set(value)
}
