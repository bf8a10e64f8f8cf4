// Package metrics provides Prometheus-backed metric collection for the
// evaluation pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/scrutinium/scrutinium/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks judge request latency, request outcomes, and
// evaluation throughput per provider and model.
type PrometheusMetrics struct {
	requestLatency  *prometheus.HistogramVec
	requestCounter  *prometheus.CounterVec
	evaluationTotal *prometheus.CounterVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all metrics in the global Prometheus registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		requestLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "judge_request_duration_seconds",
				Help:    "Latency of judge model requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "model"},
		),
		requestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "judge_requests_total",
				Help: "Total number of judge model requests by outcome.",
			},
			[]string{"provider", "model", "status"},
		),
		evaluationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaluations_total",
				Help: "Total number of evaluation runs by outcome.",
			},
			[]string{"provider", "status"},
		),
	}
}

// RecordLatency records execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	switch operation {
	case "judge_request":
		pm.requestLatency.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labelOr(labels, "model", "unknown"),
		).Observe(duration.Seconds())
	}
}

// RecordCounter increments a Prometheus counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "judge_requests_total":
		pm.requestCounter.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labelOr(labels, "model", "unknown"),
			labelOr(labels, "status", "unknown"),
		).Add(value)
	case "evaluations_total":
		pm.evaluationTotal.WithLabelValues(
			labelOr(labels, "provider", "unknown"),
			labelOr(labels, "status", "unknown"),
		).Add(value)
	}
}

func labelOr(labels map[string]string, key, fallback string) string {
	if v, ok := labels[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
