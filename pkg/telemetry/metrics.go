// Package telemetry records per-run pipeline metrics in a private Prometheus
// registry. A one-shot command cannot be scraped, so the registry is written
// out in the node-exporter textfile format instead of being served.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	ticks    *prometheus.CounterVec
}

// New creates the collectors and registers them in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "texmaps_runs_total",
			Help: "Pipeline runs by operation and final status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "texmaps_run_duration_seconds",
			Help:    "Wall time of successful pipeline runs.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}, []string{"operation"}),
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "texmaps_progress_ticks_total",
			Help: "Progress ticks delivered to a sink.",
		}, []string{"operation"}),
	}
	m.registry.MustRegister(m.runs, m.duration, m.ticks)
	return m
}

// ObserveRun records the outcome of one run. status is "ok" or the failing stage.
func (m *Metrics) ObserveRun(operation, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(operation, status).Inc()
	if status == "ok" {
		m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
	}
}

// ObserveTick counts one delivered progress tick.
func (m *Metrics) ObserveTick(operation string) {
	if m == nil {
		return
	}
	m.ticks.WithLabelValues(operation).Inc()
}

// Gatherer exposes the registry, e.g. for tests or an HTTP handler.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.registry }

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
