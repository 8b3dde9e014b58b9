// Package metrics provides the prometheus instrumentation shared by the HTTP
// client, the upload collection, and the export pipeline. All collectors are
// scoped to a private registry so consuming services decide how to expose it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the prometheus collectors for one collector service. A nil
// *Registry is valid and records nothing, so instrumentation stays optional.
type Registry struct {
	registry *prometheus.Registry

	requestAttempts *prometheus.CounterVec
	requestRetries  *prometheus.CounterVec
	requestOutcomes *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	uploadResults *prometheus.CounterVec
	exportEntries *prometheus.CounterVec
}

// New creates a Registry with all collectors registered under the given
// namespace.
func New(namespace string) *Registry {
	if namespace == "" {
		namespace = "collectorkit"
	}

	registry := prometheus.NewRegistry()
	r := &Registry{
		registry: registry,
		requestAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_attempts_total",
			Help:      "HTTP request attempts, including retries",
		}, []string{"method"}),
		requestRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_retries_total",
			Help:      "HTTP request attempts that were retried",
		}, []string{"method"}),
		requestOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_outcomes_total",
			Help:      "Terminal HTTP request outcomes",
		}, []string{"method", "outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Wall time of completed HTTP requests, retries included",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		uploadResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upload",
			Name:      "results_total",
			Help:      "Per-target upload results",
		}, []string{"target", "outcome"}),
		exportEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "entries_total",
			Help:      "Export pipeline entries by outcome",
		}, []string{"outcome"}),
	}

	registry.MustRegister(
		r.requestAttempts,
		r.requestRetries,
		r.requestOutcomes,
		r.requestDuration,
		r.uploadResults,
		r.exportEntries,
	)
	return r
}

// Gatherer exposes the underlying registry for scraping.
func (r *Registry) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.registry
}

// RecordAttempt counts one HTTP attempt.
func (r *Registry) RecordAttempt(method string) {
	if r == nil {
		return
	}
	r.requestAttempts.WithLabelValues(method).Inc()
}

// RecordRetry counts one retried HTTP attempt.
func (r *Registry) RecordRetry(method string) {
	if r == nil {
		return
	}
	r.requestRetries.WithLabelValues(method).Inc()
}

// RecordOutcome counts one terminal HTTP outcome and observes its duration.
func (r *Registry) RecordOutcome(method string, success bool, duration time.Duration) {
	if r == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	r.requestOutcomes.WithLabelValues(method, outcome).Inc()
	r.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordUpload counts one per-target upload result.
func (r *Registry) RecordUpload(target string, success bool) {
	if r == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	r.uploadResults.WithLabelValues(target, outcome).Inc()
}

// Export entry outcomes.
const (
	ExportOutcomeExported = "exported"
	ExportOutcomeSkipped  = "skipped"
	ExportOutcomeFailed   = "failed"
)

// RecordExport counts one export pipeline entry outcome.
func (r *Registry) RecordExport(outcome string) {
	if r == nil {
		return
	}
	r.exportEntries.WithLabelValues(outcome).Inc()
}
