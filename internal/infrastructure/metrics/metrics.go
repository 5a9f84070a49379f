// Package metrics exposes the Prometheus collectors for the quota engine and its HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "saathi"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Quota metrics
var (
	QuotaDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_decisions_total",
			Help:      "Total number of quota decisions by resource kind, outcome and deny reason",
		},
		[]string{"kind", "outcome", "reason"},
	)

	RenewalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renewals_total",
			Help:      "Total number of applied renewals by mode",
		},
		[]string{"mode"},
	)

	ConflictRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflict_retries_total",
			Help:      "Total number of retries caused by concurrent update conflicts",
		},
		[]string{"operation"},
	)

	LedgerEventsPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_events_purged_total",
			Help:      "Total number of usage events deleted by the retention job",
		},
	)
)

// Recorder records quota metrics into the package collectors.
type Recorder struct{}

// NewRecorder returns a recorder backed by the default registry.
func NewRecorder() Recorder {
	return Recorder{}
}

// RecordDecision counts one quota decision. reason is empty for allowed decisions.
func (Recorder) RecordDecision(kind, outcome, reason string) {
	QuotaDecisionsTotal.WithLabelValues(kind, outcome, reason).Inc()
}

// RecordRenewal counts one applied renewal.
func (Recorder) RecordRenewal(mode string) {
	RenewalsTotal.WithLabelValues(mode).Inc()
}

// RecordConflictRetry counts one retry of operation after a conflict.
func (Recorder) RecordConflictRetry(operation string) {
	ConflictRetriesTotal.WithLabelValues(operation).Inc()
}
