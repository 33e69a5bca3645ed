// Package metrics declares the Prometheus instruments the service exports.
// Everything is registered against the default registry via promauto and
// scraped through the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "signature"

var (
	// VerificationsTotal counts completed classifications by verdict label.
	VerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifications_total",
		Help:      "Completed signature verifications by verdict label.",
	}, []string{"label"})

	// VerificationRejectionsTotal counts structured worker rejections.
	VerificationRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verification_rejections_total",
		Help:      "Verifications rejected by the worker, by rejection kind.",
	}, []string{"kind"})

	// WorkerFailuresTotal counts dispatches that ended in an internal failure
	// rather than a verdict or a structured rejection.
	WorkerFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_failures_total",
		Help:      "Worker runs that failed without a usable verdict.",
	})

	// VerificationDuration observes end-to-end verification latency including
	// worker runtime, partitioned by outcome.
	VerificationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "verification_duration_seconds",
		Help:      "End-to-end verification latency in seconds.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
	}, []string{"outcome"})

	// SessionRejectionsTotal counts bearer checks that failed, by code.
	SessionRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_rejections_total",
		Help:      "Session validations rejected, by failure code.",
	}, []string{"code"})

	// RateLimitedTotal counts requests turned away by a rate bucket.
	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by rate limiting, by bucket.",
	}, []string{"bucket"})

	// HistoryPersistFailuresTotal counts verdicts that could not be recorded
	// in the ledger. These still succeed from the caller's point of view.
	HistoryPersistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "history_persist_failures_total",
		Help:      "Verification records that failed to persist.",
	})
)
