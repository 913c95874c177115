// Package metrics defines the Prometheus collectors for the Argus detection
// engines. All metrics are registered automatically via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "argus",
			Name:      "events_processed_total",
			Help:      "Total number of events processed per engine",
		},
		[]string{"engine"},
	)

	AlertsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "argus",
			Name:      "alerts_generated_total",
			Help:      "Total number of detection alerts generated",
		},
		[]string{"engine", "severity"},
	)

	// EvaluationErrors counts per-rule evaluation failures. A silently
	// broken rule contributes zero matches forever; this counter is how
	// operators notice.
	EvaluationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "argus",
			Name:      "rule_evaluation_errors_total",
			Help:      "Total number of per-rule evaluation errors",
		},
		[]string{"engine", "rule_id"},
	)

	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "argus",
			Name:      "event_evaluation_duration_seconds",
			Help:      "Time spent evaluating a single event against all rules",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
		[]string{"engine"},
	)

	ActiveWindows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "argus",
			Name:      "correlation_active_windows",
			Help:      "Current number of open correlation windows",
		},
	)

	WindowsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "argus",
			Name:      "correlation_windows_evicted_total",
			Help:      "Total number of correlation windows evicted by cleanup",
		},
	)

	ActionsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "argus",
			Name:      "actions_dispatched_total",
			Help:      "Total number of correlation actions dispatched",
		},
		[]string{"action"},
	)

	SigmaCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "argus",
			Subsystem: "sigma",
			Name:      "verdict_cache_hits_total",
			Help:      "Total number of sigma verdict cache hits",
		},
	)

	SigmaCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "argus",
			Subsystem: "sigma",
			Name:      "verdict_cache_misses_total",
			Help:      "Total number of sigma verdict cache misses",
		},
	)

	WorkerPoolActiveWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "argus",
			Name:      "worker_pool_active_workers",
			Help:      "Number of active workers per pool",
		},
		[]string{"pool"},
	)

	WorkerPoolQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "argus",
			Name:      "worker_pool_queue_depth",
			Help:      "Current task queue depth per pool",
		},
		[]string{"pool"},
	)

	WorkerPoolTasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "argus",
			Name:      "worker_pool_tasks_processed_total",
			Help:      "Total number of tasks processed per pool",
		},
		[]string{"pool"},
	)
)
