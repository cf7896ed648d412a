// Package metrics exposes the Prometheus instruments for the bill engine.
// Counters are registered on the default registry and served by the
// /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InstancesGenerated counts instances materialized by the generator.
var InstancesGenerated = promauto.NewCounter(prometheus.CounterOpts{
	Name: "contas_instances_generated_total",
	Help: "Number of bill instances materialized by the generator.",
})

// ReconcileRuns counts completed bill edit-and-reconcile transactions.
var ReconcileRuns = promauto.NewCounter(prometheus.CounterOpts{
	Name: "contas_reconcile_runs_total",
	Help: "Number of bill edits reconciled against existing instances.",
})

// InstancesReconciled counts future instances touched by the reconciler,
// partitioned by outcome.
var InstancesReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "contas_instances_reconciled_total",
	Help: "Number of instances recomputed, deleted or skipped during reconciliation.",
}, []string{"outcome"})

// VersionConflicts counts optimistic-lock losses on bill updates.
var VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Name: "contas_version_conflicts_total",
	Help: "Number of bill updates rejected by the version guard.",
})

// StateTransitions counts instance state machine transitions by kind.
var StateTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "contas_state_transitions_total",
	Help: "Number of instance state transitions (pay, cancel, uncancel, override).",
}, []string{"transition"})

// PaymentsRecorded counts payments written against instances.
var PaymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "contas_payments_recorded_total",
	Help: "Number of payments recorded.",
})

// StatementExports counts statement exports by result.
var StatementExports = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "contas_statement_exports_total",
	Help: "Number of monthly statement exports processed by the worker.",
}, []string{"result"})

// HTTPRequestDuration observes handler latency by route and status class.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "contas_http_request_duration_seconds",
	Help:    "HTTP request latency.",
	Buckets: prometheus.DefBuckets,
}, []string{"route", "status"})
