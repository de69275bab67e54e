// Package metrics exposes Prometheus instrumentation for the ledger engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerMutations counts applied and reversed transaction effects,
	// labeled by transaction kind (expense, settlement) and operation
	// (apply, reverse, replace).
	LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splitpot_ledger_mutations_total",
		Help: "Number of ledger effects applied or reversed.",
	}, []string{"kind", "op"})

	// InvariantViolations counts detected zero-sum violations. Any nonzero
	// value indicates a defect in the balance mutator.
	InvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitpot_ledger_invariant_violations_total",
		Help: "Number of detected zero-sum invariant violations.",
	})

	// SimplifyDuration observes debt simplification runs.
	SimplifyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitpot_debt_simplify_duration_seconds",
		Help:    "Duration of debt simplification runs.",
		Buckets: prometheus.DefBuckets,
	})
)
