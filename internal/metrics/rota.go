// Package metrics exposes Prometheus metrics for rota runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RotaRunsTotal counts rota runs by mode and outcome.
	RotaRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_runs_total",
		Help: "Total number of rota runs, by mode (generate/continue) and status.",
	}, []string{"mode", "status"})

	// RotaRunDuration observes how long a run held the rota lock.
	RotaRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rota_run_duration_seconds",
		Help:    "Duration of rota runs in seconds, by mode.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"mode"})

	// RotaAssignmentsTotal counts committed talk bindings by the phase that made them.
	RotaAssignmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_assignments_total",
		Help: "Total number of talk-to-recorder bindings committed, by phase.",
	}, []string{"phase"})

	// RotaRejectionsTotal counts selector rejections by reason.
	RotaRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_rejections_total",
		Help: "Total number of recorder candidates rejected by the selector, by reason.",
	}, []string{"reason"})

	// RotaUnassignedTalks is the number of talks left without a recorder after the last run.
	RotaUnassignedTalks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "rota_unassigned_talks",
		Help: "Talks without a recorder after the last committed run, by kind (priority/additional).",
	}, []string{"kind"})

	// RotaOverridesTotal counts manual override attempts by outcome.
	RotaOverridesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_overrides_total",
		Help: "Total number of manual recorder overrides, by action and outcome.",
	}, []string{"action", "outcome"})
)

// ObserveRun records the outcome and duration of a run.
func ObserveRun(mode, status string, d time.Duration) {
	RotaRunsTotal.WithLabelValues(mode, status).Inc()
	RotaRunDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordAssignment increments the assignment counter for a phase.
func RecordAssignment(phase string) {
	RotaAssignmentsTotal.WithLabelValues(phase).Inc()
}

// RecordRejection increments the rejection counter.
func RecordRejection(reason string) {
	RotaRejectionsTotal.WithLabelValues(reason).Inc()
}

// SetUnassigned publishes the remaining gaps in the rota.
func SetUnassigned(priority, additional int) {
	RotaUnassignedTalks.WithLabelValues("priority").Set(float64(priority))
	RotaUnassignedTalks.WithLabelValues("additional").Set(float64(additional))
}

// RecordOverride increments the override counter.
func RecordOverride(action, outcome string) {
	RotaOverridesTotal.WithLabelValues(action, outcome).Inc()
}
