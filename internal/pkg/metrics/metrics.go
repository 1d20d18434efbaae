// Package metrics registers the Prometheus collectors of the attendance engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	punchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_punch_total",
		Help: "Punches processed by type, source and result",
	}, []string{"punch_type", "source", "result"})

	summaryRecomputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_summary_recompute_total",
		Help: "Daily summary recomputations by trigger and outcome",
	}, []string{"trigger", "outcome"})

	backfillDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attendance_backfill_duration_seconds",
		Help:    "Time spent back-filling missing daily summaries",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
	}, []string{"operation"})

	backfillSummaries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "attendance_backfill_summaries_total",
		Help: "Daily summaries created by back-fill",
	})

	periodLockTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_period_lock_operations_total",
		Help: "Period lock and unlock operations",
	}, []string{"operation"})

	regularizationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "attendance_regularization_total",
		Help: "Regularization requests by action",
	}, []string{"action"})
)

func ObservePunch(punchType, source, result string) {
	punchTotal.WithLabelValues(punchType, source, result).Inc()
}

// ObserveRecompute records one summary recomputation. outcome is "updated"
// or "skipped_locked".
func ObserveRecompute(trigger, outcome string) {
	summaryRecomputeTotal.WithLabelValues(trigger, outcome).Inc()
}

func ObserveBackfill(operation string, started time.Time, created int) {
	backfillDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	backfillSummaries.Add(float64(created))
}

func ObservePeriodLock(operation string) {
	periodLockTotal.WithLabelValues(operation).Inc()
}

func ObserveRegularization(action string) {
	regularizationTotal.WithLabelValues(action).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
