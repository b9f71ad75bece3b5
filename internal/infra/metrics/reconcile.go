package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		reconcileOutcomesTotal,
		reconcileDuration,
		webhookDuplicatesTotal,
		storageRetriesTotal,
	)
}

var (
	reconcileOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_outcomes_total",
			Help: "Reconciliation results by outcome (applied/duplicate/rejected/failed).",
		},
		[]string{"outcome"},
	)

	reconcileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reconcile_duration_ms",
			Help:    "Wall time of a reconcile call in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
		},
	)

	webhookDuplicatesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "webhook_duplicates_total",
			Help: "Re-delivered provider events short-circuited by the idempotency guard.",
		},
	)

	storageRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storage_retries_total",
			Help: "Transient storage faults retried by the backoff decorator, by operation.",
		},
		[]string{"op"},
	)
)

func IncReconcileOutcome(outcome string) {
	reconcileOutcomesTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveReconcileDuration(ms float64) {
	reconcileDuration.Observe(ms)
}

func IncWebhookDuplicate() {
	webhookDuplicatesTotal.Inc()
}

func IncStorageRetry(op string) {
	storageRetriesTotal.WithLabelValues(norm(op)).Inc()
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
