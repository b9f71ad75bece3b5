package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionsExpiredTotal,
		subscriptionRenewalsTotal,
	)
}

var (
	subscriptionsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_expired_total",
			Help: "Total number of subscriptions swept to expired.",
		},
	)

	subscriptionRenewalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_renewals_total",
			Help: "Subscription grants applied by the reconciler (first/renewal).",
		},
		[]string{"kind"},
	)
)

func IncSubscriptionsExpired(count int) {
	subscriptionsExpiredTotal.Add(float64(count))
}

func IncSubscriptionRenewal(kind string) {
	subscriptionRenewalsTotal.WithLabelValues(norm(kind)).Inc()
}
