package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ledgerCreditsTotal,
		ledgerCreditVolume,
		affiliateConversionsTotal,
	)
}

var (
	ledgerCreditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_movements_total",
			Help: "Ledger movements appended, by type (credit/debit).",
		},
		[]string{"type"},
	)

	ledgerCreditVolume = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_credit_volume_total",
			Help: "Net monetary value credited to merchant ledgers, by currency.",
		},
		[]string{"currency"},
	)

	affiliateConversionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "affiliate_conversions_total",
			Help: "Affiliate commission records written by the reconciler.",
		},
	)
)

func IncLedgerMovement(movementType string) {
	ledgerCreditsTotal.WithLabelValues(norm(movementType)).Inc()
}

func AddLedgerCreditVolume(currency string, amount float64) {
	ledgerCreditVolume.WithLabelValues(norm(currency)).Add(amount)
}

func IncAffiliateConversion() {
	affiliateConversionsTotal.Inc()
}
