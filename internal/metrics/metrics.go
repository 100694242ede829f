package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	DeliveriesAcceptedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deliveries_accepted_total",
			Help: "Total number of delivery requests accepted and recorded",
		},
	)

	DeliveriesRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_rejected_total",
			Help: "Total number of deliver requests rejected, by reason; counts the deliver operation only, not read or admin endpoints",
		},
		[]string{"reason"},
	)

	FraudVerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fraud_verdicts_total",
			Help: "Total number of non-clean fraud verdicts, by kind",
		},
		[]string{"kind"},
	)

	AuthorizationsConsumedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "authorizations_consumed_total",
			Help: "Total number of admin authorizations consumed by a delivery",
		},
	)

	NotificationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of best-effort delivery notifications that failed",
		},
	)

	DeliverDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "deliver_duration_seconds",
			Help:    "Duration of the deliver operation end to end",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all Prometheus metrics.
func Register() {
	prometheus.MustRegister(DeliveriesAcceptedTotal)
	prometheus.MustRegister(DeliveriesRejectedTotal)
	prometheus.MustRegister(FraudVerdictsTotal)
	prometheus.MustRegister(AuthorizationsConsumedTotal)
	prometheus.MustRegister(NotificationFailuresTotal)
	prometheus.MustRegister(DeliverDuration)
}
