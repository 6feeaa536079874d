package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the storefront's payment-flow counters. Everything else
// observable lives under expvar debug vars.
type Metrics struct {
	CheckoutsTotal     *prometheus.CounterVec
	VerificationsTotal *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CheckoutsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pasal",
			Name:      "checkouts_total",
			Help:      "Checkout attempts by result.",
		}, []string{"result"}),
		VerificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pasal",
			Name:      "payment_verifications_total",
			Help:      "Payment callback resolutions by gateway and outcome.",
		}, []string{"gateway", "outcome"}),
	}
}
