package sale

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the purchase engine.
type Metrics struct {
	// Purchase outcomes by result code ("ok", "no_active_phase", ...).
	PurchaseOutcome *prometheus.CounterVec

	TokensIssued prometheus.Counter
	QuoteRaised  prometheus.Counter
}

// NewMetrics creates a Metrics instance with all purchase metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		PurchaseOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "mintgate_purchases_total",
			Help: "Total purchase attempts by outcome",
		}, []string{"outcome"}),

		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mintgate_tokens_issued_total",
			Help: "Total tokens issued across all phases",
		}),

		QuoteRaised: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mintgate_quote_raised_total",
			Help: "Total quote currency accepted across all phases",
		}),
	}
}

// RecordPurchase records one purchase attempt.
func (m *Metrics) RecordPurchase(outcome string, value, amount uint64) {
	if m == nil {
		return
	}
	m.PurchaseOutcome.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.TokensIssued.Add(float64(amount))
		m.QuoteRaised.Add(float64(value))
	}
}
