package oracle

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the oracle binding.
type Metrics struct {
	ReadLatency prometheus.Histogram
	ReadErrors  prometheus.Counter
}

// NewMetrics creates a Metrics instance with all oracle metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		ReadLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "mintgate_oracle_read_duration_seconds",
			Help:    "Duration of exchange-rate reads from the bound gateway",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		ReadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mintgate_oracle_read_errors_total",
			Help: "Total failed exchange-rate reads",
		}),
	}
}

// ObserveRead records one gateway read.
func (m *Metrics) ObserveRead(d time.Duration, ok bool) {
	if m == nil {
		return
	}
	m.ReadLatency.Observe(d.Seconds())
	if !ok {
		m.ReadErrors.Inc()
	}
}
