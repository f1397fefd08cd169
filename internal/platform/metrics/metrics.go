package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds service-wide Prometheus metrics. Module-specific metrics live
// next to their modules; this covers the HTTP edge.
type Metrics struct {
	RequestLatency *prometheus.HistogramVec
}

// New creates and registers all service-wide metrics.
func New() *Metrics {
	return &Metrics{
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mintgate_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method and path",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "path"}),
	}
}

// ObserveRequest records the duration of one HTTP request.
func (m *Metrics) ObserveRequest(method, path string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(method, path).Observe(d.Seconds())
	}
}
