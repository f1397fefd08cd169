package phase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the phase registry.
type Metrics struct {
	PhasesAdded   prometheus.Counter
	PhasesDeleted prometheus.Counter
	PhaseCount    prometheus.Gauge
}

// NewMetrics creates a Metrics instance with all registry metrics registered.
func NewMetrics() *Metrics {
	return &Metrics{
		PhasesAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mintgate_phases_added_total",
			Help: "Total phases accepted into the registry",
		}),
		PhasesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "mintgate_phases_deleted_total",
			Help: "Total phases removed from the registry",
		}),
		PhaseCount: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "mintgate_phases",
			Help: "Current number of configured phases",
		}),
	}
}

func (m *Metrics) RecordAdd(total int) {
	if m != nil {
		m.PhasesAdded.Inc()
		m.PhaseCount.Set(float64(total))
	}
}

func (m *Metrics) RecordDelete(total int) {
	if m != nil {
		m.PhasesDeleted.Inc()
		m.PhaseCount.Set(float64(total))
	}
}
