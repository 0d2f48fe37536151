package backup

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the backup collectors.
type Metrics struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when reg is
// non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tasklist",
			Subsystem: "backup",
			Name:      "runs_total",
			Help:      "Backup runs by trigger, status and failure reason.",
		}, []string{"trigger", "status", "reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tasklist",
			Subsystem: "backup",
			Name:      "duration_seconds",
			Help:      "Wall time of backup runs that were not skipped.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.duration)
	}
	return m
}

func (m *Metrics) observe(o Outcome) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(o.Trigger), string(o.Status), string(o.Reason)).Inc()
	if o.Status != StatusSkipped {
		m.duration.Observe(o.Duration.Seconds())
	}
}
