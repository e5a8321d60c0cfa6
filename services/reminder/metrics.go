package reminder

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the reminder sweep.
type Metrics struct {
	// RemindersTotal counts due bookings by outcome.
	RemindersTotal *prometheus.CounterVec

	// SweepCandidates is the number of candidates seen by the last sweep.
	SweepCandidates prometheus.Gauge

	// SweepDuration is the wall time of a sweep.
	SweepDuration prometheus.Histogram

	// SendDuration is the time to hand one reminder to the notifier.
	SendDuration prometheus.Histogram
}

// NewMetrics registers reminder metrics on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RemindersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookme",
				Name:      "reminders_total",
				Help:      "Due bookings processed by the reminder sweep, by outcome",
			},
			[]string{"outcome"},
		),
		SweepCandidates: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "bookme",
				Name:      "reminder_sweep_candidates",
				Help:      "Candidates returned to the last reminder sweep",
			},
		),
		SweepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "bookme",
				Name:      "reminder_sweep_duration_seconds",
				Help:      "Time to complete a reminder sweep",
				Buckets:   []float64{.1, .5, 1, 5, 15, 60, 300},
			},
		),
		SendDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "bookme",
				Name:      "reminder_send_duration_seconds",
				Help:      "Time to send a reminder",
				Buckets:   []float64{.01, .05, .1, .5, 1, 2, 5},
			},
		),
	}
}

func (m *Metrics) observeSweep(r SweepReport, took time.Duration) {
	if m == nil {
		return
	}
	m.SweepCandidates.Set(float64(r.Scanned))
	m.SweepDuration.Observe(took.Seconds())
	m.RemindersTotal.WithLabelValues("sent").Add(float64(r.Sent))
	m.RemindersTotal.WithLabelValues("failed").Add(float64(r.Failed))
	m.RemindersTotal.WithLabelValues("skipped").Add(float64(r.Skipped))
}

func (m *Metrics) observeSend(took time.Duration) {
	if m == nil {
		return
	}
	m.SendDuration.Observe(took.Seconds())
}
