package ledger

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts ledger outcomes.
type Metrics struct {
	Operations *prometheus.CounterVec
}

// NewMetrics registers ledger metrics on reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookme",
				Subsystem: "ledger",
				Name:      "operations_total",
				Help:      "Ledger operations by kind and outcome",
			},
			[]string{"operation", "outcome"},
		),
	}
}

func (m *Metrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidSlot):
		return "invalid_slot"
	case errors.Is(err, ErrSlotConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidStatus):
		return "invalid_status"
	default:
		return "error"
	}
}
