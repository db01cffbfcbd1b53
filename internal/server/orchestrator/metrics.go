package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts turn outcomes for the /metrics endpoint. A nil *Metrics is
// valid and counts nothing, which keeps tests quiet.
type Metrics struct {
	turns             *prometheus.CounterVec
	deliveryFailures  prometheus.Counter
	verificationsRecd prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "momentum_turns_total",
			Help: "Conversation turns processed, by outcome.",
		}, []string{"outcome"}),
		deliveryFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "momentum_delivery_failures_total",
			Help: "Outbound messages that Twilio rejected.",
		}),
		verificationsRecd: f.NewCounter(prometheus.CounterOpts{
			Name: "momentum_verifications_recorded_total",
			Help: "Verification rows written from proof submissions.",
		}),
	}
}

func (m *Metrics) CountTurn(outcome string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CountDeliveryFailure() {
	if m == nil {
		return
	}
	m.deliveryFailures.Inc()
}

func (m *Metrics) CountVerification() {
	if m == nil {
		return
	}
	m.verificationsRecd.Inc()
}
