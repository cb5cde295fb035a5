package order

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/m3rciful/orderbot/core/metrics"
)

// Metrics counts order flow events. A nil *Metrics records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
	validation  *prometheus.CounterVec
	publishes   *prometheus.CounterVec
	ignored     *prometheus.CounterVec
}

// NewMetrics builds the order counters and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "order",
			Name:      "transitions_total",
			Help:      "Session stage transitions by target stage.",
		}, []string{"stage"}),
		validation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "order",
			Name:      "validation_failures_total",
			Help:      "Rejected numeric inputs by field.",
		}, []string{"field"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "order",
			Name:      "publishes_total",
			Help:      "Channel publish attempts by result.",
		}, []string{"result"}),
		ignored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Subsystem: "order",
			Name:      "ignored_events_total",
			Help:      "Events dropped without a stage change, by reason.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.transitions, m.validation, m.publishes, m.ignored)
	}
	return m
}

func (m *Metrics) transition(to Stage) {
	if m != nil {
		m.transitions.WithLabelValues(string(to)).Inc()
	}
}

func (m *Metrics) rejected(field string) {
	if m != nil {
		m.validation.WithLabelValues(field).Inc()
	}
}

func (m *Metrics) published(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "fail"
	}
	m.publishes.WithLabelValues(result).Inc()
}

func (m *Metrics) ignore(reason string) {
	if m != nil {
		m.ignored.WithLabelValues(reason).Inc()
	}
}
