package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the emergency engine.
type Metrics struct {
	Configured prometheus.Counter
	Freezes    prometheus.Counter
	Triggers   prometheus.Counter
	Unfreezes  prometheus.Counter
}

// New creates a Metrics instance with all emergency metrics registered.
func New() *Metrics {
	return &Metrics{
		Configured: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_emergency_configs_total",
			Help: "Total number of emergency configs created",
		}),
		Freezes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_emergency_freezes_total",
			Help: "Total number of emergency freezes executed",
		}),
		Triggers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_emergency_triggers_total",
			Help: "Total number of emergency mode activations without freeze",
		}),
		Unfreezes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_emergency_unfreezes_total",
			Help: "Total number of emergency unfreezes executed",
		}),
	}
}

func (m *Metrics) IncrementConfigured() {
	if m != nil {
		m.Configured.Inc()
	}
}

func (m *Metrics) IncrementFreezes() {
	if m != nil {
		m.Freezes.Inc()
	}
}

func (m *Metrics) IncrementTriggers() {
	if m != nil {
		m.Triggers.Inc()
	}
}

func (m *Metrics) IncrementUnfreezes() {
	if m != nil {
		m.Unfreezes.Inc()
	}
}
