package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	admissions       *prometheus.CounterVec
	upstreamFailures *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		admissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gymgate",
			Name:      "admissions_total",
			Help:      "Check-in attempts by outcome.",
		}, []string{"outcome", "reason"}),
		upstreamFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gymgate",
			Name:      "square_failures_total",
			Help:      "Square API failures by capability.",
		}, []string{"capability"}),
	}

	reg.MustRegister(m.admissions, m.upstreamFailures)
	return m
}

func (m *Metrics) IncAdmission(admitted bool, reason string) {
	outcome := "admitted"
	if !admitted {
		outcome = "rejected"
	}
	m.admissions.WithLabelValues(outcome, reason).Inc()
}

func (m *Metrics) IncUpstreamFailure(capability string) {
	m.upstreamFailures.WithLabelValues(capability).Inc()
}

var Module = fx.Module("metrics",
	fx.Provide(New),
)
