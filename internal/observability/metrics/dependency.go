package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var breakerStates = []string{"closed", "half-open", "open"}

// DependencyMetrics exports retry and circuit breaker events of outbound
// calls. It satisfies resilience.Observer.
type DependencyMetrics struct {
	service string

	retries      *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

func newDependencyMetrics(service string, reg prometheus.Registerer) *DependencyMetrics {
	retries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "dependency",
			Name:      "retries_total",
			Help:      "Retried outbound calls by operation.",
		},
		[]string{"service", "operation"},
	)
	breakerState := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "retrieval",
			Subsystem: "dependency",
			Name:      "breaker_state",
			Help:      "Circuit breaker state by operation (1 for the current state).",
		},
		[]string{"service", "operation", "state"},
	)
	reg.MustRegister(retries, breakerState)

	return &DependencyMetrics{
		service:      service,
		retries:      retries,
		breakerState: breakerState,
	}
}

func (m *DependencyMetrics) ObserveRetry(operation string, _ int) {
	m.retries.WithLabelValues(m.service, operation).Inc()
}

func (m *DependencyMetrics) ObserveBreakerState(operation, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		m.breakerState.WithLabelValues(m.service, operation, s).Set(v)
	}
}
