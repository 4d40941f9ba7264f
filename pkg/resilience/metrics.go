package resilience

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cyberguard",
		Name:      "circuit_breaker_state",
		Help:      "Breaker state: 0 closed, 0.5 half-open, 1 open",
	}, []string{"breaker"})

	breakerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "circuit_breaker_calls_total",
		Help:      "Calls through a breaker by outcome (success, failure, rejected)",
	}, []string{"breaker", "outcome"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "circuit_breaker_state_changes_total",
		Help:      "Breaker state transitions",
	}, []string{"breaker", "from", "to"})

	anonymousBreakers uint64
)

// breakerMetrics holds the series of one breaker
type breakerMetrics struct {
	name     string
	state    prometheus.Gauge
	success  prometheus.Counter
	failure  prometheus.Counter
	rejected prometheus.Counter
}

func newBreakerMetrics(name string) *breakerMetrics {
	return &breakerMetrics{
		name:     name,
		state:    breakerState.WithLabelValues(name),
		success:  breakerCalls.WithLabelValues(name, "success"),
		failure:  breakerCalls.WithLabelValues(name, "failure"),
		rejected: breakerCalls.WithLabelValues(name, "rejected"),
	}
}

func (m *breakerMetrics) setState(state gobreaker.State) {
	m.state.Set(stateValue(state))
}

func (m *breakerMetrics) transition(from, to gobreaker.State) {
	breakerTransitions.WithLabelValues(m.name, from.String(), to.String()).Inc()
	m.setState(to)
}

func breakerName(base string) string {
	if base != "" {
		return base
	}
	return "breaker-" + strconv.FormatUint(atomic.AddUint64(&anonymousBreakers, 1), 10)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 0.5
	case gobreaker.StateOpen:
		return 1
	}
	return -1
}
