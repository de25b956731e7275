package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for request triage and routing
type Metrics struct {
	// Routed requests by category and assigned department
	Decisions *prometheus.CounterVec

	// Distribution of priority scores
	Priority prometheus.Histogram

	// Degraded paths taken, by reason ("backlog", "model", "persist", "publish")
	Fallbacks *prometheus.CounterVec

	// Triage latency by provider source
	TriageLatency *prometheus.HistogramVec
}

// NewWith creates all metrics and registers them with reg
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_routing_decisions_total",
			Help: "Total routed citizen requests by category and department",
		}, []string{"category", "department"}),

		Priority: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "governance_priority_score",
			Help:    "Priority scores assigned to routed requests",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		Fallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_fallbacks_total",
			Help: "Degraded paths taken while routing requests",
		}, []string{"reason"}),

		TriageLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "governance_triage_duration_seconds",
			Help:    "Duration of request triage by provider",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
	}
}

// ObserveDecision records a routed request
func (m *Metrics) ObserveDecision(category, department string, priority int) {
	if m != nil {
		m.Decisions.WithLabelValues(category, department).Inc()
		m.Priority.Observe(float64(priority))
	}
}

// IncrementFallback records a degraded path
func (m *Metrics) IncrementFallback(reason string) {
	if m != nil {
		m.Fallbacks.WithLabelValues(reason).Inc()
	}
}

// ObserveTriageLatency records the duration of a triage call
func (m *Metrics) ObserveTriageLatency(source string, d time.Duration) {
	if m != nil {
		m.TriageLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}
