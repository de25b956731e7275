package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := NewWith(prometheus.NewRegistry())

	m.ObserveDecision("health", "General Hospital", 95)
	m.ObserveDecision("health", "General Hospital", 80)
	m.IncrementFallback("backlog")
	m.ObserveTriageLatency("rules", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("health", "General Hospital")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fallbacks.WithLabelValues("backlog")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.TriageLatency))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDecision("general", "General Administration", 50)
		m.IncrementFallback("model")
		m.ObserveTriageLatency("model", time.Second)
	})
}
