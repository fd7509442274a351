package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveUsage(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveUsage("final_generation", 1000, 500, 0.00625)
	m.ObserveUsage("final_generation", 1000, 0, 0.00125)

	assert.Equal(t, 2000.0, testutil.ToFloat64(m.Tokens.WithLabelValues("final_generation", "input")))
	assert.Equal(t, 500.0, testutil.ToFloat64(m.Tokens.WithLabelValues("final_generation", "output")))
	assert.InDelta(t, 0.0075, testutil.ToFloat64(m.CostUSD.WithLabelValues("final_generation")), 1e-12)
}

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.BackendCalls.WithLabelValues("topic_recommendation", OutcomeSuccess).Inc()

	families, err := reg.Gather()
	assert.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "assessment_backend_calls_total")
}
