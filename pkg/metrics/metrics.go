// Package metrics exposes prometheus counters for the workflow: backend
// calls, cache reuse, token volume and estimated spend.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "assessment"

// Outcomes for BackendCalls
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeEmpty   = "empty"
)

type Metrics struct {
	BackendCalls     *prometheus.CounterVec
	CacheHits        *prometheus.CounterVec
	Uploads          *prometheus.CounterVec
	StageTransitions *prometheus.CounterVec
	Tokens           *prometheus.CounterVec
	CostUSD          *prometheus.CounterVec
	UsageWarnings    prometheus.Counter
}

// New registers all collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BackendCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_calls_total",
			Help:      "Generative backend calls by stage and outcome.",
		}, []string{"stage", "outcome"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Guarded operations answered from session cache.",
		}, []string{"operation"}),
		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachment_uploads_total",
			Help:      "Attachment upload batches by outcome.",
		}, []string{"outcome"}),
		StageTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_transitions_total",
			Help:      "Workflow stage transitions.",
		}, []string{"from", "to"}),
		Tokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens reported by the backend.",
		}, []string{"stage", "direction"}),
		CostUSD: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimated_cost_usd_total",
			Help:      "Estimated spend in USD.",
		}, []string{"stage"}),
		UsageWarnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_metadata_warnings_total",
			Help:      "Responses without usable usage metadata.",
		}),
	}
}

func (m *Metrics) ObserveUsage(stage string, inputTokens, outputTokens int, totalCost float64) {
	m.Tokens.WithLabelValues(stage, "input").Add(float64(inputTokens))
	m.Tokens.WithLabelValues(stage, "output").Add(float64(outputTokens))
	m.CostUSD.WithLabelValues(stage).Add(totalCost)
}
