// Package observability exposes prometheus instrumentation for the pipeline.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the pipeline's prometheus collectors. A nil *Metrics is a
// valid no-op receiver, so instrumentation stays optional.
type Metrics struct {
	workflowsStarted prometheus.Counter
	stageCompletions *prometheus.CounterVec
	confidence       prometheus.Histogram
}

// NewMetrics creates and registers the pipeline collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		workflowsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quorum_workflows_started_total",
			Help: "Number of workflows opened by proposal submissions.",
		}),
		stageCompletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quorum_stage_completions_total",
			Help: "Stage completion events by stage and outcome.",
		}, []string{"stage", "outcome"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quorum_recommendation_confidence",
			Help:    "Distribution of synthesized recommendation confidence.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
	}
	reg.MustRegister(m.workflowsStarted, m.stageCompletions, m.confidence)
	return m
}

// WorkflowStarted counts a new workflow.
func (m *Metrics) WorkflowStarted() {
	if m == nil {
		return
	}
	m.workflowsStarted.Inc()
}

// StageCompleted counts a stage result by outcome.
func (m *Metrics) StageCompleted(stage string, success bool) {
	if m == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.stageCompletions.WithLabelValues(stage, outcome).Inc()
}

// RecommendationSynthesized observes the final confidence score.
func (m *Metrics) RecommendationSynthesized(confidence float64) {
	if m == nil {
		return
	}
	m.confidence.Observe(confidence)
}
