package metering

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// PromRecorder exports usage as Prometheus counters labeled by model,
// organization, and source tag.
type PromRecorder struct {
	calls            *prometheus.CounterVec
	promptTokens     *prometheus.CounterVec
	completionTokens *prometheus.CounterVec
}

// NewPromRecorder creates a recorder registered against reg.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewPromRecorder(reg prometheus.Registerer) *PromRecorder {
	labels := []string{"model", "org", "source"}
	r := &PromRecorder{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quillflow_llm_calls_total",
			Help: "Completed LLM calls.",
		}, labels),
		promptTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quillflow_llm_prompt_tokens_total",
			Help: "Prompt tokens consumed by LLM calls.",
		}, labels),
		completionTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quillflow_llm_completion_tokens_total",
			Help: "Completion tokens produced by LLM calls.",
		}, labels),
	}
	reg.MustRegister(r.calls, r.promptTokens, r.completionTokens)
	return r
}

// Record increments the usage counters.
func (r *PromRecorder) Record(_ context.Context, usage Usage) error {
	labels := prometheus.Labels{
		"model":  usage.Model,
		"org":    usage.OrgID,
		"source": usage.Source,
	}
	r.calls.With(labels).Inc()
	r.promptTokens.With(labels).Add(float64(usage.PromptTokens))
	r.completionTokens.With(labels).Add(float64(usage.CompletionTokens))
	return nil
}

var _ Recorder = (*PromRecorder)(nil)
