package agent

import "github.com/prometheus/client_golang/prometheus"

var (
	// toolCalls counts tool executions by tool name and outcome
	// (ok, rejected, error). Names come from the fixed registry.
	toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_calls_total",
			Help: "Total number of tool calls executed by the agent.",
		},
		[]string{"tool", "outcome"},
	)

	completionLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_completion_duration_seconds",
			Help:    "Duration of chat completion calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		},
		[]string{"status"},
	)

	turnRounds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agent_turn_rounds",
			Help:    "Completion rounds needed to answer one user message.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9},
		},
	)

	// fallbacks counts replies served from the FAQ instead of the model.
	fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_faq_fallbacks_total",
			Help: "Replies answered from the offline FAQ.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(toolCalls, completionLat, turnRounds, fallbacks)
}
