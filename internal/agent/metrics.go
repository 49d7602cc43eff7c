package agent

import "github.com/prometheus/client_golang/prometheus"

var (
	// agentReplies counts replies by outcome: ok, fallback, or error.
	agentReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodchat_agent_replies_total",
			Help: "Agent replies by outcome.",
		},
		[]string{"outcome"},
	)

	// intents counts classified intents and whether the model or the keyword
	// fallback produced them.
	intents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foodchat_intents_total",
			Help: "Classified user intents by source.",
		},
		[]string{"intent", "source"},
	)

	llmLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foodchat_llm_request_duration_seconds",
			Help:    "Duration of LLM generation calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(agentReplies, intents, llmLatency)
}
