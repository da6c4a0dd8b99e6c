package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK          = "ok"
	OutcomeUnavailable = "unavailable"
	OutcomeError       = "error"

	UnknownTool = "unknown"
)

var (
	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_tool_calls_total",
			Help: "Total number of agent tool invocations",
		},
		[]string{"tool", "outcome"},
	)

	ToolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pricing_tool_duration_seconds",
			Help:    "Duration of agent tool invocations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	RemoteCallFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_remote_call_failures_total",
			Help: "Total number of failed calls to remote match functions and views",
		},
		[]string{"target"},
	)

	AgentTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricing_agent_turns_total",
			Help: "Total number of chat turns by outcome",
		},
		[]string{"outcome"},
	)

	AgentTurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricing_agent_turn_duration_seconds",
			Help:    "Duration of a full chat turn in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
	)
)
