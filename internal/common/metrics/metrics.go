package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"outcome", "error_code"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarizer_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"task_type"},
	)

	CompletionAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summarizer_completion_attempts_total",
			Help: "Total number of completion stream attempts",
		},
	)

	CompletionRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "summarizer_completion_retries_total",
			Help: "Completion attempts re-issued after a gateway timeout",
		},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_tool_calls_total",
			Help: "Tool invocations observed in completion streams",
		},
		[]string{"tool_type"},
	)

	PayloadCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_payload_cache_lookups_total",
			Help: "Payload cache lookups by result",
		},
		[]string{"result"},
	)

	StoreUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarizer_store_upserts_total",
			Help: "Summary store upserts by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
