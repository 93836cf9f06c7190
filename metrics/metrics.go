package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_decisions_total",
			Help: "Total number of policy decisions by outcome",
		},
		[]string{"decision", "policy_version"},
	)

	PipelineErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "underwriting_pipeline_errors_total",
			Help: "Total number of income pipeline failures by error code",
		},
		[]string{"stage", "error_code"},
	)

	PasswordCandidateIndex = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "statement_password_candidate_index",
			Help:    "Index of the password candidate that opened a statement (-1 when not encrypted)",
			Buckets: []float64{-1, 0, 1, 2, 3, 4},
		},
	)

	StatementTextSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "statement_text_source_total",
			Help: "Statements read by text source",
		},
		[]string{"source"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "underwriting_pipeline_duration_seconds",
			Help: "Duration of pipeline stages in seconds",
		},
		[]string{"stage"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)
