package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Judge, search and insight memory metrics.
var (
	JudgeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_requests_total",
			Help:      "Total number of judge calls",
		},
		[]string{"operation", "status"},
	)

	JudgeRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "judge_request_duration_seconds",
			Help:      "Judge call duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"operation"},
	)

	JudgeTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_tokens_total",
			Help:      "Total judge tokens consumed",
		},
		[]string{"operation"},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of tool searches",
		},
		[]string{"mode", "status"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Tool search duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	InsightOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insight_outcomes_total",
			Help:      "Insight ingestion attempts by outcome",
		},
		[]string{"outcome"}, // created / duplicate / rejected
	)

	SideEffectsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effects_dropped_total",
			Help:      "Background side effects that were dropped or failed",
		},
		[]string{"task", "reason"},
	)
)

var registerOnce sync.Once

// Register registers all service metrics with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			JudgeRequestsTotal,
			JudgeRequestDuration,
			JudgeTokensTotal,
			SearchRequestsTotal,
			SearchDuration,
			InsightOutcomesTotal,
			SideEffectsDroppedTotal,
		)
	})
}
