// Package metrics defines Prometheus metrics for paapi-core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paapi_core"

// Selection pipeline metrics.
var (
	SelectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "selection_duration_seconds",
		Help:      "Duration of a full RunSelection call, in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	SelectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "selections_total",
		Help:      "Total selection outcomes by result kind.",
	}, []string{"result"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of an individual pipeline stage, in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	ModelUsedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "model_used_total",
		Help:      "Selections by the model that ultimately produced a result.",
	}, []string{"model"})

	FallbackTriggeredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallback_triggered_total",
		Help:      "Total selections where the primary model fell back.",
	})

	SearchCacheResultTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_cache_result_total",
		Help:      "Search-stage cache lookups by outcome (hit/miss).",
	}, []string{"result"})
)

// PaapiAdapter metrics.
var (
	PaapiCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "paapi_calls_total",
		Help:      "Total upstream PA-API calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	PaapiCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "paapi_call_duration_seconds",
		Help:      "Upstream PA-API call latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	PaapiBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "paapi_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open).",
	})

	PaapiQuotaUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "paapi_quota_used",
		Help:      "Upstream calls attributed against the daily quota estimate.",
	})
)

// Analyzer/scoring metrics.
var (
	AnalyzeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analyze_duration_seconds",
		Help:      "Duration of a single ProductAnalyzer.Analyze call, in seconds.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .2},
	})

	ScoreDistribution = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "score_distribution",
		Help:      "Distribution of computed Score.Final values.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})
)

// WatchEvaluator metrics.
var (
	WatchEvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watch_evaluations_total",
		Help:      "Total watch evaluations by outcome.",
	}, []string{"outcome"})

	WatchAlertsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "watch_alerts_total",
		Help:      "Total alerts emitted by kind.",
	}, []string{"kind"})

	WatchesThrottled = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "watches_throttled",
		Help:      "Number of watches currently in the THROTTLED state.",
	})

	WatchEvalDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "watch_eval_duration_seconds",
		Help:      "Duration of a single watch evaluation cycle, in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

// HTTP metrics (demo host).
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "Health check status (1 = ok, 0 = failing).",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "Readiness check status (1 = ready, 0 = not ready).",
	})
)
