// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CollectorRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_collector_runs_total",
			Help: "Total number of collector invocations by outcome",
		},
		[]string{"collector", "outcome"}, // outcome: ok|error|timeout|panic
	)

	CollectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ingest_collector_duration_seconds",
			Help: "Duration of collector invocations in seconds",
		},
		[]string{"collector"},
	)

	MentionsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_mentions_dropped_total",
			Help: "Mentions dropped by the admission filter, per rule",
		},
		[]string{"rule"},
	)

	SentimentLabeled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_sentiment_labeled_total",
			Help: "Mentions labeled per sentiment provider and label",
		},
		[]string{"provider", "label"},
	)

	BalancerPasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_balancer_passes_total",
			Help: "Coverage balancer passes executed",
		},
	)

	CacheReuse = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_cache_decisions_total",
			Help: "Cache controller decisions",
		},
		[]string{"decision"}, // decision: reuse|refresh
	)
)
