package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "analyses_started_total",
		Help:      "Total number of analyses submitted",
	}, []string{"input_type"})

	analysesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "analyses_finished_total",
		Help:      "Total number of analyses that reached a final status",
	}, []string{"status", "risk_level"})

	analysesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "cyberguard",
		Name:      "analyses_in_flight",
		Help:      "Number of analyses currently being processed",
	})

	analysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cyberguard",
		Name:      "analysis_duration_seconds",
		Help:      "Wall time from dispatch to final status",
		Buckets:   []float64{0.5, 1, 2, 3, 5, 8, 13, 20, 30},
	})

	taskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "cyberguard",
		Name:      "analysis_task_duration_seconds",
		Help:      "Duration of individual intelligence checks",
		Buckets:   prometheus.DefBuckets,
	}, []string{"task_type", "status"})

	fraudScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cyberguard",
		Name:      "fraud_score",
		Help:      "Distribution of final fraud scores",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	})

	staleAnalysesSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cyberguard",
		Name:      "stale_analyses_swept_total",
		Help:      "Total number of stuck analyses marked failed by the sweeper",
	})
)
