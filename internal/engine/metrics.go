package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "llmbridge",
			Subsystem: "engine",
			Name:      "generations_total",
			Help:      "Completed generations by finish reason",
		},
		[]string{"finish"},
	)

	tokensGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "llmbridge",
			Subsystem: "engine",
			Name:      "tokens_generated_total",
			Help:      "Total tokens generated",
		},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "llmbridge",
			Subsystem: "engine",
			Name:      "generation_duration_seconds",
			Help:      "Duration of generations in seconds (prefill + loop)",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

func init() {
	prometheus.MustRegister(generationsTotal, tokensGeneratedTotal, generationDuration)
}
