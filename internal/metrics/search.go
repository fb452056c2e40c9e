package metrics

import "github.com/prometheus/client_golang/prometheus"

// Vector service Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vectorbeats",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"kind", "status"}, // kind: "similarity" / "hybrid"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vectorbeats",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	ModalityDegradedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vectorbeats",
			Name:      "fusion_modality_degraded_total",
			Help:      "Modality searches that contributed no candidates because of an error or timeout",
		},
		[]string{"modality", "reason"}, // reason: "timeout" / "error"
	)

	PointsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vectorbeats",
			Name:      "points_written_total",
			Help:      "Points submitted for upsert",
		},
		[]string{"collection", "result"}, // result: "accepted" / "rejected"
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the vector service metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(ModalityDegradedTotal)
	prometheus.MustRegister(PointsWrittenTotal)
	searchMetricsRegistered = true
}
