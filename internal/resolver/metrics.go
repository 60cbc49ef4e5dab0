package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// resolveTotal counts Resolve calls by key namespace and outcome.
	resolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recipebox_resolve_total",
		Help: "Recipe resolutions by namespace and result",
	}, []string{"namespace", "result"})

	// remoteFetchDuration tracks round trips to the recipe API.
	remoteFetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recipebox_remote_fetch_duration_seconds",
		Help:    "Recipe API fetch duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 8), // 50ms to ~6s
	})
)
