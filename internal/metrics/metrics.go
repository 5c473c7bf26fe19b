package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScrapeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keiba_scrape_requests_total",
			Help: "Total remote page fetches",
		},
		[]string{"endpoint", "status"},
	)

	ScrapeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keiba_scrape_latency_seconds",
			Help:    "Remote page fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keiba_race_cache_hits_total",
			Help: "Races served from the persisted cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keiba_race_cache_misses_total",
			Help: "Races that required a fresh scrape",
		},
	)

	RunsJoined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keiba_runs_joined_total",
			Help: "Historical runs matched to a condition measurement",
		},
	)

	RunsUnjoined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keiba_runs_unjoined_total",
			Help: "Historical runs with no usable condition measurement",
		},
	)

	ArtifactsRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keiba_artifacts_rendered_total",
			Help: "Scatter chart artifacts written",
		},
	)

	PublishOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keiba_publish_operations_total",
			Help: "Remote content store operations",
		},
		[]string{"op", "status"},
	)
)
