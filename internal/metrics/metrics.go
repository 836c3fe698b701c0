package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ModeSingle = "single"
	ModeSplit  = "split"

	StatusOK      = "ok"
	StatusNoRoute = "no_route"
	StatusError   = "error"
)

var (
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swap_router_pool_count",
		Help: "Number of pools in the last snapshot handed to the engine",
	})

	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swap_router_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"mode", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swap_router_quote_duration_seconds",
			Help:    "Quote computation duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"mode"},
	)

	PathsDiscovered = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swap_router_paths_discovered",
		Help:    "Number of candidate paths found per quote",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	RoutesEvaluated = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swap_router_routes_evaluated",
		Help:    "Number of paths that survived simulation per quote",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	SplitRoutesUsed = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "swap_router_split_routes_used",
		Help:    "Number of routes receiving a non-zero allocation in split quotes",
		Buckets: prometheus.LinearBuckets(1, 1, 8),
	})
)
