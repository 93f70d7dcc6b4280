package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pool metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splitswap_pool_count",
		Help: "Total number of registered pools",
	})

	PoolUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitswap_pool_updates_total",
		Help: "Total number of pool registrations and status changes",
	})

	// Session metrics
	SwapSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitswap_sessions_total",
			Help: "Total number of routing sessions",
		},
		[]string{"method", "version", "status"},
	)

	SwapDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splitswap_session_duration_seconds",
			Help:    "Routing session duration in seconds",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"method"},
	)

	SwapLegs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitswap_legs_total",
			Help: "Total number of executed legs by venue",
		},
		[]string{"venue"},
	)

	LegsPerSession = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "splitswap_legs_per_session",
		Help:    "Number of legs in committed sessions",
		Buckets: []float64{1, 2, 3, 5, 8, 12, 16},
	})

	// Fee metrics
	FeeTransfers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitswap_fee_transfers_total",
		Help: "Total number of non-zero fee transfers",
	})

	FeeConfigUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitswap_fee_config_updates_total",
		Help: "Total number of fee configuration changes",
	})

	FeeBps = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splitswap_fee_bps",
		Help: "Configured protocol fee in basis points",
	})

	// Engine metrics
	EngineVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "splitswap_engine_version",
		Help: "Active routing logic version",
	})

	Migrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitswap_migrations_total",
			Help: "Total number of engine migrations attempted",
		},
		[]string{"status"},
	)

	// Persistence metrics
	PersistErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitswap_persist_errors_total",
			Help: "Total number of failed storage writes",
		},
		[]string{"bucket"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "splitswap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "splitswap_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splitswap_http_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
)
