package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// WarehouseQueries counts warehouse queries by tenant and outcome
	WarehouseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcx_warehouse_queries_total",
			Help: "Total number of warehouse queries executed",
		},
		[]string{"tenant", "status"}, // status: success, blocked, schema, timeout, other
	)

	// WarehouseQueryDuration measures warehouse query execution time
	WarehouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dcx_warehouse_query_duration_seconds",
			Help:    "Warehouse query execution time",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"tenant"},
	)

	// ScreenRefreshes counts screen refresh operations
	ScreenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcx_screen_refreshes_total",
			Help: "Total number of screen refresh operations",
		},
		[]string{"screen", "status"}, // status: success, error
	)

	// ScreenRefreshDuration measures full screen refresh duration
	ScreenRefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dcx_screen_refresh_duration_seconds",
			Help:    "Screen refresh duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"screen"},
	)

	// CacheHits counts data context cache hits by freshness
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcx_cache_hits_total",
			Help: "Total number of data context cache hits",
		},
		[]string{"screen", "state"}, // state: fresh, stale
	)

	// CacheMisses counts data context cache misses
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcx_cache_misses_total",
			Help: "Total number of data context cache misses",
		},
		[]string{"screen"},
	)

	// TasksEnqueued counts refresh tasks enqueued by the scheduler
	TasksEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcx_tasks_enqueued_total",
			Help: "Total number of refresh tasks enqueued",
		},
		[]string{"screen"},
	)

	// KPIResolutions counts KPI resolutions by kind
	KPIResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dcx_kpi_resolutions_total",
			Help: "Total number of KPI resolutions",
		},
		[]string{"kind", "status"}, // kind: simple, derived, placeholder
	)
)
