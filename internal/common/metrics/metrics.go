// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ksel_lookups_total",
			Help: "Total number of resolved lookups by outcome",
		},
		[]string{"outcome"},
	)

	RegistryFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ksel_registry_fetch_duration_seconds",
			Help:    "Duration of registry search and extraction in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 4, 5, 8},
		},
		[]string{"result"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ksel_cache_hits_total",
			Help: "Fresh cache hits that short-circuited a registry call",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ksel_cache_misses_total",
			Help: "Cache lookups that found no fresh entry",
		},
	)

	CacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ksel_cache_evictions_total",
			Help: "Entries evicted because the cache was at capacity",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ksel_cache_entries",
			Help: "Current number of cached results",
		},
	)

	StaleCompletionsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ksel_stale_completions_dropped_total",
			Help: "Registry results discarded because a newer result was already cached",
		},
	)

	RowsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ksel_extractor_rows_skipped_total",
			Help: "Registry rows skipped for having too few cells",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ksel_notifications_total",
			Help: "Callback deliveries by phase and status",
		},
		[]string{"phase", "status"},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ksel_commands_total",
			Help: "Slash commands received by delivery mode",
		},
		[]string{"mode"},
	)

	DeferredTasksActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ksel_deferred_tasks_active",
			Help: "Number of detached lookup tasks currently running",
		},
	)
)
