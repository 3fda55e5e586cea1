package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks count cache hits
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagewindow_count_cache_hits_total",
			Help: "Total number of count cache hits",
		},
	)

	// CacheMisses tracks count cache misses
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagewindow_count_cache_misses_total",
			Help: "Total number of count cache misses",
		},
	)

	// CacheFallbacks tracks counts served by the source because the cache failed
	CacheFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pagewindow_count_cache_fallbacks_total",
			Help: "Total number of counts served by the source after a cache error",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pagewindow_count_cache_errors_total",
			Help: "Total number of count cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "invalidate"
	)
)
