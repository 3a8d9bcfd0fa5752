package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by request mode
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placement_cache_hits_total",
			Help: "Total number of inference cache hits",
		},
		[]string{"mode"},
	)

	// CacheMisses tracks cache misses by request mode
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placement_cache_misses_total",
			Help: "Total number of inference cache misses",
		},
		[]string{"mode"},
	)

	// CacheSize tracks bytes written to the cache
	CacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "placement_cache_size_bytes",
			Help: "Bytes written to the inference cache",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "placement_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // get, set, delete, purge
	)
)
