package frothy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheBlocks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "subgraphwatcher_frothy_cache_blocks",
			Help: "Number of frothy blocks held in the entity cache",
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_frothy_cache_lookups_total",
			Help: "Entity lookups served by the frothy cache, by result",
		},
		[]string{"result"},
	)

	prunedBlocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_frothy_pruned_blocks_total",
			Help: "Total number of orphaned blocks marked as pruned",
		},
	)

	cacheClears = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_frothy_cache_clears_total",
			Help: "Total number of full entity cache clears",
		},
	)
)

func cacheHit()  { cacheLookups.WithLabelValues("hit").Inc() }
func cacheMiss() { cacheLookups.WithLabelValues("miss").Inc() }
