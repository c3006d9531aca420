package fetcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	blocksFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_fetcher_blocks_saved_total",
			Help: "Total number of blocks saved by the fetcher",
		},
	)

	rangeSplits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_fetcher_range_splits_total",
			Help: "Total number of log ranges narrowed after a too many results error",
		},
	)
)

func BlocksFetchedAdd(n int) {
	blocksFetched.Add(float64(n))
}

func RangeSplitsInc() {
	rangeSplits.Inc()
}
