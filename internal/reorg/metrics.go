package reorg

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reorgsDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_reorgs_detected_total",
			Help: "Total number of branch switches observed at the chain head",
		},
	)

	reorgDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subgraphwatcher_reorg_depth_blocks",
			Help:    "Number of indexed blocks abandoned by a branch switch",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64},
		},
	)

	reorgLastDetected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "subgraphwatcher_reorg_last_detected_timestamp",
			Help: "Unix timestamp of the last branch switch",
		},
	)

	ancestryWalkLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subgraphwatcher_ancestry_walk_blocks",
			Help:    "Number of unseen blocks found per resolved head",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		},
	)
)

func ReorgDetectedLog(depth uint64) {
	reorgsDetected.Inc()
	reorgDepth.Observe(float64(depth))
	reorgLastDetected.Set(float64(time.Now().UTC().Unix()))
}

func AncestryWalkLog(blocks int) {
	ancestryWalkLength.Observe(float64(blocks))
}
