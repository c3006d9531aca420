package watcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	finalHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "subgraphwatcher_final_block",
			Help: "The highest block the watcher treats as final",
		},
	)

	steps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_watcher_steps_total",
			Help: "Total number of indexing passes by mode",
		},
		[]string{"mode"},
	)
)

func FinalHeightSet(blockNum uint64) {
	finalHeight.Set(float64(blockNum))
}

func StepsInc(mode string) {
	steps.WithLabelValues(mode).Inc()
}
