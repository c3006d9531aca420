package checkpoint

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_checkpoint_states_created_total",
			Help: "Total number of state records created, by kind",
		},
		[]string{"kind"},
	)

	checkpointFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_checkpoint_failures_total",
			Help: "Total number of failed checkpoint runs",
		},
	)

	checkpointsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_checkpoint_skipped_total",
			Help: "Checkpoint runs skipped because the worker queue was full",
		},
	)

	diffsFinalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "subgraphwatcher_checkpoint_diffs_finalized_total",
			Help: "Total number of staged diffs promoted to diffs",
		},
	)

	checkpointDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "subgraphwatcher_checkpoint_duration_seconds",
			Help:    "Time spent on one checkpoint run across all contracts",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)
)

// StateCreatedInc increments the created states counter for kind.
func StateCreatedInc(kind string) {
	statesCreated.WithLabelValues(kind).Inc()
}

// CheckpointFailureInc increments the failed checkpoint runs counter.
func CheckpointFailureInc() {
	checkpointFailures.Inc()
}

// CheckpointSkippedInc increments the skipped checkpoint runs counter.
func CheckpointSkippedInc() {
	checkpointsSkipped.Inc()
}

// DiffsFinalizedAdd adds n promoted diffs.
func DiffsFinalizedAdd(n int) {
	diffsFinalized.Add(float64(n))
}

// CheckpointDurationLog records the duration of a checkpoint run.
func CheckpointDurationLog(d time.Duration) {
	checkpointDuration.Observe(d.Seconds())
}
