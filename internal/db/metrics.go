package db

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	maintenanceRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subgraphwatcher_maintenance_runs_total",
		Help: "Total number of maintenance runs started",
	})

	maintenanceOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subgraphwatcher_maintenance_outcomes_total",
		Help: "Total number of finished maintenance runs by outcome",
	}, []string{"status"})

	maintenanceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "subgraphwatcher_maintenance_duration_seconds",
		Help:    "Duration of maintenance runs",
		Buckets: prometheus.DefBuckets,
	})

	maintenanceStepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "subgraphwatcher_maintenance_step_duration_seconds",
		Help:    "Duration of each maintenance step",
		Buckets: prometheus.DefBuckets,
	}, []string{"step"})

	maintenanceStepErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subgraphwatcher_maintenance_step_errors_total",
		Help: "Total number of failed maintenance steps",
	}, []string{"step"})

	maintenanceLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "subgraphwatcher_maintenance_last_run_timestamp",
		Help: "Unix timestamp of the last maintenance run",
	})

	maintenanceReclaimed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "subgraphwatcher_maintenance_space_reclaimed_bytes",
		Help: "Bytes reclaimed by the last maintenance run",
	})

	vacuumRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subgraphwatcher_vacuum_runs_total",
		Help: "Total number of completed VACUUM runs",
	})

	walCheckpoints = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "subgraphwatcher_wal_checkpoint_total",
		Help: "Total number of WAL checkpoints",
	}, []string{"mode"})

	dbSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "subgraphwatcher_db_size_bytes",
		Help: "Database size including WAL and shared memory files",
	})
)

// VacuumRunsInc counts a completed VACUUM.
func VacuumRunsInc() {
	vacuumRuns.Inc()
}

func observeMaintenanceRun(elapsed time.Duration, err error, sizeBefore, sizeAfter int64) {
	maintenanceDuration.Observe(elapsed.Seconds())
	maintenanceLastRun.Set(float64(time.Now().Unix()))

	if err != nil {
		maintenanceOutcomes.WithLabelValues("error").Inc()
		return
	}
	maintenanceOutcomes.WithLabelValues("success").Inc()
	maintenanceReclaimed.Set(float64(max(sizeBefore-sizeAfter, 0)))
	dbSize.Set(float64(sizeAfter))
}
