package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/robfig/cron/v3"
)

// Maintenance serializes SQLite housekeeping against the pipeline. Block
// processing, reorg handling and queries hold the shared operation lock;
// a maintenance run takes it exclusively.
type Maintenance interface {
	Start(ctx context.Context) error
	Stop() error
	// AcquireOperationLock blocks while maintenance runs and returns the
	// matching unlock function.
	AcquireOperationLock() func()
	Stats() MaintenanceStats
	RunMaintenance(ctx context.Context) error
}

// MaintenanceStats summarizes the runs of a coordinator.
type MaintenanceStats struct {
	LastRun   time.Time
	Runs      uint64
	LastError error
}

// NoOpMaintenance is used when maintenance is not configured.
type NoOpMaintenance struct{}

func (*NoOpMaintenance) Start(context.Context) error          { return nil }
func (*NoOpMaintenance) Stop() error                          { return nil }
func (*NoOpMaintenance) RunMaintenance(context.Context) error { return nil }
func (*NoOpMaintenance) AcquireOperationLock() func()         { return func() {} }
func (*NoOpMaintenance) Stats() MaintenanceStats              { return MaintenanceStats{} }

// maintenanceStep is one housekeeping statement run under the exclusive lock.
type maintenanceStep struct {
	name string
	run  func(m *MaintenanceCoordinator) error
	// fatal steps fail the run; the others are logged and counted only
	fatal bool
}

var maintenanceSteps = []maintenanceStep{
	{name: "wal_checkpoint", run: (*MaintenanceCoordinator).walCheckpoint, fatal: true},
	{name: "vacuum", run: (*MaintenanceCoordinator).vacuum},
	{name: "optimize", run: (*MaintenanceCoordinator).optimize},
}

// MaintenanceCoordinator runs maintenance on a ticker or a cron schedule.
type MaintenanceCoordinator struct {
	db     *sql.DB
	dbPath string
	config config.MaintenanceConfig
	log    *logger.Logger

	opLock sync.RWMutex

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	scheduler *cron.Cron

	statsMu sync.Mutex
	stats   MaintenanceStats
}

// NewMaintenanceCoordinator returns a no-op implementation when cfg is nil.
func NewMaintenanceCoordinator(
	dbPath string,
	db *sql.DB,
	cfg *config.MaintenanceConfig,
	log *logger.Logger,
) Maintenance {
	if cfg == nil {
		return &NoOpMaintenance{}
	}
	return newMaintenanceCoordinator(dbPath, db, *cfg, log)
}

func newMaintenanceCoordinator(
	dbPath string,
	db *sql.DB,
	cfg config.MaintenanceConfig,
	log *logger.Logger,
) *MaintenanceCoordinator {
	cfg.ApplyDefaults()

	return &MaintenanceCoordinator{
		db:     db,
		dbPath: dbPath,
		config: cfg,
		log:    log.WithComponent(common.ComponentMaintenance),
	}
}

func (m *MaintenanceCoordinator) Start(ctx context.Context) error {
	if !m.config.Enabled {
		m.log.Info("Background maintenance is disabled")
		return nil
	}

	m.ctx, m.cancel = context.WithCancel(ctx)

	if m.config.VacuumOnStartup {
		m.runLogged("startup")
	}

	if m.config.Schedule != "" {
		return m.startScheduler()
	}

	m.wg.Add(1)
	go m.tick(m.config.CheckInterval.Duration)

	m.log.Infow("Background maintenance started",
		"interval", m.config.CheckInterval.Duration,
		"checkpoint_mode", m.config.WALCheckpointMode,
	)
	return nil
}

// startScheduler runs maintenance on the cron schedule. A run that is still
// going when the next one fires makes the next one a skip.
func (m *MaintenanceCoordinator) startScheduler() error {
	schedule, err := config.CronParser.Parse(m.config.Schedule)
	if err != nil {
		m.cancel()
		return fmt.Errorf("invalid maintenance schedule %q: %w", m.config.Schedule, err)
	}

	cronLog := cronLogger{log: m.log}
	m.scheduler = cron.New(
		cron.WithParser(config.CronParser),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	m.scheduler.Schedule(schedule, cron.FuncJob(func() { m.runLogged("scheduled") }))
	m.scheduler.Start()

	m.log.Infow("Background maintenance scheduled",
		"schedule", m.config.Schedule,
		"next_run", schedule.Next(time.Now()),
		"checkpoint_mode", m.config.WALCheckpointMode,
	)
	return nil
}

type cronLogger struct {
	log *logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.log.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// Stop waits for a running maintenance pass to finish.
func (m *MaintenanceCoordinator) Stop() error {
	if m.cancel == nil {
		return nil
	}

	m.log.Info("Stopping background maintenance...")
	if m.scheduler != nil {
		<-m.scheduler.Stop().Done()
	}
	m.cancel()
	m.wg.Wait()
	m.log.Info("Background maintenance stopped")
	return nil
}

func (m *MaintenanceCoordinator) tick(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.runLogged("periodic")
		}
	}
}

func (m *MaintenanceCoordinator) runLogged(trigger string) {
	if err := m.RunMaintenance(m.ctx); err != nil {
		m.log.Warnw("Maintenance failed", "trigger", trigger, "error", err)
	}
}

// RunMaintenance waits for in-flight operations, then runs every step with
// the database to itself.
func (m *MaintenanceCoordinator) RunMaintenance(ctx context.Context) error {
	maintenanceRuns.Inc()

	m.opLock.Lock()
	defer m.opLock.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	sizeBefore, err := DBTotalSize(m.dbPath)
	if err != nil {
		m.log.Warnf("Failed to get database size: %v", err)
	}

	var runErr error
	for _, step := range maintenanceSteps {
		stepStart := time.Now()
		err := step.run(m)
		maintenanceStepDuration.WithLabelValues(step.name).Observe(time.Since(stepStart).Seconds())
		if err == nil {
			continue
		}

		maintenanceStepErrors.WithLabelValues(step.name).Inc()
		if step.fatal {
			runErr = errors.Join(runErr, fmt.Errorf("%s failed: %w", step.name, err))
		} else {
			m.log.Warnw("Maintenance step failed", "step", step.name, "error", err)
		}
	}

	sizeAfter, err := DBTotalSize(m.dbPath)
	if err != nil {
		m.log.Warnf("Failed to get database size: %v", err)
	}
	elapsed := time.Since(start)

	m.statsMu.Lock()
	m.stats.LastRun = time.Now().UTC()
	m.stats.Runs++
	m.stats.LastError = runErr
	m.statsMu.Unlock()

	observeMaintenanceRun(elapsed, runErr, sizeBefore, sizeAfter)

	if runErr != nil {
		return runErr
	}

	m.log.Infow("Maintenance completed",
		"duration", elapsed,
		"reclaimed_mb", common.BytesToMB(uint64(max(sizeBefore-sizeAfter, 0))),
		"size_mb", common.BytesToMB(uint64(max(sizeAfter, 0))),
	)
	return nil
}

func (m *MaintenanceCoordinator) walCheckpoint() error {
	var mode string
	if err := m.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		return fmt.Errorf("failed to read journal mode: %w", err)
	}
	if !strings.EqualFold(mode, "wal") {
		m.log.Debugw("Skipping WAL checkpoint", "journal_mode", mode)
		return nil
	}

	var busy, logFrames, checkpointed int
	query := fmt.Sprintf("PRAGMA wal_checkpoint(%s)", m.config.WALCheckpointMode)
	if err := m.db.QueryRow(query).Scan(&busy, &logFrames, &checkpointed); err != nil {
		return err
	}
	walCheckpoints.WithLabelValues(strings.ToLower(m.config.WALCheckpointMode)).Inc()

	if busy > 0 {
		m.log.Warnw("WAL checkpoint left busy pages", "busy", busy)
	}
	m.log.Debugw("WAL checkpoint complete",
		"mode", m.config.WALCheckpointMode,
		"log_frames", logFrames,
		"checkpointed", checkpointed,
	)
	return nil
}

func (m *MaintenanceCoordinator) vacuum() error {
	if err := Vacuum(m.db); err != nil {
		if strings.Contains(err.Error(), "database is locked") {
			return fmt.Errorf("database is locked, retry later")
		}
		return err
	}
	return nil
}

// optimize refreshes the planner statistics the entity queries depend on.
func (m *MaintenanceCoordinator) optimize() error {
	_, err := m.db.Exec("PRAGMA optimize")
	return err
}

func (m *MaintenanceCoordinator) AcquireOperationLock() func() {
	m.opLock.RLock()
	return m.opLock.RUnlock
}

func (m *MaintenanceCoordinator) Stats() MaintenanceStats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.stats
}
