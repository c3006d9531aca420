package main

import (
	"context"
	"database/sql"
	"fmt"

	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	iconfig "github.com/goran-ethernal/SubgraphWatcher/internal/config"
	"github.com/goran-ethernal/SubgraphWatcher/internal/catalog"
	"github.com/goran-ethernal/SubgraphWatcher/internal/db"
	"github.com/goran-ethernal/SubgraphWatcher/internal/indexer"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/migrations"
	"github.com/goran-ethernal/SubgraphWatcher/internal/registry"
	irpc "github.com/goran-ethernal/SubgraphWatcher/internal/rpc"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/uniswap"
	"go.uber.org/multierr"
)

// app holds the components shared by the commands.
type app struct {
	cfg         *config.Config
	db          *sql.DB
	maintenance db.Maintenance
	client      *irpc.Client
	indexer     *indexer.Indexer
	log         *logger.Logger
}

// newApp loads the configuration, migrates the database and builds the
// pipeline. The chain client is dialed only when withRPC is set; offline
// commands run the hooks without on-chain reads.
func newApp(ctx context.Context, withRPC bool) (*app, error) {
	cfg, err := iconfig.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{
		cfg: cfg,
		log: logger.NewComponentLoggerFromConfig(internalcommon.ComponentWatcher, cfg.Logging),
	}

	if err := migrations.RunMigrations(a.componentLogger(internalcommon.ComponentStore), cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.db, err = db.NewSQLiteDBFromConfig(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	a.maintenance = db.NewMaintenanceCoordinator(
		cfg.DB.Path,
		a.db,
		cfg.Maintenance,
		a.componentLogger(internalcommon.ComponentMaintenance),
	)

	var caller uniswap.Caller
	if withRPC {
		a.client, err = irpc.NewClient(ctx, cfg.Upstream.RPCURL, cfg.Upstream.Retry,
			a.componentLogger(internalcommon.ComponentFetcher))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create RPC client: %w", err)
		}
		caller = a.client
	}

	reg, err := registry.New(uniswap.ABIs(), a.componentLogger(internalcommon.ComponentRegistry))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create event registry: %w", err)
	}
	cat, err := catalog.New(uniswap.Entities())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create entity catalog: %w", err)
	}

	a.indexer, err = indexer.New(
		a.db,
		cfg.Server,
		reg,
		cat,
		uniswap.NewHooks(caller, a.componentLogger(internalcommon.ComponentHooks)),
		a.maintenance,
		a.componentLogger(internalcommon.ComponentPipeline),
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}

	return a, nil
}

func (a *app) componentLogger(component string) *logger.Logger {
	return logger.NewComponentLoggerFromConfig(component, a.cfg.Logging)
}

// watchConfiguredContracts upserts the contracts listed in the configuration.
func (a *app) watchConfiguredContracts(ctx context.Context) error {
	for _, c := range a.cfg.Contracts {
		address, err := internalcommon.ParseAddress(c.Address)
		if err != nil {
			return err
		}
		if err := a.indexer.WatchContract(ctx, address, c.Kind, c.Checkpoint, c.StartingBlock, c.Context); err != nil {
			return fmt.Errorf("failed to watch contract %s: %w", c.Address, err)
		}
	}
	return nil
}

func (a *app) close() {
	if a.indexer != nil {
		a.indexer.Close()
	}
	if a.client != nil {
		a.client.Close()
	}

	var errs error
	if a.maintenance != nil {
		errs = multierr.Append(errs, a.maintenance.Stop())
	}
	if a.db != nil {
		errs = multierr.Append(errs, a.db.Close())
	}
	if errs != nil {
		a.log.Warnw("shutdown finished with errors", "errors", multierr.Errors(errs))
	}
	_ = a.log.Close()
}
