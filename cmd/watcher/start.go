package main

import (
	"context"
	"errors"
	"fmt"

	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/fetcher"
	"github.com/goran-ethernal/SubgraphWatcher/internal/metrics"
	"github.com/goran-ethernal/SubgraphWatcher/internal/reorg"
	"github.com/goran-ethernal/SubgraphWatcher/internal/watcher"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/api"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const banner = `
╔═══════════════════════════════════════════╗
║         SubgraphWatcher v%s            ║
║   Reorg-aware subgraph indexing           ║
╚═══════════════════════════════════════════╝
`

func runStart(cmd *cobra.Command, _ []string) error {
	fmt.Printf(banner, version)

	ctx := cmd.Context()
	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.watchConfiguredContracts(ctx); err != nil {
		return err
	}
	if len(a.indexer.GetWatchedContracts()) == 0 {
		a.log.Warn("No contracts are watched, add them to the configuration or with watch-contract")
	}

	st := a.indexer.Store()
	f := fetcher.New(
		a.cfg.Upstream,
		a.client,
		st,
		a.indexer.Registry(),
		a.indexer,
		a.maintenance,
		a.componentLogger(internalcommon.ComponentFetcher),
	)
	resolver := reorg.NewResolver(
		a.client,
		st,
		a.cfg.Server.PruningDepth,
		a.maintenance,
		a.componentLogger(internalcommon.ComponentReorgDetector),
	)
	w, err := watcher.New(
		a.cfg.Upstream,
		a.cfg.Server.PruningDepth,
		a.client,
		st,
		f,
		resolver,
		a.indexer,
		a.maintenance,
		a.componentLogger(internalcommon.ComponentWatcher),
	)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := a.maintenance.Start(ctx); err != nil {
		return fmt.Errorf("failed to start maintenance: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := w.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if a.cfg.API != nil && a.cfg.API.Enabled {
		server := api.NewServer(a.cfg.API, a.indexer, a.componentLogger(internalcommon.ComponentAPI))
		g.Go(func() error {
			return server.Start(gctx)
		})
	}

	if a.cfg.Metrics != nil && a.cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(a.cfg.Metrics, a.componentLogger(internalcommon.ComponentMetrics))
		g.Go(func() error {
			return metricsServer.Run(gctx)
		})
	}

	a.log.Info("Starting SubgraphWatcher...")
	if err := g.Wait(); err != nil {
		return err
	}

	a.log.Info("SubgraphWatcher stopped successfully")
	return nil
}
