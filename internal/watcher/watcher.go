package watcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/db"
	"github.com/goran-ethernal/SubgraphWatcher/internal/fetcher"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/metrics"
	"github.com/goran-ethernal/SubgraphWatcher/internal/reorg"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	itypes "github.com/goran-ethernal/SubgraphWatcher/internal/types"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/rpc"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// Pipeline is the block processing side the watcher feeds.
type Pipeline interface {
	GetWatchedContracts() []*subgraph.Contract
	ProcessBlockWithEvents(ctx context.Context, block *subgraph.BlockProgress, events []*subgraph.Event) error
	ProcessCanonicalBlock(ctx context.Context, blockHash common.Hash) error
}

// Watcher follows the chain and drives blocks through the pipeline.
//
// Blocks at or below the final height (head minus pruning depth, or the
// node's finalized/safe block) are indexed in chunks and canonicalized right
// away. Newer blocks are linked to stored ones by hash, processed as they
// arrive and canonicalized once they fall behind the final height.
type Watcher struct {
	rpc         rpc.EthClient
	store       *store.Store
	fetcher     *fetcher.Fetcher
	resolver    *reorg.Resolver
	pipeline    Pipeline
	maintenance db.Maintenance
	log         *logger.Logger

	finality     itypes.BlockFinality
	chunkSize    uint64
	pollInterval time.Duration
	depth        uint64
}

// New creates a Watcher.
func New(
	cfg config.UpstreamConfig,
	pruningDepth uint64,
	rpcClient rpc.EthClient,
	st *store.Store,
	f *fetcher.Fetcher,
	resolver *reorg.Resolver,
	pipeline Pipeline,
	maintenance db.Maintenance,
	log *logger.Logger,
) (*Watcher, error) {
	if rpcClient == nil {
		return nil, errors.New("RPC client is required")
	}
	if pipeline == nil {
		return nil, errors.New("pipeline is required")
	}

	finality, err := itypes.ParseBlockFinality(cfg.Finality)
	if err != nil {
		return nil, fmt.Errorf("invalid finality configuration: %w", err)
	}
	if maintenance == nil {
		maintenance = &db.NoOpMaintenance{}
	}

	w := &Watcher{
		rpc:          rpcClient,
		store:        st,
		fetcher:      f,
		resolver:     resolver,
		pipeline:     pipeline,
		maintenance:  maintenance,
		log:          log.WithComponent(internalcommon.ComponentWatcher),
		finality:     finality,
		chunkSize:    max(cfg.ChunkSize, 1),
		pollInterval: cfg.PollInterval.Duration,
		depth:        pruningDepth,
	}

	w.log.Infow("watcher initialized",
		"finality", finality,
		"chunk_size", w.chunkSize,
		"pruning_depth", pruningDepth,
	)
	return w, nil
}

// Run indexes until ctx is cancelled. A failed pass sets the indexing error
// flag and is retried after the poll interval.
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info("starting watcher")
	metrics.ComponentHealthSet(internalcommon.ComponentWatcher, true)
	defer metrics.ComponentHealthSet(internalcommon.ComponentWatcher, false)

	failing := false
	for {
		if err := ctx.Err(); err != nil {
			w.log.Info("watcher stopped")
			return err
		}

		caughtUp, err := w.Step(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			w.log.Info("watcher stopped")
			return ctx.Err()
		case err != nil:
			failing = true
			w.setIndexingError(true)
			metrics.ErrorsInc(internalcommon.ComponentWatcher, "error")
			w.log.Errorw("indexing pass failed", "error", err)
		case failing:
			failing = false
			w.setIndexingError(false)
			w.log.Info("indexing recovered")
		}

		if err == nil && !caughtUp {
			continue
		}
		if err := w.wait(ctx); err != nil {
			w.log.Info("watcher stopped")
			return err
		}
	}
}

// Step runs one pass and reports whether the watcher has caught up with the
// chain head.
func (w *Watcher) Step(ctx context.Context) (bool, error) {
	head, err := w.rpc.GetLatestBlockHeader(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get chain head: %w", err)
	}
	if err := w.locked(func() error {
		return w.store.UpdateSyncStatusChainHead(head.Hash(), head.Number.Uint64(), false)
	}); err != nil {
		return false, err
	}
	metrics.SyncBlockSet("chain_head", head.Number.Uint64())

	final, err := w.finalHeight(ctx, head)
	if err != nil {
		return false, err
	}
	FinalHeightSet(final)

	status, err := w.syncStatus()
	if err != nil {
		return false, err
	}

	start := w.startBlock(final)
	next := start
	if status.LatestProcessedBlockHash != (common.Hash{}) {
		next = max(status.LatestProcessedBlockNumber+1, start)
	}

	if next <= final {
		to := min(next+w.chunkSize-1, final)
		done, err := w.historical(ctx, next, to)
		if err != nil {
			return false, err
		}
		return done >= final, nil
	}

	return true, w.live(ctx, head, start, final)
}

// historical indexes [from, to] below the final height and returns the last
// block covered, which can be below to when the node narrowed the range.
func (w *Watcher) historical(ctx context.Context, from, to uint64) (uint64, error) {
	StepsInc("historical")

	res, err := w.fetcher.FetchAndSaveFilteredEventsAndBlocks(ctx, from, to)
	if err != nil {
		return 0, err
	}

	for _, b := range res.Blocks {
		if !b.Block.IsComplete {
			if err := w.pipeline.ProcessBlockWithEvents(ctx, b.Block, b.Events); err != nil {
				return 0, err
			}
		}
		if err := w.pipeline.ProcessCanonicalBlock(ctx, b.Block.BlockHash); err != nil {
			return 0, err
		}
	}

	w.log.Infow("indexed historical range",
		"from", res.FromBlock,
		"to", res.ToBlock,
		"blocks", len(res.Blocks),
	)
	return res.ToBlock, nil
}

// live processes the blocks between the stored chain and head, then
// canonicalizes what fell below the final height.
func (w *Watcher) live(ctx context.Context, head *types.Header, floor, final uint64) error {
	StepsInc("live")

	if err := w.resume(ctx); err != nil {
		return err
	}

	res, err := w.resolver.Resolve(ctx, head, floor)
	if err != nil {
		return err
	}

	if len(res.Headers) > 0 {
		blocks, err := w.fetcher.FetchAndSaveBlocks(ctx, res.Headers)
		if err != nil {
			return err
		}
		for _, b := range blocks {
			if b.Block.IsComplete {
				continue
			}
			if err := w.pipeline.ProcessBlockWithEvents(ctx, b.Block, b.Events); err != nil {
				return err
			}
		}

		tip := res.Headers[len(res.Headers)-1]
		if err := w.locked(func() error {
			return w.store.UpdateSyncStatusProcessedBlock(tip.Hash(), tip.Number.Uint64(), true)
		}); err != nil {
			return err
		}

		w.log.Debugw("processed new blocks",
			"from", res.Headers[0].Number.Uint64(),
			"to", tip.Number.Uint64(),
			"branch_switch", res.Switch != nil,
		)
	}

	return w.canonicalize(ctx, final)
}

// resume processes blocks of the indexed branch that were stored but not
// completed by an earlier pass.
func (w *Watcher) resume(ctx context.Context) error {
	var pending []*subgraph.BlockProgress
	err := w.locked(func() error {
		status, err := w.syncStatusLocked()
		if err != nil || status.LatestIndexedBlockHash == (common.Hash{}) {
			return err
		}

		for hash := status.LatestIndexedBlockHash; ; {
			b, err := w.store.GetBlockProgress(hash)
			if errors.Is(err, subgraph.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if b.IsComplete || b.IsPruned || b.BlockNumber <= status.LatestCanonicalBlockNumber {
				return nil
			}
			pending = append(pending, b)
			hash = b.ParentHash
		}
	})
	if err != nil {
		return err
	}

	slices.Reverse(pending)
	for _, b := range pending {
		events, err := w.blockEvents(b.BlockHash)
		if err != nil {
			return err
		}
		w.log.Infow("resuming incomplete block", "block", b.BlockNumber, "hash", b.BlockHash.Hex())
		if err := w.pipeline.ProcessBlockWithEvents(ctx, b, events); err != nil {
			return err
		}
	}
	return nil
}

// canonicalize marks the processed branch canonical up to the canonical
// target, oldest block first.
func (w *Watcher) canonicalize(ctx context.Context, final uint64) error {
	var chain []*subgraph.BlockProgress
	err := w.locked(func() error {
		status, err := w.syncStatusLocked()
		if err != nil || status.LatestProcessedBlockHash == (common.Hash{}) {
			return err
		}

		target := w.canonicalTarget(status.LatestProcessedBlockNumber, final)
		if target <= status.LatestCanonicalBlockNumber {
			return nil
		}

		hash, err := w.store.GetAncestorAtDepth(status.LatestProcessedBlockHash,
			status.LatestProcessedBlockNumber-target)
		if errors.Is(err, subgraph.ErrNotFound) {
			w.log.Debugw("canonical target not linked to processed tip", "target", target)
			return nil
		}
		if err != nil {
			return err
		}

		for hash != (common.Hash{}) {
			b, err := w.store.GetBlockProgress(hash)
			if errors.Is(err, subgraph.ErrNotFound) {
				break
			}
			if err != nil {
				return err
			}
			if b.BlockNumber <= status.LatestCanonicalBlockNumber {
				break
			}
			chain = append(chain, b)
			hash = b.ParentHash
		}
		return nil
	})
	if err != nil {
		return err
	}

	slices.Reverse(chain)
	for _, b := range chain {
		if err := w.pipeline.ProcessCanonicalBlock(ctx, b.BlockHash); err != nil {
			return err
		}
	}
	if len(chain) > 0 {
		w.log.Debugw("canonicalized blocks",
			"from", chain[0].BlockNumber,
			"to", chain[len(chain)-1].BlockNumber,
		)
	}
	return nil
}

// finalHeight is the highest block that can no longer be reorged away.
func (w *Watcher) finalHeight(ctx context.Context, head *types.Header) (uint64, error) {
	var (
		header *types.Header
		err    error
	)
	switch w.finality {
	case itypes.FinalityFinalized:
		header, err = w.rpc.GetFinalizedBlockHeader(ctx)
	case itypes.FinalitySafe:
		header, err = w.rpc.GetSafeBlockHeader(ctx)
	case itypes.FinalityLatest:
		return itypes.DepthFinal(head.Number.Uint64(), w.depth), nil
	default:
		return 0, fmt.Errorf("invalid finality mode: %s", w.finality)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get %s block: %w", w.finality, err)
	}
	return header.Number.Uint64(), nil
}

// canonicalTarget is the height the canonical pointer may advance to.
func (w *Watcher) canonicalTarget(processed, final uint64) uint64 {
	if !w.finality.Tagged() {
		return itypes.DepthFinal(processed, w.depth)
	}
	return min(final, processed)
}

// startBlock is the lowest starting block of the watched contracts, or the
// final height when nothing is watched yet.
func (w *Watcher) startBlock(final uint64) uint64 {
	contracts := w.pipeline.GetWatchedContracts()
	if len(contracts) == 0 {
		return final
	}

	start := contracts[0].StartingBlock
	for _, c := range contracts[1:] {
		start = min(start, c.StartingBlock)
	}
	return start
}

func (w *Watcher) blockEvents(hash common.Hash) ([]*subgraph.Event, error) {
	var events []*subgraph.Event
	err := w.locked(func() (err error) {
		events, err = w.store.GetBlockEvents(hash)
		return err
	})
	return events, err
}

func (w *Watcher) syncStatus() (*subgraph.SyncStatus, error) {
	var status *subgraph.SyncStatus
	err := w.locked(func() (err error) {
		status, err = w.syncStatusLocked()
		return err
	})
	return status, err
}

// syncStatusLocked returns an empty status before the first block.
func (w *Watcher) syncStatusLocked() (*subgraph.SyncStatus, error) {
	status, err := w.store.GetSyncStatus()
	if errors.Is(err, subgraph.ErrNotFound) {
		return &subgraph.SyncStatus{}, nil
	}
	return status, err
}

func (w *Watcher) setIndexingError(hasError bool) {
	if err := w.locked(func() error {
		return w.store.UpdateSyncStatusIndexingError(hasError)
	}); err != nil {
		w.log.Warnw("failed to update indexing error flag", "error", err)
	}
}

func (w *Watcher) locked(fn func() error) error {
	unlock := w.maintenance.AcquireOperationLock()
	defer unlock()
	return fn()
}

func (w *Watcher) wait(ctx context.Context) error {
	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Close releases the resolver and the RPC client.
func (w *Watcher) Close() {
	w.log.Info("closing watcher")
	if w.resolver != nil {
		w.resolver.Close()
	}
	w.rpc.Close()
}
