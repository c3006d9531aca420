package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/metrics"
	"github.com/goran-ethernal/SubgraphWatcher/internal/registry"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// blockRun carries the per-attempt bookkeeping of one block.
type blockRun struct {
	block     *subgraph.BlockProgress
	replay    bool
	canonical bool
	processed int
	lastIndex int64
}

// ProcessBlockWithEvents processes the stored events of block in log index
// order and commits the resulting entity versions and staged diffs together
// with the block's progress. Nothing is written if any handler fails; the
// block can then be processed again. Blocks at or below the canonical height
// are only accepted on the canonical branch.
func (i *Indexer) ProcessBlockWithEvents(ctx context.Context, block *subgraph.BlockProgress, events []*subgraph.Event) error {
	unlock := i.maintenance.AcquireOperationLock()
	defer unlock()

	start := time.Now()

	stored, err := i.blockProgress(block.BlockHash)
	if err != nil {
		return err
	}
	if stored.IsPruned {
		return fmt.Errorf("block %s: %w", block.BlockHash.Hex(), subgraph.ErrBlockPruned)
	}

	status, err := i.syncStatus()
	if err != nil {
		return err
	}
	canonical, err := i.checkCanonicalBranch(status, stored)
	if err != nil {
		return err
	}

	_, failedBefore := i.failed.Load(block.BlockHash)
	run := &blockRun{
		block:     stored,
		replay:    failedBefore,
		canonical: canonical,
		lastIndex: -1,
	}

	if stored.IsComplete || stored.NumProcessedEvents > 0 {
		run.replay = true
		if err := i.ClearProcessedBlockData(ctx, stored); err != nil {
			return i.failBlock(run, fmt.Errorf("failed to clear previous run: %w", err))
		}
		stored.IsComplete = false
		stored.NumProcessedEvents = 0
		stored.LastProcessedEventIndex = -1
	}

	sorted := slices.Clone(events)
	slices.SortFunc(sorted, func(a, b *subgraph.Event) int {
		return int(a.LogIndex) - int(b.LogIndex)
	})

	i.runs.Store(block.BlockHash, run)
	defer i.discardRun(block.BlockHash)

	if err := i.ProcessBlock(ctx, stored); err != nil {
		return i.failBlock(run, err)
	}
	for _, ev := range sorted {
		if err := ctx.Err(); err != nil {
			return i.failBlock(run, err)
		}
		if err := i.ProcessEvent(ctx, stored, ev); err != nil {
			return i.failBlock(run, err)
		}
	}
	if err := i.ProcessBlockAfterEvents(ctx, stored); err != nil {
		return i.failBlock(run, err)
	}

	i.failed.Delete(block.BlockHash)

	elapsed := time.Since(start)
	metrics.BlockProcessingTimeLog(elapsed)
	metrics.BlocksProcessedInc("complete")
	metrics.SyncBlockSet("processed", stored.BlockNumber)
	if elapsed > 0 {
		metrics.IndexingRateLog(float64(run.processed) / elapsed.Seconds())
	}

	i.log.Debugw("processed block",
		"block", stored.BlockNumber,
		"hash", stored.BlockHash.Hex(),
		"events", run.processed,
		"replay", run.replay,
		"duration", elapsed,
	)
	return nil
}

// run returns the in-flight processing state of block.
func (i *Indexer) run(block *subgraph.BlockProgress) *blockRun {
	_, failed := i.failed.Load(block.BlockHash)
	r, _ := i.runs.LoadOrStore(block.BlockHash, &blockRun{block: block, replay: failed, lastIndex: -1})
	return r
}

func (i *Indexer) discardRun(blockHash common.Hash) {
	i.runs.Delete(blockHash)
	i.accumulator.Discard(blockHash)
	i.pendingInits.Delete(blockHash)
}

func (i *Indexer) failBlock(run *blockRun, err error) error {
	i.failed.Store(run.block.BlockHash, struct{}{})
	metrics.BlocksProcessedInc("failed")
	metrics.ErrorsInc(internalcommon.ComponentPipeline, "error")

	i.log.Errorw("block processing failed",
		"block", run.block.BlockNumber,
		"hash", run.block.BlockHash.Hex(),
		"processed_events", run.processed,
		"error", err,
	)
	return fmt.Errorf("failed to process block %d (%s): %w", run.block.BlockNumber, run.block.BlockHash.Hex(), err)
}

// ProcessBlock runs the per-block work that precedes event handling: the
// block is registered in the frothy cache and contracts that start at or
// below it get their initial state.
func (i *Indexer) ProcessBlock(ctx context.Context, block *subgraph.BlockProgress) error {
	run := i.run(block)
	i.frothy.UpdateEntityCacheFrothyBlocks(run.block)

	if !i.cfg.StateEnabled() {
		return nil
	}

	for _, contract := range i.contracts.all() {
		if !contract.Checkpoint || contract.StartingBlock > run.block.BlockNumber {
			continue
		}

		_, err := i.checkpoints.GetBranchInit(contract.Address, run.block)
		if err == nil {
			continue
		}
		if !errors.Is(err, subgraph.ErrNotFound) {
			return err
		}

		h, err := i.hooks.Get(contract.Kind)
		if err != nil {
			return err
		}
		data, err := h.CreateInitialState(ctx, i, contract.Address, run.block.BlockHash)
		if err != nil {
			return fmt.Errorf("initial state of %s: %w", contract.Address.Hex(), err)
		}

		for entityType, byID := range data.State {
			for _, entity := range byID {
				if entity == nil {
					continue
				}
				if err := i.SaveEntity(ctx, contract.Address, run.block.BlockHash, entityType, entity); err != nil {
					return err
				}
			}
		}

		inits, _ := i.pendingInits.LoadOrStore(run.block.BlockHash, make(map[common.Address]subgraph.StateData))
		inits[contract.Address] = data.Clone()
	}
	return nil
}

// ProcessEvent decodes one stored event of block and hands it to the hooks
// of the emitting contract's kind. Events of unwatched contracts and logs the
// ABI does not know are skipped but still count as processed.
func (i *Indexer) ProcessEvent(ctx context.Context, block *subgraph.BlockProgress, ev *subgraph.Event) error {
	run := i.run(block)
	defer func() {
		run.processed++
		run.lastIndex = int64(ev.LogIndex)
	}()

	if ev.EventName == subgraph.UnknownEventName {
		metrics.EventsSkippedInc("unknown")
		return nil
	}

	contract, ok := i.contracts.route(ev.Contract, run.block.BlockNumber)
	if !ok {
		metrics.EventsSkippedInc("unwatched")
		return nil
	}

	decoded, err := i.registry.ParseEventNameAndArgs(contract.Kind, eventLog(ev))
	if err != nil {
		if registry.IsSkippable(err) {
			reason := "unknown"
			if errors.Is(err, registry.ErrMalformedLog) {
				reason = "malformed"
			}
			metrics.EventsSkippedInc(reason)
			i.log.Debugw("skipping event", "block", run.block.BlockNumber, "log_index", ev.LogIndex, "reason", err)
			return nil
		}
		return err
	}

	h, err := i.hooks.Get(contract.Kind)
	if err != nil {
		return err
	}

	result := &subgraph.ResultEvent{
		Block: subgraph.BlockInfo{
			Hash:       run.block.BlockHash,
			Number:     run.block.BlockNumber,
			Timestamp:  run.block.BlockTimestamp,
			ParentHash: run.block.ParentHash,
		},
		TxHash:         ev.TxHash,
		Contract:       contract.Address,
		Kind:           contract.Kind,
		LogIndex:       ev.LogIndex,
		EventName:      decoded.Name,
		EventSignature: decoded.Signature,
		Args:           decoded.Args,
		ExtraData:      subgraph.ExtraEventData{IsReplay: run.replay},
	}

	if err := h.HandleEvent(ctx, i, result); err != nil {
		return fmt.Errorf("%s handler failed at log %d: %w", decoded.Name, ev.LogIndex, err)
	}

	metrics.EventsProcessedInc(decoded.Name)
	return nil
}

// ProcessBlockAfterEvents runs the block handlers and commits everything
// block staged in a single transaction.
func (i *Indexer) ProcessBlockAfterEvents(ctx context.Context, block *subgraph.BlockProgress) error {
	run := i.run(block)
	for _, bh := range i.hooks.BlockHandlers() {
		if err := bh.HandleBlock(ctx, i, run.block); err != nil {
			return fmt.Errorf("block handler failed: %w", err)
		}
	}

	hash := run.block.BlockHash
	mutations := i.accumulator.Entities(hash)
	diffs := i.accumulator.ContractStates(hash)
	inits, _ := i.pendingInits.Load(hash)

	err := i.store.WithTx(ctx, func(tx *sql.Tx, st *store.Store) error {
		if err := i.frothy.Tx(tx).CommitBlock(run.block, mutations); err != nil {
			return err
		}

		if i.cfg.StateEnabled() {
			checkpoints := i.checkpoints.Tx(tx)
			for _, contract := range i.contracts.all() {
				if !contract.Checkpoint {
					continue
				}
				if data, ok := inits[contract.Address]; ok {
					if _, err := checkpoints.CreateInit(contract.Address, hash, data); err != nil {
						return err
					}
				}
				if diff, ok := diffs[contract.Address]; ok && !diff.IsEmpty() {
					if err := checkpoints.CreateDiffStaged(contract.Address, hash, diff); err != nil {
						return err
					}
				}
			}
			// a canonical block that is processed again does not get canonicalized again
			if run.canonical {
				if err := checkpoints.FinalizeDiffStaged(hash); err != nil {
					return err
				}
			}
		}

		if err := st.UpdateBlockProgress(hash, run.lastIndex, run.processed); err != nil {
			return err
		}
		if err := st.RemoveUnknownEvents(hash); err != nil {
			return err
		}
		return st.UpdateSyncStatusProcessedBlock(hash, run.block.BlockNumber, false)
	})
	if err != nil {
		return err
	}

	i.frothy.CacheCommittedBlock(run.block, mutations)
	return nil
}

// ClearProcessedBlockData removes what a previous run of block wrote so the
// block can be processed from scratch. Checkpoints are kept.
func (i *Indexer) ClearProcessedBlockData(ctx context.Context, block *subgraph.BlockProgress) error {
	return i.store.WithTx(ctx, func(tx *sql.Tx, st *store.Store) error {
		if err := i.frothy.Tx(tx).ClearBlock(block.BlockHash); err != nil {
			return err
		}
		if err := i.checkpoints.Tx(tx).RemoveBlockStates(block.BlockHash,
			subgraph.StateKindInit, subgraph.StateKindDiffStaged, subgraph.StateKindDiff); err != nil {
			return err
		}
		return st.ResetBlockProgress(block.BlockHash)
	})
}

func eventLog(ev *subgraph.Event) types.Log {
	return types.Log{
		Address:     ev.Contract,
		Topics:      ev.Topics(),
		Data:        ev.Data,
		BlockNumber: ev.BlockNumber,
		TxHash:      ev.TxHash,
		BlockHash:   ev.BlockHash,
		Index:       ev.LogIndex,
	}
}
