package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/checkpoint"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/metrics"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// ProcessCanonicalBlock marks blockHash as canonical. Blocks above the
// previous canonical block that are not its ancestors are pruned together
// with the versions and states they wrote. Staged diffs of the block become
// diffs and a checkpoint run is queued. Canonicalizing the canonical block or
// one of its ancestors again is a no-op.
func (i *Indexer) ProcessCanonicalBlock(ctx context.Context, blockHash common.Hash) error {
	block, advanced, err := i.canonicalize(ctx, blockHash)
	if err != nil || !advanced {
		return err
	}

	for _, kind := range i.contracts.kinds() {
		h, err := i.hooks.Get(kind)
		if err != nil {
			continue
		}
		if err := h.CreateStateDiff(ctx, i, blockHash); err != nil {
			metrics.ErrorsInc(internalcommon.ComponentPipeline, "warning")
			i.log.Warnw("state diff hook failed", "kind", kind, "block", block.BlockNumber, "error", err)
		}
	}

	if i.cfg.StateEnabled() {
		i.checkpoints.ProcessCheckpointAsync(ctx, block, i.contracts.all(), i.checkpointHook)
	}
	return nil
}

func (i *Indexer) canonicalize(ctx context.Context, blockHash common.Hash) (*subgraph.BlockProgress, bool, error) {
	unlock := i.maintenance.AcquireOperationLock()
	defer unlock()

	block, err := i.blockProgress(blockHash)
	if err != nil {
		return nil, false, err
	}
	if !block.IsComplete {
		return nil, false, fmt.Errorf("block %d (%s): %w", block.BlockNumber, blockHash.Hex(), subgraph.ErrBlockNotProcessed)
	}
	if block.IsPruned {
		return nil, false, fmt.Errorf("block %d (%s): %w", block.BlockNumber, blockHash.Hex(), subgraph.ErrBlockPruned)
	}

	status, err := i.syncStatus()
	if err != nil {
		return nil, false, err
	}
	canonical, err := i.checkCanonicalBranch(status, block)
	if err != nil {
		return nil, false, err
	}
	if canonical {
		return block, false, nil
	}

	var (
		advanced bool
		pruned   []common.Hash
	)
	err = i.store.WithTx(ctx, func(tx *sql.Tx, st *store.Store) error {
		from := uint64(0)
		if hasCanonical(status) {
			from = status.LatestCanonicalBlockNumber
		}

		branch, err := st.GetBranch(blockHash, from)
		if err != nil {
			return err
		}
		if hasCanonical(status) {
			if h, ok := branch[from]; ok && h != status.LatestCanonicalBlockHash {
				return subgraph.Consistency("block %d (%s) does not descend from canonical block %d (%s)",
					block.BlockNumber, blockHash.Hex(), from, status.LatestCanonicalBlockHash.Hex())
			}
			from++
		}

		// everything between the old and the new canonical block that is
		// not on the new canonical branch is orphaned
		candidates, err := st.GetUnprunedBlocksInRange(from, block.BlockNumber)
		if err != nil {
			return err
		}
		pruned = pruned[:0]
		for _, b := range candidates {
			if h, ok := branch[b.BlockNumber]; ok && h != b.BlockHash {
				pruned = append(pruned, b.BlockHash)
			}
		}

		fm := i.frothy.Tx(tx)
		if err := fm.MarkBlocksAsPruned(pruned); err != nil {
			return err
		}
		checkpoints := i.checkpoints.Tx(tx)
		for _, h := range pruned {
			if err := checkpoints.RemoveBlockStates(h); err != nil {
				return err
			}
		}

		if advanced, err = st.UpdateSyncStatusCanonicalBlock(blockHash, block.BlockNumber, false); err != nil {
			return err
		}
		if !advanced {
			return nil
		}

		if i.cfg.StateEnabled() {
			if err := checkpoints.FinalizeDiffStaged(blockHash); err != nil {
				return err
			}
		}
		return fm.PruneFrothyEntities(block.BlockNumber)
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to canonicalize block %d: %w", block.BlockNumber, err)
	}
	if !advanced {
		return block, false, nil
	}

	i.frothy.SetCanonicalHeight(block.BlockNumber, false)
	i.frothy.PruneEntityCacheFrothyBlocks(block.BlockNumber)

	if every := i.cfg.ClearEntitiesCacheInterval; every > 0 {
		if last := i.lastCacheClear.Load(); block.BlockNumber >= last+every && i.lastCacheClear.CompareAndSwap(last, block.BlockNumber) {
			i.frothy.ClearEntitiesCache()
		}
	}

	metrics.SyncBlockSet("canonical", block.BlockNumber)
	i.log.Debugw("canonical block", "block", block.BlockNumber, "hash", blockHash.Hex(), "pruned", len(pruned))
	return block, true, nil
}

func (i *Indexer) syncStatus() (*subgraph.SyncStatus, error) {
	status, err := i.store.GetSyncStatus()
	if errors.Is(err, subgraph.ErrNotFound) {
		return &subgraph.SyncStatus{}, nil
	}
	return status, err
}

func hasCanonical(status *subgraph.SyncStatus) bool {
	return status.LatestCanonicalBlockHash != (common.Hash{})
}

// checkCanonicalBranch reports whether block is the canonical block or one of
// its ancestors. A block at or below the canonical height that is not on the
// canonical branch fails with subgraph.ErrConsistency.
func (i *Indexer) checkCanonicalBranch(status *subgraph.SyncStatus, block *subgraph.BlockProgress) (bool, error) {
	if !hasCanonical(status) || block.BlockNumber > status.LatestCanonicalBlockNumber {
		return false, nil
	}

	ok, err := i.store.IsAncestorOrSelf(block.BlockHash, block.BlockNumber,
		status.LatestCanonicalBlockHash, status.LatestCanonicalBlockNumber)
	if err != nil && !errors.Is(err, subgraph.ErrNotFound) {
		return false, err
	}
	if !ok {
		return false, subgraph.Consistency("block %d (%s) is at or below canonical block %d but not on its branch",
			block.BlockNumber, block.BlockHash.Hex(), status.LatestCanonicalBlockNumber)
	}
	return true, nil
}

// checkpointHook lets the hooks of a contract's kind write the checkpoint.
func (i *Indexer) checkpointHook(ctx context.Context, contract *subgraph.Contract, blockHash common.Hash) (bool, error) {
	h, err := i.hooks.Get(contract.Kind)
	if err != nil {
		return false, err
	}
	return h.CreateStateCheckpoint(ctx, i, contract.Address, blockHash)
}

// ProcessCheckpoint runs a checkpoint pass at blockHash and waits for it.
func (i *Indexer) ProcessCheckpoint(ctx context.Context, blockHash common.Hash) error {
	block, err := i.blockProgress(blockHash)
	if err != nil {
		return err
	}
	return i.checkpoints.ProcessCheckpoint(ctx, block, i.contracts.all(), i.checkpointHook)
}

// FlushCheckpoints waits for queued checkpoint runs.
func (i *Indexer) FlushCheckpoints() {
	i.checkpoints.Flush()
}

// ProcessCLICheckpoint creates a checkpoint of a watched checkpoint contract
// at blockHash, or at the latest canonical block when blockHash is nil.
func (i *Indexer) ProcessCLICheckpoint(ctx context.Context, address common.Address, blockHash *common.Hash) (string, error) {
	contract, ok := i.contracts.get(address)
	if !ok {
		return "", fmt.Errorf("contract %s is not watched: %w", address.Hex(), subgraph.ErrNotFound)
	}
	if !contract.Checkpoint {
		return "", fmt.Errorf("contract %s does not have checkpointing enabled", address.Hex())
	}

	cid, err := i.checkpoints.ProcessCLICheckpoint(ctx, address, blockHash)
	if errors.Is(err, checkpoint.ErrInitialStateNotFound) {
		return "", fmt.Errorf("contract %s has no initial state yet: %w", address.Hex(), err)
	}
	return cid, err
}

// CreateInit computes and stores the initial state of a watched contract at
// blockHash if it has none yet.
func (i *Indexer) CreateInit(ctx context.Context, address common.Address, blockHash common.Hash) (bool, error) {
	contract, ok := i.contracts.get(address)
	if !ok {
		return false, fmt.Errorf("contract %s is not watched: %w", address.Hex(), subgraph.ErrNotFound)
	}

	h, err := i.hooks.Get(contract.Kind)
	if err != nil {
		return false, err
	}
	data, err := h.CreateInitialState(ctx, i, address, blockHash)
	if err != nil {
		return false, err
	}

	unlock := i.maintenance.AcquireOperationLock()
	defer unlock()

	return i.checkpoints.CreateInit(address, blockHash, data)
}
