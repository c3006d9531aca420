package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// GetSubgraphEntity returns one entity at height. Relation fields named in
// selection are replaced by the entities they reference, resolved at the same
// height.
func (i *Indexer) GetSubgraphEntity(
	_ context.Context,
	entityType, id string,
	height subgraph.BlockHeight,
	selection []string,
) (subgraph.Entity, error) {
	entity, err := i.frothy.GetEntity(entityType, id, height)
	if err != nil {
		return nil, err
	}
	if err := i.resolveRelations(entityType, entity, height, selection); err != nil {
		return nil, err
	}
	return entity, nil
}

// GetSubgraphEntities lists entities at height filtered by where, with the
// relation fields in selection resolved.
func (i *Indexer) GetSubgraphEntities(
	_ context.Context,
	entityType string,
	height subgraph.BlockHeight,
	where subgraph.Where,
	opts subgraph.QueryOptions,
	selection []string,
) ([]subgraph.Entity, error) {
	entities, err := i.frothy.GetEntities(entityType, height, where, opts)
	if err != nil {
		return nil, err
	}
	for _, e := range entities {
		if err := i.resolveRelations(entityType, e, height, selection); err != nil {
			return nil, err
		}
	}
	return entities, nil
}

func (i *Indexer) resolveRelations(entityType string, entity subgraph.Entity, height subgraph.BlockHeight, selection []string) error {
	for _, field := range selection {
		rel, ok := i.catalog.Relation(entityType, field)
		if !ok {
			if _, err := i.catalog.FieldType(entityType, field); err != nil {
				return err
			}
			continue
		}

		if rel.IsDerived {
			derived, err := i.derivedEntities(rel, entity.ID(), height)
			if err != nil {
				return err
			}
			entity[field] = derived
			continue
		}

		if rel.IsArray {
			ids, _ := entity[field].([]any)
			related := make([]subgraph.Entity, 0, len(ids))
			for _, raw := range ids {
				id, _ := raw.(string)
				e, err := i.frothy.GetEntity(rel.Entity, id, height)
				if errors.Is(err, subgraph.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				related = append(related, e)
			}
			entity[field] = related
			continue
		}

		id, _ := entity[field].(string)
		if id == "" {
			continue
		}
		e, err := i.frothy.GetEntity(rel.Entity, id, height)
		if errors.Is(err, subgraph.ErrNotFound) {
			entity[field] = nil
			continue
		}
		if err != nil {
			return err
		}
		entity[field] = e
	}
	return nil
}

// derivedEntities collects the rel.Entity entities whose rel.Field references id.
func (i *Indexer) derivedEntities(rel subgraph.RelationDef, id string, height subgraph.BlockHeight) ([]subgraph.Entity, error) {
	key := rel.Field
	if back, ok := i.catalog.Relation(rel.Entity, rel.Field); ok && back.IsArray {
		key += "_contains"
	}
	return i.frothy.GetEntities(rel.Entity, height, subgraph.Where{key: id}, subgraph.QueryOptions{
		Limit: subgraph.DefaultQueryLimit,
	})
}

// GetEventsByFilter returns the stored events of a processed block.
func (i *Indexer) GetEventsByFilter(_ context.Context, filter subgraph.EventFilter) ([]*subgraph.Event, error) {
	block, err := i.blockProgress(filter.BlockHash)
	if err != nil {
		return nil, err
	}
	if !block.IsComplete {
		return nil, fmt.Errorf("block %d: %w", block.BlockNumber, subgraph.ErrBlockNotProcessed)
	}
	return i.store.GetEventsByFilter(filter)
}

// GetEventsInRange returns the events of [from, to]. Every height in the
// range must have a processed block.
func (i *Indexer) GetEventsInRange(_ context.Context, from, to uint64) ([]*subgraph.Event, error) {
	if to < from {
		return nil, fmt.Errorf("invalid block range %d-%d", from, to)
	}
	if limit := i.cfg.MaxEventsBlockRange; limit > 0 && to-from > limit {
		return nil, fmt.Errorf("block range %d-%d exceeds the maximum of %d blocks", from, to, limit)
	}

	expected, actual, err := i.store.GetProcessedBlockCountForRange(from, to)
	if err != nil {
		return nil, err
	}
	if expected != actual {
		return nil, &subgraph.RangeMismatchError{From: from, To: to, Expected: expected, Actual: actual}
	}
	return i.store.GetEventsInRange(from, to)
}

// GetSyncStatus returns the indexing progress.
func (i *Indexer) GetSyncStatus(_ context.Context) (*subgraph.SyncStatus, error) {
	return i.store.GetSyncStatus()
}

// GetStateSyncStatus returns how far diffs and checkpoints are materialized.
func (i *Indexer) GetStateSyncStatus(_ context.Context) (*subgraph.StateSyncStatus, error) {
	return i.checkpoints.GetStateSyncStatus()
}

// GetStateByCID returns a stored state by its content id.
func (i *Indexer) GetStateByCID(_ context.Context, cid string) (*subgraph.State, error) {
	return i.checkpoints.GetStateByCID(cid)
}

// GetStates lists stored states matching filter.
func (i *Indexer) GetStates(_ context.Context, filter subgraph.StateFilter) ([]*subgraph.State, error) {
	return i.checkpoints.GetStates(filter)
}

// GetBlockProgress returns a stored block.
func (i *Indexer) GetBlockProgress(_ context.Context, blockHash common.Hash) (*subgraph.BlockProgress, error) {
	return i.store.GetBlockProgress(blockHash)
}

// GetBlocksAtHeight returns the stored blocks at height.
func (i *Indexer) GetBlocksAtHeight(_ context.Context, height uint64, isPruned bool) ([]*subgraph.BlockProgress, error) {
	return i.store.GetBlocksAtHeight(height, isPruned)
}

// EntityTypes returns the queryable entity types.
func (i *Indexer) EntityTypes() []string {
	return i.catalog.EntityTypes()
}

// ResetWatcherToBlock rolls every derived table back to blockNumber, which
// must hold a processed canonical block. Blocks, events, entity versions,
// states and contracts above it are deleted.
func (i *Indexer) ResetWatcherToBlock(ctx context.Context, blockNumber uint64) error {
	unlock := i.maintenance.AcquireOperationLock()
	defer unlock()

	blocks, err := i.store.GetBlocksAtHeight(blockNumber, false)
	if err != nil {
		return err
	}
	var target *subgraph.BlockProgress
	for _, b := range blocks {
		if b.IsComplete {
			target = b
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no processed block at %d: %w", blockNumber, subgraph.ErrBlockNotProcessed)
	}

	var deleted int64
	err = i.store.WithTx(ctx, func(tx *sql.Tx, st *store.Store) error {
		siblings := make([]common.Hash, 0, len(blocks))
		for _, b := range blocks {
			if b.BlockHash != target.BlockHash {
				siblings = append(siblings, b.BlockHash)
			}
		}

		fm := i.frothy.Tx(tx)
		if err := fm.MarkBlocksAsPruned(siblings); err != nil {
			return err
		}
		if err := fm.DeleteAbove(blockNumber); err != nil {
			return err
		}

		checkpoints := i.checkpoints.Tx(tx)
		if err := checkpoints.RemoveStatesAbove(blockNumber); err != nil {
			return err
		}

		var err error
		if deleted, err = st.DeleteBlocksAbove(blockNumber); err != nil {
			return err
		}
		if err := st.DeleteContractsAbove(blockNumber); err != nil {
			return err
		}
		if err := st.ResetSyncStatus(target); err != nil {
			return err
		}

		status, err := checkpoints.GetStateSyncStatus()
		switch {
		case errors.Is(err, subgraph.ErrNotFound):
			return nil
		case err != nil:
			return err
		}
		if status.LatestIndexedBlockNumber > blockNumber {
			if err := checkpoints.UpdateStateSyncStatusIndexedBlock(blockNumber, true); err != nil {
				return err
			}
		}
		if status.LatestCheckpointBlockNumber > blockNumber {
			return checkpoints.UpdateStateSyncStatusCheckpointBlock(blockNumber, true)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to reset to block %d: %w", blockNumber, err)
	}

	if blockNumber < i.frothy.CanonicalHeight() {
		i.frothy.SetCanonicalHeight(blockNumber, true)
	}
	i.frothy.ClearEntitiesCache()
	i.lastCacheClear.Store(blockNumber)
	i.failed.Clear()
	if err := i.reloadContracts(); err != nil {
		return err
	}

	i.log.Infow("reset to block", "block", blockNumber, "hash", target.BlockHash.Hex(), "deleted_blocks", deleted)
	return nil
}

// BackfillEventsData moves legacy topics and data of stored events into their
// columns, batchSize rows at a time, and returns the number of updated rows.
func (i *Indexer) BackfillEventsData(ctx context.Context, batchSize int) (int, error) {
	unlock := i.maintenance.AcquireOperationLock()
	defer unlock()

	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := i.store.BackfillEventsData(batchSize)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
		total += n
		i.log.Debugw("backfilled events", "batch", n, "total", total)
	}
}
