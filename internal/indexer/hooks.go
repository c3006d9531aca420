package indexer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/catalog"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// The methods below are called by contract hooks while a block is processed.
// They run under the operation lock taken by the pipeline and must not take it
// again.

// GetEntity returns an entity as seen from blockHash. Versions staged by
// earlier events of the same block win over committed ones.
func (i *Indexer) GetEntity(_ context.Context, entityType, id string, blockHash common.Hash) (subgraph.Entity, error) {
	if !i.catalog.Has(entityType) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownEntityType, entityType)
	}

	if entity, found := i.accumulator.Lookup(blockHash, entityType, id); found {
		if entity == nil {
			return nil, fmt.Errorf("%s %s removed in block %s: %w", entityType, id, blockHash.Hex(), subgraph.ErrNotFound)
		}
		return entity, nil
	}

	block, err := i.store.GetBlockProgress(blockHash)
	if err != nil {
		return nil, err
	}
	return i.frothy.EntityAt(entityType, id, block)
}

// SaveEntity stages entity for blockHash and records it in contract's diff.
func (i *Indexer) SaveEntity(
	_ context.Context,
	contract common.Address,
	blockHash common.Hash,
	entityType string,
	entity subgraph.Entity,
) error {
	normalized, err := i.catalog.Normalize(entityType, entity)
	if err != nil {
		return err
	}
	if normalized.ID() == "" {
		return fmt.Errorf("%s entity without id", entityType)
	}

	i.accumulator.Stage(blockHash, contract, entityType, normalized)
	return nil
}

// RemoveEntity stages the removal of an entity for blockHash.
func (i *Indexer) RemoveEntity(_ context.Context, contract common.Address, blockHash common.Hash, entityType, id string) error {
	if !i.catalog.Has(entityType) {
		return fmt.Errorf("%w: %s", catalog.ErrUnknownEntityType, entityType)
	}

	i.accumulator.Remove(blockHash, contract, entityType, id)
	return nil
}

// GetPrevState returns the latest state of contract strictly below blockNumber.
func (i *Indexer) GetPrevState(
	_ context.Context,
	contract common.Address,
	blockNumber uint64,
	kinds ...subgraph.StateKind,
) (*subgraph.State, error) {
	return i.checkpoints.GetPrevState(contract, blockNumber, kinds...)
}

// GetLatestState returns the latest state of contract, optionally of one kind
// and at or below blockNumber.
func (i *Indexer) GetLatestState(
	_ context.Context,
	contract common.Address,
	kind subgraph.StateKind,
	blockNumber *uint64,
) (*subgraph.State, error) {
	return i.checkpoints.GetLatestState(contract, kind, blockNumber)
}

// CreateDiff stores data as a finalized diff of contract at blockHash.
func (i *Indexer) CreateDiff(_ context.Context, contract common.Address, blockHash common.Hash, data subgraph.StateData) error {
	return i.checkpoints.CreateDiff(contract, blockHash, data)
}

// CreateStateCheckpoint stores data as the checkpoint of contract at blockHash.
func (i *Indexer) CreateStateCheckpoint(
	_ context.Context,
	contract common.Address,
	blockHash common.Hash,
	data subgraph.StateData,
) (bool, error) {
	return i.checkpoints.CreateStateCheckpoint(contract, blockHash, data)
}
