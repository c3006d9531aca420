package state

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/puzpuzpuz/xsync/v4"
)

// Mutation is a staged entity write. Entity is nil for removals.
type Mutation struct {
	Type   string
	ID     string
	Entity subgraph.Entity
}

// Removed reports whether the mutation removes the entity.
func (m Mutation) Removed() bool {
	return m.Entity == nil
}

type entityKey struct {
	entityType string
	id         string
}

// BlockState holds the uncommitted mutations of one block.
type BlockState struct {
	mu        sync.Mutex
	hash      common.Hash
	order     []entityKey
	entities  map[entityKey]subgraph.Entity
	contracts map[common.Address]*subgraph.StateData
}

func newBlockState(hash common.Hash) *BlockState {
	return &BlockState{
		hash:      hash,
		entities:  make(map[entityKey]subgraph.Entity),
		contracts: make(map[common.Address]*subgraph.StateData),
	}
}

// Hash returns the block hash the state belongs to.
func (b *BlockState) Hash() common.Hash {
	return b.hash
}

func (b *BlockState) stage(contract common.Address, entityType, id string, entity subgraph.Entity) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := entityKey{entityType: entityType, id: id}
	if _, ok := b.entities[key]; !ok {
		b.order = append(b.order, key)
	}
	b.entities[key] = entity

	diff, ok := b.contracts[contract]
	if !ok {
		d := subgraph.NewStateData()
		diff = &d
		b.contracts[contract] = diff
	}
	diff.Set(entityType, id, entity.Clone())
}

// Accumulator stages entity mutations and per-contract state diffs of blocks
// being processed. Nothing is visible outside the block until it is committed.
type Accumulator struct {
	blocks *xsync.Map[common.Hash, *BlockState]
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		blocks: xsync.NewMap[common.Hash, *BlockState](),
	}
}

// Block returns the staging area of blockHash, creating it if needed.
func (a *Accumulator) Block(blockHash common.Hash) *BlockState {
	b, _ := a.blocks.LoadOrStore(blockHash, newBlockState(blockHash))
	return b
}

// Stage records entity as written by contract in blockHash.
func (a *Accumulator) Stage(blockHash common.Hash, contract common.Address, entityType string, entity subgraph.Entity) {
	a.Block(blockHash).stage(contract, entityType, entity.ID(), entity.Clone())
}

// Remove records the removal of an entity by contract in blockHash.
func (a *Accumulator) Remove(blockHash common.Hash, contract common.Address, entityType, id string) {
	a.Block(blockHash).stage(contract, entityType, id, nil)
}

// UpdateSubgraphState merges data into contract's diff for blockHash without
// touching staged entities.
func (a *Accumulator) UpdateSubgraphState(blockHash common.Hash, contract common.Address, data subgraph.StateData) {
	b := a.Block(blockHash)

	b.mu.Lock()
	defer b.mu.Unlock()

	diff, ok := b.contracts[contract]
	if !ok {
		d := subgraph.NewStateData()
		diff = &d
		b.contracts[contract] = diff
	}
	for entityType, byID := range data.State {
		for id, e := range byID {
			diff.Set(entityType, id, e.Clone())
		}
	}
}

// Lookup returns the staged version of an entity. found is false when the
// block has not touched the entity; a found nil entity means it was removed.
func (a *Accumulator) Lookup(blockHash common.Hash, entityType, id string) (entity subgraph.Entity, found bool) {
	b, ok := a.blocks.Load(blockHash)
	if !ok {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entities[entityKey{entityType: entityType, id: id}]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

// Entities returns the staged mutations of blockHash in first-write order.
func (a *Accumulator) Entities(blockHash common.Hash) []Mutation {
	b, ok := a.blocks.Load(blockHash)
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Mutation, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, Mutation{
			Type:   key.entityType,
			ID:     key.id,
			Entity: b.entities[key].Clone(),
		})
	}
	return out
}

// ContractStates returns a copy of the per-contract diffs staged for blockHash.
func (a *Accumulator) ContractStates(blockHash common.Hash) map[common.Address]subgraph.StateData {
	b, ok := a.blocks.Load(blockHash)
	if !ok {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[common.Address]subgraph.StateData, len(b.contracts))
	for addr, diff := range b.contracts {
		out[addr] = diff.Clone()
	}
	return out
}

// Discard drops everything staged for blockHash.
func (a *Accumulator) Discard(blockHash common.Hash) {
	a.blocks.Delete(blockHash)
}

// Len returns the number of blocks with staged data.
func (a *Accumulator) Len() int {
	return a.blocks.Size()
}
