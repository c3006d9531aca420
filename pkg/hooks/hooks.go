package hooks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// Indexer is the surface the pipeline exposes to contract hooks while a block
// is being processed. Entity writes are staged for the block and only become
// visible to other blocks once the block is committed.
type Indexer interface {
	// GetEntity returns the entity as seen from blockHash, including mutations
	// already staged by earlier events of the same block.
	GetEntity(ctx context.Context, entityType, id string, blockHash common.Hash) (subgraph.Entity, error)

	// SaveEntity stages entity for blockHash and records it in contract's state diff.
	SaveEntity(ctx context.Context, contract common.Address, blockHash common.Hash,
		entityType string, entity subgraph.Entity) error

	// RemoveEntity stages the removal of an entity for blockHash.
	RemoveEntity(ctx context.Context, contract common.Address, blockHash common.Hash,
		entityType, id string) error

	// GetPrevState returns the most recent state record of contract strictly
	// below blockNumber, restricted to kinds when given.
	GetPrevState(ctx context.Context, contract common.Address, blockNumber uint64,
		kinds ...subgraph.StateKind) (*subgraph.State, error)

	// GetLatestState returns the latest state record of contract, optionally
	// restricted to a kind and to blocks at or below blockNumber.
	GetLatestState(ctx context.Context, contract common.Address, kind subgraph.StateKind,
		blockNumber *uint64) (*subgraph.State, error)

	// CreateDiff stores data as a finalized diff of contract at blockHash.
	CreateDiff(ctx context.Context, contract common.Address, blockHash common.Hash, data subgraph.StateData) error

	// CreateStateCheckpoint stores data as a checkpoint of contract at blockHash.
	// It returns false if a checkpoint already exists there.
	CreateStateCheckpoint(ctx context.Context, contract common.Address, blockHash common.Hash,
		data subgraph.StateData) (bool, error)

	// IsWatchedContract returns the watched contract at address, if any.
	IsWatchedContract(address common.Address) (*subgraph.Contract, bool)

	// WatchContract starts watching a contract from the next processed block.
	WatchContract(ctx context.Context, address common.Address, kind string, checkpoint bool,
		startingBlock uint64, contractCtx map[string]any) error
}

// Hooks is the per-kind business logic invoked by the pipeline.
type Hooks interface {
	// CreateInitialState returns the state a contract starts with at its starting block.
	CreateInitialState(ctx context.Context, idx Indexer, contract common.Address,
		blockHash common.Hash) (subgraph.StateData, error)

	// HandleEvent applies one decoded event. Errors abort the block.
	HandleEvent(ctx context.Context, idx Indexer, event *subgraph.ResultEvent) error

	// CreateStateDiff runs once a block becomes canonical, after staged diffs are finalized.
	CreateStateDiff(ctx context.Context, idx Indexer, blockHash common.Hash) error

	// CreateStateCheckpoint may write a custom checkpoint for contract at blockHash.
	// Returning true skips the default checkpoint.
	CreateStateCheckpoint(ctx context.Context, idx Indexer, contract common.Address,
		blockHash common.Hash) (bool, error)
}

// BlockHandler is implemented by hooks that run logic once per block after
// all events have been handled.
type BlockHandler interface {
	HandleBlock(ctx context.Context, idx Indexer, block *subgraph.BlockProgress) error
}

// Set maps contract kinds to their hooks. Kinds are case-insensitive.
type Set map[string]Hooks

// NewSet builds a hook set from kind/hooks pairs.
func NewSet(entries map[string]Hooks) Set {
	set := make(Set, len(entries))
	for kind, h := range entries {
		set[strings.ToLower(kind)] = h
	}
	return set
}

// Get returns the hooks registered for kind.
func (s Set) Get(kind string) (Hooks, error) {
	h, ok := s[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %s (registered kinds: %v)", subgraph.ErrUnknownKind, kind, s.Kinds())
	}
	return h, nil
}

// Kinds returns the registered kinds in sorted order.
func (s Set) Kinds() []string {
	kinds := make([]string, 0, len(s))
	for k := range s {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// BlockHandlers returns the hooks that also implement BlockHandler, ordered by kind.
func (s Set) BlockHandlers() []BlockHandler {
	var handlers []BlockHandler
	for _, kind := range s.Kinds() {
		if bh, ok := s[kind].(BlockHandler); ok {
			handlers = append(handlers, bh)
		}
	}
	return handlers
}
