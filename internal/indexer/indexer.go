package indexer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/catalog"
	"github.com/goran-ethernal/SubgraphWatcher/internal/checkpoint"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/db"
	"github.com/goran-ethernal/SubgraphWatcher/internal/frothy"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/registry"
	"github.com/goran-ethernal/SubgraphWatcher/internal/state"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/puzpuzpuz/xsync/v4"
)

// Indexer is the event processing pipeline. It turns the stored events of a
// block into entity versions through the hooks of each contract kind, keeps
// frothy branches apart until they are canonicalized and drives diffs and
// checkpoints. It also serves every read of the derived state.
type Indexer struct {
	store       *store.Store
	frothy      *frothy.Manager
	checkpoints *checkpoint.Manager
	registry    *registry.Registry
	catalog     *catalog.Catalog
	hooks       hooks.Set
	maintenance db.Maintenance
	cfg         config.ServerConfig

	accumulator *state.Accumulator
	contracts   *contractSet
	// initial states computed for a block, committed with it
	pendingInits *xsync.Map[common.Hash, map[common.Address]subgraph.StateData]
	// blocks whose last processing attempt failed
	failed *xsync.Map[common.Hash, struct{}]
	runs   *xsync.Map[common.Hash, *blockRun]

	lastCacheClear atomic.Uint64

	log *logger.Logger
}

var _ hooks.Indexer = (*Indexer)(nil)

// New creates the pipeline over an open, migrated database and loads the
// watched contracts.
func New(
	database *sql.DB,
	cfg config.ServerConfig,
	reg *registry.Registry,
	cat *catalog.Catalog,
	set hooks.Set,
	maintenance db.Maintenance,
	log *logger.Logger,
) (*Indexer, error) {
	if maintenance == nil {
		maintenance = &db.NoOpMaintenance{}
	}

	st := store.New(database, log)
	fm, err := frothy.New(st, cat, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create frothy manager: %w", err)
	}

	idx := &Indexer{
		store:        st,
		frothy:       fm,
		checkpoints:  checkpoint.New(st, cfg, maintenance, log),
		registry:     reg,
		catalog:      cat,
		hooks:        set,
		maintenance:  maintenance,
		cfg:          cfg,
		accumulator:  state.NewAccumulator(),
		contracts:    newContractSet(),
		pendingInits: xsync.NewMap[common.Hash, map[common.Address]subgraph.StateData](),
		failed:       xsync.NewMap[common.Hash, struct{}](),
		runs:         xsync.NewMap[common.Hash, *blockRun](),
		log:          log.WithComponent(internalcommon.ComponentPipeline),
	}
	idx.lastCacheClear.Store(fm.CanonicalHeight())

	if err := idx.reloadContracts(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Close waits for queued checkpoints.
func (i *Indexer) Close() {
	i.checkpoints.Close()
}

// Store returns the block, event and sync status store.
func (i *Indexer) Store() *store.Store {
	return i.store
}

// Registry returns the event signature registry.
func (i *Indexer) Registry() *registry.Registry {
	return i.registry
}

// Catalog returns the entity catalog.
func (i *Indexer) Catalog() *catalog.Catalog {
	return i.catalog
}

// CanonicalHeight returns the latest canonical block number.
func (i *Indexer) CanonicalHeight() uint64 {
	return i.frothy.CanonicalHeight()
}

func (i *Indexer) reloadContracts() error {
	contracts, err := i.store.GetContracts()
	if err != nil {
		return err
	}
	i.contracts.load(contracts)
	i.log.Debugw("loaded watched contracts", "count", len(contracts))
	return nil
}

// WatchContract starts watching a contract. Events are routed to it from the
// next processed block on.
func (i *Indexer) WatchContract(
	_ context.Context,
	address common.Address,
	kind string,
	checkpoint bool,
	startingBlock uint64,
	contractCtx map[string]any,
) error {
	if _, err := i.hooks.Get(kind); err != nil {
		return err
	}
	if _, err := i.registry.Signatures(kind); err != nil {
		return err
	}

	contract := &subgraph.Contract{
		Address:       address,
		Kind:          kind,
		Checkpoint:    checkpoint,
		StartingBlock: startingBlock,
		Context:       contractCtx,
	}
	if err := i.store.SaveContract(contract); err != nil {
		return err
	}
	i.contracts.add(contract)

	i.log.Infow("watching contract",
		"address", address.Hex(),
		"kind", kind,
		"checkpoint", checkpoint,
		"starting_block", startingBlock,
	)
	return nil
}

// IsWatchedContract returns the watched contract at address, if any.
func (i *Indexer) IsWatchedContract(address common.Address) (*subgraph.Contract, bool) {
	return i.contracts.get(address)
}

// GetWatchedContracts returns every watched contract.
func (i *Indexer) GetWatchedContracts() []*subgraph.Contract {
	return i.contracts.all()
}

// GetContractsByKind returns the watched contracts of kind.
func (i *Indexer) GetContractsByKind(kind string) []*subgraph.Contract {
	return i.contracts.byKind(kind)
}

// WatchedAddresses returns the addresses whose events matter at blockNumber.
func (i *Indexer) WatchedAddresses(blockNumber uint64) []common.Address {
	return i.contracts.addresses(blockNumber)
}

// ContractKind returns the kind of the contract at address, if watched.
func (i *Indexer) ContractKind(address common.Address) (string, bool) {
	c, ok := i.contracts.get(address)
	if !ok {
		return "", false
	}
	return c.Kind, true
}

func (i *Indexer) blockProgress(blockHash common.Hash) (*subgraph.BlockProgress, error) {
	block, err := i.store.GetBlockProgress(blockHash)
	if errors.Is(err, subgraph.ErrNotFound) {
		return nil, fmt.Errorf("block %s: %w", blockHash.Hex(), subgraph.ErrBlockNotProcessed)
	}
	return block, err
}
