package checkpoint

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/db"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// ErrInitialStateNotFound is returned when a diff or checkpoint is requested
// for a contract that has no initial state at or below the block.
var ErrInitialStateNotFound = errors.New("initial state not found")

// Manager creates and queries the init, diff and checkpoint states of
// checkpoint enabled contracts. Automatic checkpoints run on a worker pool
// and never block the caller.
type Manager struct {
	q           db.Querier
	store       *store.Store
	maintenance db.Maintenance
	// runner executes checkpoint runs one at a time, in submission order
	runner      pond.Pool
	pool        pond.Pool
	interval    int64
	queueSize   int
	log         *logger.Logger
}

// New creates a checkpoint manager using the server section of the config.
func New(st *store.Store, cfg config.ServerConfig, maintenance db.Maintenance, log *logger.Logger) *Manager {
	if maintenance == nil {
		maintenance = &db.NoOpMaintenance{}
	}

	workers := max(cfg.CheckpointWorkers, 1)
	queueSize := max(cfg.CheckpointQueueSize, 1)

	return &Manager{
		q:           db.Instrument(st.DB()),
		store:       st,
		maintenance: maintenance,
		runner:      pond.NewPool(1, pond.WithQueueSize(queueSize)),
		pool:        pond.NewPool(workers, pond.WithQueueSize(queueSize)),
		interval:    cfg.CheckpointInterval,
		queueSize:   queueSize,
		log:         log.WithComponent(internalcommon.ComponentCheckpoint),
	}
}

// Tx returns a manager whose statements run inside tx. The worker pools are shared.
func (m *Manager) Tx(tx *sql.Tx) *Manager {
	cp := *m
	cp.q = db.Instrument(tx)
	cp.store = m.store.Tx(tx)
	return &cp
}

// Interval returns the number of canonical blocks between automatic checkpoints.
func (m *Manager) Interval() int64 {
	return m.interval
}

// Close waits for queued checkpoint runs and stops the worker pools.
func (m *Manager) Close() {
	m.runner.StopAndWait()
	m.pool.StopAndWait()
}

// saveState encodes data with its meta and stores it, replacing an existing
// state of the same contract, block and kind.
func (m *Manager) saveState(
	contract common.Address,
	block *subgraph.BlockProgress,
	kind subgraph.StateKind,
	data subgraph.StateData,
) (*subgraph.State, error) {
	parent := ""
	prev, err := m.GetPrevState(contract, block.BlockNumber,
		subgraph.StateKindInit, subgraph.StateKindDiff, subgraph.StateKindCheckpoint)
	switch {
	case err == nil:
		parent = prev.CID
	case !errors.Is(err, subgraph.ErrNotFound):
		return nil, err
	}

	data.Meta = &subgraph.StateMeta{
		Contract:    contract,
		Kind:        kind,
		Parent:      parent,
		BlockHash:   block.BlockHash,
		BlockNumber: block.BlockNumber,
	}
	encoded, err := data.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s state of %s: %w", kind, contract.Hex(), err)
	}

	st := &subgraph.State{
		ContractAddress: contract,
		BlockHash:       block.BlockHash,
		BlockNumber:     block.BlockNumber,
		CID:             subgraph.ComputeCID(encoded),
		Kind:            kind,
		Data:            encoded,
	}

	_, err = m.q.Exec(`
		INSERT INTO states (contract_address, block_hash, block_number, cid, kind, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(contract_address, block_hash, kind) DO UPDATE SET
			cid = excluded.cid,
			data = excluded.data
	`, contract.Hex(), block.BlockHash.Hex(), block.BlockNumber, st.CID, kind, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s state of %s at %d: %w", kind, contract.Hex(), block.BlockNumber, err)
	}

	StateCreatedInc(string(kind))
	return st, nil
}

func (m *Manager) block(blockHash common.Hash) (*subgraph.BlockProgress, error) {
	return m.store.GetBlockProgress(blockHash)
}

// CreateInit stores the initial state of contract at blockHash. It returns
// false if the branch of the block already has an initial state.
func (m *Manager) CreateInit(contract common.Address, blockHash common.Hash, data subgraph.StateData) (bool, error) {
	block, err := m.block(blockHash)
	if err != nil {
		return false, err
	}

	existing, err := m.GetBranchInit(contract, block)
	if err == nil && existing != nil {
		return false, nil
	}
	if err != nil && !errors.Is(err, subgraph.ErrNotFound) {
		return false, err
	}
	if _, err := m.saveState(contract, block, subgraph.StateKindInit, data); err != nil {
		return false, err
	}

	m.log.Infow("created initial state", "contract", contract.Hex(), "block", block.BlockNumber)
	return true, nil
}

// mergeInto loads the state of kind at blockHash, applies data on top of it
// keeping removal markers and saves the result.
func (m *Manager) mergeInto(
	contract common.Address,
	block *subgraph.BlockProgress,
	kind subgraph.StateKind,
	data subgraph.StateData,
) error {
	merged := subgraph.NewStateData()

	existing, err := m.getState(contract, block.BlockHash, kind)
	switch {
	case err == nil:
		if merged, err = subgraph.DecodeStateData(existing.Data); err != nil {
			return err
		}
	case !errors.Is(err, subgraph.ErrNotFound):
		return err
	}

	for entityType, byID := range data.State {
		for id, e := range byID {
			merged.Set(entityType, id, e.Clone())
		}
	}

	_, err = m.saveState(contract, block, kind, merged)
	return err
}

// CreateDiffStaged records data as the staged diff of contract at blockHash.
// Staged diffs of one block are merged. They become diffs once the block is
// canonical.
func (m *Manager) CreateDiffStaged(contract common.Address, blockHash common.Hash, data subgraph.StateData) error {
	block, err := m.block(blockHash)
	if err != nil {
		return err
	}
	return m.mergeInto(contract, block, subgraph.StateKindDiffStaged, data)
}

// CreateDiff records data as a finalized diff of contract at blockHash.
func (m *Manager) CreateDiff(contract common.Address, blockHash common.Hash, data subgraph.StateData) error {
	block, err := m.block(blockHash)
	if err != nil {
		return err
	}

	if _, err := m.GetLatestState(contract, "", &block.BlockNumber); err != nil {
		if errors.Is(err, subgraph.ErrNotFound) {
			return fmt.Errorf("diff of %s at %d: %w", contract.Hex(), block.BlockNumber, ErrInitialStateNotFound)
		}
		return err
	}

	return m.mergeInto(contract, block, subgraph.StateKindDiff, data)
}

// CreateStateCheckpoint stores data as the checkpoint of contract at blockHash.
// It returns false if that checkpoint already exists.
func (m *Manager) CreateStateCheckpoint(contract common.Address, blockHash common.Hash, data subgraph.StateData) (bool, error) {
	_, err := m.getState(contract, blockHash, subgraph.StateKindCheckpoint)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, subgraph.ErrNotFound) {
		return false, err
	}

	block, err := m.block(blockHash)
	if err != nil {
		return false, err
	}
	if _, err := m.saveState(contract, block, subgraph.StateKindCheckpoint, data); err != nil {
		return false, err
	}
	return true, nil
}

// CreateCheckpoint materializes the full state of contract at blockHash from
// the latest checkpoint, or the initial state, plus the diffs after it. It
// returns the CID of the checkpoint and false if one already existed.
func (m *Manager) CreateCheckpoint(contract common.Address, blockHash common.Hash) (string, bool, error) {
	if existing, err := m.getState(contract, blockHash, subgraph.StateKindCheckpoint); err == nil {
		return existing.CID, false, nil
	} else if !errors.Is(err, subgraph.ErrNotFound) {
		return "", false, err
	}

	block, err := m.block(blockHash)
	if err != nil {
		return "", false, err
	}

	base, err := m.GetLatestState(contract, subgraph.StateKindCheckpoint, &block.BlockNumber)
	if errors.Is(err, subgraph.ErrNotFound) {
		base, err = m.GetLatestState(contract, subgraph.StateKindInit, &block.BlockNumber)
	}
	if errors.Is(err, subgraph.ErrNotFound) {
		return "", false, fmt.Errorf("checkpoint of %s at %d: %w", contract.Hex(), block.BlockNumber, ErrInitialStateNotFound)
	}
	if err != nil {
		return "", false, err
	}

	full, err := subgraph.DecodeStateData(base.Data)
	if err != nil {
		return "", false, err
	}
	full = full.Clone()

	// diffs of the init block come after the init, a checkpoint already holds its block's diff
	from := base.BlockNumber
	if base.Kind == subgraph.StateKindCheckpoint {
		from++
	}
	diffs, err := m.GetStates(subgraph.StateFilter{
		ContractAddress: &contract,
		Kind:            subgraph.StateKindDiff,
		FromBlock:       &from,
		ToBlock:         &block.BlockNumber,
	})
	if err != nil {
		return "", false, err
	}
	for _, d := range diffs {
		diff, err := subgraph.DecodeStateData(d.Data)
		if err != nil {
			return "", false, err
		}
		full.Apply(diff)
	}

	st, err := m.saveState(contract, block, subgraph.StateKindCheckpoint, full)
	if err != nil {
		return "", false, err
	}

	m.log.Infow("created checkpoint",
		"contract", contract.Hex(),
		"block", block.BlockNumber,
		"base", base.BlockNumber,
		"diffs", len(diffs),
		"cid", st.CID,
	)
	return st.CID, true, nil
}

// FinalizeDiffStaged promotes the staged diffs of a canonical block to diffs
// and drops the staged diffs of pruned blocks at the same height.
func (m *Manager) FinalizeDiffStaged(blockHash common.Hash) error {
	block, err := m.block(blockHash)
	if err != nil {
		return err
	}

	staged, err := m.GetStates(subgraph.StateFilter{BlockHash: &blockHash, Kind: subgraph.StateKindDiffStaged})
	if err != nil {
		return err
	}
	for _, s := range staged {
		data, err := subgraph.DecodeStateData(s.Data)
		if err != nil {
			return err
		}
		if err := m.mergeInto(s.ContractAddress, block, subgraph.StateKindDiff, data); err != nil {
			return err
		}
	}

	if _, err := m.q.Exec(`
		DELETE FROM states WHERE kind = ? AND block_number = ? AND block_hash IN (
			SELECT block_hash FROM block_progress WHERE block_number = ? AND (is_pruned = 1 OR block_hash = ?)
		)
	`, subgraph.StateKindDiffStaged, block.BlockNumber, block.BlockNumber, blockHash.Hex()); err != nil {
		return fmt.Errorf("failed to remove staged diffs at %d: %w", block.BlockNumber, err)
	}

	if len(staged) > 0 {
		DiffsFinalizedAdd(len(staged))
		m.log.Debugf("finalized %d staged diffs at block %d", len(staged), block.BlockNumber)
	}
	return m.UpdateStateSyncStatusIndexedBlock(block.BlockNumber, false)
}
