package checkpoint

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/russross/meddler"
)

func (m *Manager) queryState(query string, args ...any) (*subgraph.State, error) {
	var st subgraph.State
	err := meddler.QueryRow(m.q, &st, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subgraph.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query state: %w", err)
	}
	return &st, nil
}

func (m *Manager) getState(contract common.Address, blockHash common.Hash, kind subgraph.StateKind) (*subgraph.State, error) {
	return m.queryState(`
		SELECT * FROM states WHERE contract_address = ? AND block_hash = ? AND kind = ?
	`, contract.Hex(), blockHash.Hex(), kind)
}

// GetPrevState returns the most recent state of contract strictly below
// blockNumber, restricted to kinds when any are given.
func (m *Manager) GetPrevState(contract common.Address, blockNumber uint64, kinds ...subgraph.StateKind) (*subgraph.State, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT * FROM states WHERE contract_address = ? AND block_number < ?`)
	args := []any{contract.Hex(), blockNumber}

	if len(kinds) > 0 {
		query.WriteString(` AND kind IN (` + strings.TrimSuffix(strings.Repeat("?,", len(kinds)), ",") + `)`)
		for _, k := range kinds {
			args = append(args, k)
		}
	}
	query.WriteString(` ORDER BY block_number DESC, id DESC LIMIT 1`)

	st, err := m.queryState(query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("previous state of %s below %d: %w", contract.Hex(), blockNumber, err)
	}
	return st, nil
}

// GetLatestState returns the latest state of contract, optionally of one kind
// and at or below blockNumber.
func (m *Manager) GetLatestState(contract common.Address, kind subgraph.StateKind, blockNumber *uint64) (*subgraph.State, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT * FROM states WHERE contract_address = ?`)
	args := []any{contract.Hex()}

	if kind != "" {
		query.WriteString(` AND kind = ?`)
		args = append(args, kind)
	}
	if blockNumber != nil {
		query.WriteString(` AND block_number <= ?`)
		args = append(args, *blockNumber)
	}
	query.WriteString(` ORDER BY block_number DESC, id DESC LIMIT 1`)

	st, err := m.queryState(query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("latest %s state of %s: %w", kind, contract.Hex(), err)
	}
	return st, nil
}

// GetStates returns the states matching filter ordered by block number.
func (m *Manager) GetStates(filter subgraph.StateFilter) ([]*subgraph.State, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT * FROM states WHERE 1 = 1`)
	var args []any

	if filter.ContractAddress != nil {
		query.WriteString(` AND contract_address = ?`)
		args = append(args, filter.ContractAddress.Hex())
	}
	if filter.BlockHash != nil {
		query.WriteString(` AND block_hash = ?`)
		args = append(args, filter.BlockHash.Hex())
	}
	if filter.Kind != "" {
		query.WriteString(` AND kind = ?`)
		args = append(args, filter.Kind)
	}
	if filter.FromBlock != nil {
		query.WriteString(` AND block_number >= ?`)
		args = append(args, *filter.FromBlock)
	}
	if filter.ToBlock != nil {
		query.WriteString(` AND block_number <= ?`)
		args = append(args, *filter.ToBlock)
	}
	query.WriteString(` ORDER BY block_number ASC, id ASC`)

	var states []*subgraph.State
	if err := meddler.QueryAll(m.q, &states, query.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	return states, nil
}

// GetStatesByHash returns every state recorded at blockHash.
func (m *Manager) GetStatesByHash(blockHash common.Hash) ([]*subgraph.State, error) {
	return m.GetStates(subgraph.StateFilter{BlockHash: &blockHash})
}

// GetStateByCID returns the state with the given content identifier.
func (m *Manager) GetStateByCID(cid string) (*subgraph.State, error) {
	st, err := m.queryState(`SELECT * FROM states WHERE cid = ?`, cid)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", cid, err)
	}
	return st, nil
}

// RemoveStates deletes the states of kind at blockNumber.
func (m *Manager) RemoveStates(blockNumber uint64, kind subgraph.StateKind) error {
	if _, err := m.q.Exec(`DELETE FROM states WHERE block_number = ? AND kind = ?`, blockNumber, kind); err != nil {
		return fmt.Errorf("failed to remove %s states at %d: %w", kind, blockNumber, err)
	}
	return nil
}

// RemoveStatesAbove deletes every state above blockNumber.
func (m *Manager) RemoveStatesAbove(blockNumber uint64) error {
	if _, err := m.q.Exec(`DELETE FROM states WHERE block_number > ?`, blockNumber); err != nil {
		return fmt.Errorf("failed to remove states above %d: %w", blockNumber, err)
	}
	return nil
}

// RemoveBlockStates deletes the states recorded at blockHash, restricted to
// kinds when any are given.
func (m *Manager) RemoveBlockStates(blockHash common.Hash, kinds ...subgraph.StateKind) error {
	query := `DELETE FROM states WHERE block_hash = ?`
	args := []any{blockHash.Hex()}
	if len(kinds) > 0 {
		query += ` AND kind IN (` + strings.TrimSuffix(strings.Repeat("?,", len(kinds)), ",") + `)`
		for _, k := range kinds {
			args = append(args, k)
		}
	}

	if _, err := m.q.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to remove states of block %s: %w", blockHash.Hex(), err)
	}
	return nil
}

// GetBranchInit returns the initial state of contract recorded at block or at
// one of its ancestors. Initial states of pruned blocks and of sibling
// branches are ignored.
func (m *Manager) GetBranchInit(contract common.Address, block *subgraph.BlockProgress) (*subgraph.State, error) {
	var inits []*subgraph.State
	err := meddler.QueryAll(m.q, &inits, `
		SELECT s.* FROM states s
		JOIN block_progress b ON b.block_hash = s.block_hash
		WHERE s.contract_address = ? AND s.kind = ? AND s.block_number <= ? AND b.is_pruned = 0
		ORDER BY s.block_number DESC, s.id DESC
	`, contract.Hex(), subgraph.StateKindInit, block.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to query initial states of %s: %w", contract.Hex(), err)
	}

	for _, s := range inits {
		ok, err := m.store.IsAncestorOrSelf(s.BlockHash, s.BlockNumber, block.BlockHash, block.BlockNumber)
		switch {
		case errors.Is(err, subgraph.ErrNotFound):
			// stored ancestry ends above the init, which is then canonical
			return s, nil
		case err != nil:
			return nil, err
		case ok:
			return s, nil
		}
	}
	return nil, fmt.Errorf("initial state of %s on the branch of %d: %w", contract.Hex(), block.BlockNumber, subgraph.ErrNotFound)
}

// GetStateSyncStatus returns the state sync status, or subgraph.ErrNotFound
// before any state was indexed.
func (m *Manager) GetStateSyncStatus() (*subgraph.StateSyncStatus, error) {
	var status subgraph.StateSyncStatus
	err := meddler.QueryRow(m.q, &status, `SELECT * FROM state_sync_status WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subgraph.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get state sync status: %w", err)
	}
	return &status, nil
}

func (m *Manager) updateStateSyncField(column string, number uint64, force bool) error {
	if _, err := m.q.Exec(`INSERT OR IGNORE INTO state_sync_status (id) VALUES (1)`); err != nil {
		return fmt.Errorf("failed to initialize state sync status: %w", err)
	}

	query := fmt.Sprintf(`UPDATE state_sync_status SET %[1]s = ? WHERE id = 1 AND (? OR %[1]s <= ?)`, column)
	if _, err := m.q.Exec(query, number, force, number); err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

// UpdateStateSyncStatusIndexedBlock records the latest block whose diffs were
// finalized. Lower numbers are ignored unless force is set.
func (m *Manager) UpdateStateSyncStatusIndexedBlock(number uint64, force bool) error {
	return m.updateStateSyncField("latest_indexed_block_number", number, force)
}

// UpdateStateSyncStatusCheckpointBlock records the latest checkpointed block.
// Lower numbers are ignored unless force is set.
func (m *Manager) UpdateStateSyncStatusCheckpointBlock(number uint64, force bool) error {
	return m.updateStateSyncField("latest_checkpoint_block_number", number, force)
}
