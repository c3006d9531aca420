package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/db"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/russross/meddler"
)

// Store persists watched contracts, block progress, events and the sync status.
// A Store bound to a transaction with Tx shares the caller's commit.
type Store struct {
	db  *sql.DB
	q   db.Querier
	log *logger.Logger
}

// New creates a store over an open, migrated database.
func New(database *sql.DB, log *logger.Logger) *Store {
	return &Store{
		db:  database,
		q:   db.Instrument(database),
		log: log.WithComponent(internalcommon.ComponentStore),
	}
}

// Tx returns a store whose statements run inside tx.
func (s *Store) Tx(tx *sql.Tx) *Store {
	return &Store{db: s.db, q: db.Instrument(tx), log: s.log}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SaveContract inserts or replaces a watched contract.
func (s *Store) SaveContract(c *subgraph.Contract) error {
	ctxJSON, err := json.Marshal(c.Context)
	if err != nil {
		return fmt.Errorf("failed to encode context of contract %s: %w", c.Address.Hex(), err)
	}

	_, err = s.q.Exec(`
		INSERT INTO contracts (address, kind, checkpoint, starting_block, context)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(address, kind) DO UPDATE SET
			checkpoint = excluded.checkpoint,
			starting_block = excluded.starting_block,
			context = excluded.context
	`, c.Address.Hex(), c.Kind, c.Checkpoint, c.StartingBlock, string(ctxJSON))
	if err != nil {
		return fmt.Errorf("failed to save contract %s: %w", c.Address.Hex(), err)
	}
	return nil
}

// GetContracts returns every watched contract.
func (s *Store) GetContracts() ([]*subgraph.Contract, error) {
	var contracts []*subgraph.Contract
	if err := meddler.QueryAll(s.q, &contracts, `SELECT * FROM contracts ORDER BY starting_block ASC, address ASC`); err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	return contracts, nil
}

// DeleteContractsAbove removes contracts whose starting block is above number.
func (s *Store) DeleteContractsAbove(number uint64) error {
	if _, err := s.q.Exec(`DELETE FROM contracts WHERE starting_block > ?`, number); err != nil {
		return fmt.Errorf("failed to delete contracts above %d: %w", number, err)
	}
	return nil
}

// GetSyncStatus returns the sync status, or subgraph.ErrNotFound before the first block.
func (s *Store) GetSyncStatus() (*subgraph.SyncStatus, error) {
	var status subgraph.SyncStatus
	err := meddler.QueryRow(s.q, &status, `SELECT * FROM sync_status WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, subgraph.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}
	return &status, nil
}

type syncField struct {
	hashColumn   string
	numberColumn string
}

var (
	syncChainHead = syncField{"chain_head_block_hash", "chain_head_block_number"}
	syncIndexed   = syncField{"latest_indexed_block_hash", "latest_indexed_block_number"}
	syncProcessed = syncField{"latest_processed_block_hash", "latest_processed_block_number"}
	syncCanonical = syncField{"latest_canonical_block_hash", "latest_canonical_block_number"}
)

func (s *Store) ensureSyncStatus() error {
	if _, err := s.q.Exec(`INSERT OR IGNORE INTO sync_status (id) VALUES (1)`); err != nil {
		return fmt.Errorf("failed to initialize sync status: %w", err)
	}
	return nil
}

// updateSyncField moves one pointer of the sync status forward. Lower numbers
// are ignored unless force is set. It reports whether a row was changed.
func (s *Store) updateSyncField(f syncField, hash common.Hash, number uint64, force bool) (bool, error) {
	if err := s.ensureSyncStatus(); err != nil {
		return false, err
	}

	query := fmt.Sprintf(`
		UPDATE sync_status SET %[1]s = ?, %[2]s = ?, updated_at = datetime('now')
		WHERE id = 1 AND (? OR %[2]s <= ?)
	`, f.hashColumn, f.numberColumn)

	res, err := s.q.Exec(query, hash.Hex(), number, force, number)
	if err != nil {
		return false, fmt.Errorf("failed to update %s: %w", f.numberColumn, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateSyncStatusChainHead records the latest head seen on the node.
func (s *Store) UpdateSyncStatusChainHead(hash common.Hash, number uint64, force bool) error {
	_, err := s.updateSyncField(syncChainHead, hash, number, force)
	return err
}

// UpdateSyncStatusIndexedBlock records the latest block whose events are stored.
// The first indexed block is also kept as the initial indexed block.
func (s *Store) UpdateSyncStatusIndexedBlock(hash common.Hash, number uint64, force bool) error {
	if _, err := s.updateSyncField(syncIndexed, hash, number, force); err != nil {
		return err
	}

	_, err := s.q.Exec(`
		UPDATE sync_status SET initial_indexed_block_hash = ?, initial_indexed_block_number = ?
		WHERE id = 1 AND initial_indexed_block_hash = ''
	`, hash.Hex(), number)
	if err != nil {
		return fmt.Errorf("failed to update initial indexed block: %w", err)
	}
	return nil
}

// UpdateSyncStatusProcessedBlock records the latest fully processed block.
func (s *Store) UpdateSyncStatusProcessedBlock(hash common.Hash, number uint64, force bool) error {
	_, err := s.updateSyncField(syncProcessed, hash, number, force)
	return err
}

// UpdateSyncStatusCanonicalBlock records the latest canonical block.
// It reports whether the pointer moved.
func (s *Store) UpdateSyncStatusCanonicalBlock(hash common.Hash, number uint64, force bool) (bool, error) {
	return s.updateSyncField(syncCanonical, hash, number, force)
}

// UpdateSyncStatusIndexingError sets or clears the indexing error flag.
func (s *Store) UpdateSyncStatusIndexingError(hasError bool) error {
	if err := s.ensureSyncStatus(); err != nil {
		return err
	}
	if _, err := s.q.Exec(`UPDATE sync_status SET has_indexing_error = ? WHERE id = 1`, hasError); err != nil {
		return fmt.Errorf("failed to update indexing error flag: %w", err)
	}
	return nil
}

// ResetSyncStatus force-moves every pointer that is above number back to block.
func (s *Store) ResetSyncStatus(block *subgraph.BlockProgress) error {
	status, err := s.GetSyncStatus()
	if errors.Is(err, subgraph.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, f := range []struct {
		field   syncField
		current uint64
	}{
		{syncIndexed, status.LatestIndexedBlockNumber},
		{syncProcessed, status.LatestProcessedBlockNumber},
		{syncCanonical, status.LatestCanonicalBlockNumber},
	} {
		if f.current <= block.BlockNumber {
			continue
		}
		if _, err := s.updateSyncField(f.field, block.BlockHash, block.BlockNumber, true); err != nil {
			return err
		}
	}

	return s.UpdateSyncStatusIndexingError(false)
}

// WithTx runs fn with a store bound to a new transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx, st *Store) error) error {
	return db.WithTx(ctx, s.db, s.log, func(tx *sql.Tx) error {
		return fn(tx, s.Tx(tx))
	})
}
