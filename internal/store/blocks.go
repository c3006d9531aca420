package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/russross/meddler"
)

// SaveBlockProgress inserts a newly observed block. Existing rows are left untouched.
func (s *Store) SaveBlockProgress(block *subgraph.BlockProgress) error {
	_, err := s.q.Exec(`
		INSERT OR IGNORE INTO block_progress
			(block_hash, block_number, parent_hash, block_timestamp, num_events,
			 num_processed_events, last_processed_event_index, is_complete, is_pruned)
		VALUES (?, ?, ?, ?, ?, 0, -1, 0, 0)
	`, block.BlockHash.Hex(), block.BlockNumber, block.ParentHash.Hex(), block.BlockTimestamp, block.NumEvents)
	if err != nil {
		return fmt.Errorf("failed to save block %d (%s): %w", block.BlockNumber, block.BlockHash.Hex(), err)
	}
	return nil
}

// GetBlockProgress returns the progress of a block, or subgraph.ErrNotFound.
func (s *Store) GetBlockProgress(hash common.Hash) (*subgraph.BlockProgress, error) {
	var block subgraph.BlockProgress
	err := meddler.QueryRow(s.q, &block, `SELECT * FROM block_progress WHERE block_hash = ?`, hash.Hex())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("block %s: %w", hash.Hex(), subgraph.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block %s: %w", hash.Hex(), err)
	}
	return &block, nil
}

// GetBlocksAtHeight returns the blocks observed at height with the given pruned flag.
func (s *Store) GetBlocksAtHeight(height uint64, isPruned bool) ([]*subgraph.BlockProgress, error) {
	var blocks []*subgraph.BlockProgress
	err := meddler.QueryAll(s.q, &blocks, `
		SELECT * FROM block_progress
		WHERE block_number = ? AND is_pruned = ?
		ORDER BY block_hash ASC
	`, height, isPruned)
	if err != nil {
		return nil, fmt.Errorf("failed to get blocks at height %d: %w", height, err)
	}
	return blocks, nil
}

// GetBlockProgressEntities returns blocks with numbers in [from, to].
func (s *Store) GetBlockProgressEntities(from, to uint64) ([]*subgraph.BlockProgress, error) {
	var blocks []*subgraph.BlockProgress
	err := meddler.QueryAll(s.q, &blocks, `
		SELECT * FROM block_progress
		WHERE block_number >= ? AND block_number <= ?
		ORDER BY block_number ASC, block_hash ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get blocks in range %d-%d: %w", from, to, err)
	}
	return blocks, nil
}

// GetUnprunedBlocksInRange returns non-pruned blocks with numbers in [from, to].
func (s *Store) GetUnprunedBlocksInRange(from, to uint64) ([]*subgraph.BlockProgress, error) {
	var blocks []*subgraph.BlockProgress
	err := meddler.QueryAll(s.q, &blocks, `
		SELECT * FROM block_progress
		WHERE block_number >= ? AND block_number <= ? AND is_pruned = 0
		ORDER BY block_number ASC, block_hash ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get unpruned blocks in range %d-%d: %w", from, to, err)
	}
	return blocks, nil
}

// GetAncestorAtDepth walks depth parent links back from hash.
func (s *Store) GetAncestorAtDepth(hash common.Hash, depth uint64) (common.Hash, error) {
	var ancestor string
	err := s.q.QueryRow(`
		WITH RECURSIVE ancestors(block_hash, parent_hash, depth) AS (
			SELECT block_hash, parent_hash, 0 FROM block_progress WHERE block_hash = ?
			UNION ALL
			SELECT b.block_hash, b.parent_hash, a.depth + 1
			FROM block_progress b
			JOIN ancestors a ON b.block_hash = a.parent_hash
			WHERE a.depth < ?
		)
		SELECT block_hash FROM ancestors WHERE depth = ?
	`, hash.Hex(), depth, depth).Scan(&ancestor)
	if errors.Is(err, sql.ErrNoRows) {
		return common.Hash{}, fmt.Errorf("ancestor of %s at depth %d: %w", hash.Hex(), depth, subgraph.ErrNotFound)
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get ancestor of %s: %w", hash.Hex(), err)
	}
	return common.HexToHash(ancestor), nil
}

// IsAncestorOrSelf reports whether the block hash at number is tip or one of
// its ancestors. It returns subgraph.ErrNotFound when the stored ancestry of
// tip does not reach number.
func (s *Store) IsAncestorOrSelf(hash common.Hash, number uint64, tip common.Hash, tipNumber uint64) (bool, error) {
	if number > tipNumber {
		return false, nil
	}
	ancestor, err := s.GetAncestorAtDepth(tip, tipNumber-number)
	if err != nil {
		return false, err
	}
	return ancestor == hash, nil
}

// GetBranch maps block numbers to the hashes on the branch ending at tip,
// following stored parent links down to from.
func (s *Store) GetBranch(tip common.Hash, from uint64) (map[uint64]common.Hash, error) {
	rows, err := s.q.Query(`
		WITH RECURSIVE branch(block_hash, parent_hash, block_number) AS (
			SELECT block_hash, parent_hash, block_number FROM block_progress WHERE block_hash = ?
			UNION ALL
			SELECT b.block_hash, b.parent_hash, b.block_number
			FROM block_progress b
			JOIN branch c ON b.block_hash = c.parent_hash
			WHERE b.block_number >= ?
		)
		SELECT block_number, block_hash FROM branch
	`, tip.Hex(), from)
	if err != nil {
		return nil, fmt.Errorf("failed to get branch of %s: %w", tip.Hex(), err)
	}
	defer rows.Close()

	branch := make(map[uint64]common.Hash)
	for rows.Next() {
		var (
			number uint64
			hash   string
		)
		if err := rows.Scan(&number, &hash); err != nil {
			return nil, err
		}
		branch[number] = common.HexToHash(hash)
	}
	return branch, rows.Err()
}

// UpdateBlockProgress records how far event processing got for a block.
// A block is complete once every one of its events was processed.
func (s *Store) UpdateBlockProgress(hash common.Hash, lastProcessedEventIndex int64, numProcessedEvents int) error {
	_, err := s.q.Exec(`
		UPDATE block_progress SET
			last_processed_event_index = ?,
			num_processed_events = ?,
			is_complete = (? >= num_events)
		WHERE block_hash = ?
	`, lastProcessedEventIndex, numProcessedEvents, numProcessedEvents, hash.Hex())
	if err != nil {
		return fmt.Errorf("failed to update progress of block %s: %w", hash.Hex(), err)
	}
	return nil
}

// SetBlockNumEvents sets the number of events a block has to process.
func (s *Store) SetBlockNumEvents(hash common.Hash, numEvents int) error {
	if _, err := s.q.Exec(`UPDATE block_progress SET num_events = ? WHERE block_hash = ?`, numEvents, hash.Hex()); err != nil {
		return fmt.Errorf("failed to update event count of block %s: %w", hash.Hex(), err)
	}
	return nil
}

// ResetBlockProgress marks a block as not processed so it can be processed again.
func (s *Store) ResetBlockProgress(hash common.Hash) error {
	_, err := s.q.Exec(`
		UPDATE block_progress SET num_processed_events = 0, last_processed_event_index = -1, is_complete = 0
		WHERE block_hash = ?
	`, hash.Hex())
	if err != nil {
		return fmt.Errorf("failed to reset block %s: %w", hash.Hex(), err)
	}
	return nil
}

// MarkBlocksAsPruned flags blocks as belonging to an orphaned branch.
func (s *Store) MarkBlocksAsPruned(hashes []common.Hash) error {
	if len(hashes) == 0 {
		return nil
	}

	placeholders, args := hashArgs(hashes)
	_, err := s.q.Exec(`UPDATE block_progress SET is_pruned = 1 WHERE block_hash IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark %d blocks as pruned: %w", len(hashes), err)
	}
	return nil
}

// GetProcessedBlockCountForRange returns how many heights [from, to] spans and
// how many distinct heights in it have a complete, non-pruned block.
func (s *Store) GetProcessedBlockCountForRange(from, to uint64) (expected, actual int, err error) {
	if to < from {
		return 0, 0, fmt.Errorf("invalid block range %d-%d", from, to)
	}

	err = s.q.QueryRow(`
		SELECT COUNT(DISTINCT block_number) FROM block_progress
		WHERE block_number >= ? AND block_number <= ? AND is_complete = 1 AND is_pruned = 0
	`, from, to).Scan(&actual)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count processed blocks in range %d-%d: %w", from, to, err)
	}

	return int(to-from) + 1, actual, nil
}

// GetLatestBlockAtOrBelow returns the highest complete, non-pruned block at or below number.
func (s *Store) GetLatestBlockAtOrBelow(number uint64) (*subgraph.BlockProgress, error) {
	var block subgraph.BlockProgress
	err := meddler.QueryRow(s.q, &block, `
		SELECT * FROM block_progress
		WHERE block_number <= ? AND is_complete = 1 AND is_pruned = 0
		ORDER BY block_number DESC, block_hash ASC
		LIMIT 1
	`, number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no processed block at or below %d: %w", number, subgraph.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get block at or below %d: %w", number, err)
	}
	return &block, nil
}

// DeleteBlocksAbove removes blocks above number together with their events.
func (s *Store) DeleteBlocksAbove(number uint64) (int64, error) {
	if _, err := s.q.Exec(`DELETE FROM events WHERE block_number > ?`, number); err != nil {
		return 0, fmt.Errorf("failed to delete events above %d: %w", number, err)
	}

	res, err := s.q.Exec(`DELETE FROM block_progress WHERE block_number > ?`, number)
	if err != nil {
		return 0, fmt.Errorf("failed to delete blocks above %d: %w", number, err)
	}
	return res.RowsAffected()
}

func hashArgs(hashes []common.Hash) (string, []any) {
	args := make([]any, len(hashes))
	for i, h := range hashes {
		args[i] = h.Hex()
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(hashes)), ","), args
}
