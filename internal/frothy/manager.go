package frothy

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/catalog"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/db"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/state"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// Manager versions derived entities per block and resolves reads against a
// branch. Blocks above the canonical height are frothy: several branches may
// coexist there until canonicalization prunes the losers.
type Manager struct {
	q         db.Querier
	store     *store.Store
	catalog   *catalog.Catalog
	cache     *entityCache
	canonical *atomic.Uint64
	log       *logger.Logger
}

// New creates a manager. The canonical height is loaded from the sync status.
func New(st *store.Store, cat *catalog.Catalog, log *logger.Logger) (*Manager, error) {
	m := &Manager{
		q:         db.Instrument(st.DB()),
		store:     st,
		catalog:   cat,
		cache:     newEntityCache(),
		canonical: &atomic.Uint64{},
		log:       log.WithComponent(internalcommon.ComponentFrothy),
	}

	status, err := st.GetSyncStatus()
	switch {
	case err == nil:
		m.canonical.Store(status.LatestCanonicalBlockNumber)
	case !isNotFound(err):
		return nil, err
	}

	return m, nil
}

// Tx returns a manager whose statements run inside tx. The cache and the
// canonical height are shared with m.
func (m *Manager) Tx(tx *sql.Tx) *Manager {
	cp := *m
	cp.q = db.Instrument(tx)
	cp.store = m.store.Tx(tx)
	return &cp
}

// Catalog returns the entity catalog used to normalize versions.
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// CanonicalHeight returns the height at and below which there is a single branch.
func (m *Manager) CanonicalHeight() uint64 {
	return m.canonical.Load()
}

// SetCanonicalHeight records a new canonical height. Lower heights are ignored
// unless force is set.
func (m *Manager) SetCanonicalHeight(number uint64, force bool) {
	for {
		current := m.canonical.Load()
		if !force && number <= current {
			return
		}
		if m.canonical.CompareAndSwap(current, number) {
			return
		}
	}
}

// UpdateEntityCacheFrothyBlocks registers a block about to be processed so
// ancestor walks can cross it without the database.
func (m *Manager) UpdateEntityCacheFrothyBlocks(block *subgraph.BlockProgress) {
	if block.BlockNumber <= m.CanonicalHeight() {
		return
	}
	m.cache.register(block.BlockHash, block.ParentHash, block.BlockNumber)
}

// CacheCommittedBlock loads the versions a committed block wrote into the cache.
// Call it after the transaction holding CommitBlock has committed.
func (m *Manager) CacheCommittedBlock(block *subgraph.BlockProgress, mutations []state.Mutation) {
	if block.BlockNumber <= m.CanonicalHeight() {
		return
	}

	versions := make(map[cacheKey]subgraph.Entity, len(mutations))
	for _, mut := range mutations {
		var entity subgraph.Entity
		if !mut.Removed() {
			normalized, err := m.catalog.Normalize(mut.Type, mut.Entity)
			if err != nil {
				m.log.Warnw("not caching block", "block", block.BlockNumber, "error", err)
				return
			}
			entity = normalized
		}
		versions[cacheKey{mut.Type, mut.ID}] = entity
	}
	m.cache.commit(block.BlockHash, block.ParentHash, block.BlockNumber, versions)
}

// PruneEntityCacheFrothyBlocks drops cached blocks that are no longer frothy.
func (m *Manager) PruneEntityCacheFrothyBlocks(canonicalNumber uint64) {
	if n := m.cache.pruneAtOrBelow(canonicalNumber); n > 0 {
		m.log.Debugw("pruned entity cache", "canonical", canonicalNumber, "blocks", n)
	}
}

// ClearEntitiesCache empties the entity cache.
func (m *Manager) ClearEntitiesCache() {
	m.cache.clear()
	m.log.Debug("cleared entity cache")
}

// CommitBlock writes the versions staged for block. Removals are stored as
// tombstone versions so reads at later heights see the entity as absent.
func (m *Manager) CommitBlock(block *subgraph.BlockProgress, mutations []state.Mutation) error {
	for _, mut := range mutations {
		data := []byte(`{}`)
		if !mut.Removed() {
			normalized, err := m.catalog.Normalize(mut.Type, mut.Entity)
			if err != nil {
				return fmt.Errorf("block %d: %w", block.BlockNumber, err)
			}
			if data, err = json.Marshal(normalized); err != nil {
				return fmt.Errorf("failed to encode %s %s: %w", mut.Type, mut.ID, err)
			}
		}

		if err := m.writeVersion(block, mut.Type, mut.ID, string(data), mut.Removed()); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) writeVersion(block *subgraph.BlockProgress, entityType, id, data string, removed bool) error {
	hash := block.BlockHash.Hex()

	_, err := m.q.Exec(`
		INSERT OR REPLACE INTO entities (entity_type, id, block_hash, block_number, data, is_pruned, is_removed)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`, entityType, id, hash, block.BlockNumber, data, removed)
	if err != nil {
		return fmt.Errorf("failed to save %s %s at block %d: %w", entityType, id, block.BlockNumber, err)
	}

	if block.BlockNumber > m.CanonicalHeight() {
		_, err = m.q.Exec(`
			INSERT OR IGNORE INTO frothy_entities (entity_type, id, block_hash, block_number)
			VALUES (?, ?, ?, ?)
		`, entityType, id, hash, block.BlockNumber)
		if err != nil {
			return fmt.Errorf("failed to track frothy %s %s: %w", entityType, id, err)
		}
	}

	_, err = m.q.Exec(`
		INSERT INTO latest_entities (entity_type, id, block_hash, block_number, data, is_removed)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_type, id) DO UPDATE SET
			block_hash = excluded.block_hash,
			block_number = excluded.block_number,
			data = excluded.data,
			is_removed = excluded.is_removed
		WHERE excluded.block_number >= latest_entities.block_number
	`, entityType, id, hash, block.BlockNumber, data, removed)
	if err != nil {
		return fmt.Errorf("failed to update latest %s %s: %w", entityType, id, err)
	}
	return nil
}

// MarkBlocksAsPruned flags orphaned blocks and every version they wrote.
// Latest versions that pointed at a pruned block fall back to the best
// remaining version.
func (m *Manager) MarkBlocksAsPruned(hashes []common.Hash) error {
	if len(hashes) == 0 {
		return nil
	}

	if err := m.store.MarkBlocksAsPruned(hashes); err != nil {
		return err
	}

	placeholders, args := hashList(hashes)
	if _, err := m.q.Exec(`UPDATE entities SET is_pruned = 1 WHERE block_hash IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to prune entity versions: %w", err)
	}

	if _, err := m.q.Exec(`DELETE FROM frothy_entities WHERE block_hash IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to prune frothy entities: %w", err)
	}

	keys, err := m.queryKeys(`SELECT entity_type, id FROM latest_entities WHERE block_hash IN (`+placeholders+`)`, args...)
	if err != nil {
		return err
	}
	if err := m.recomputeLatest(keys, nil); err != nil {
		return err
	}

	for _, h := range hashes {
		m.cache.remove(h)
	}
	prunedBlocks.Add(float64(len(hashes)))
	m.log.Debugw("pruned blocks", "count", len(hashes), "latest_recomputed", len(keys))

	return nil
}

// PruneFrothyEntities forgets frothy bookkeeping at or below the canonical height.
func (m *Manager) PruneFrothyEntities(canonicalNumber uint64) error {
	if _, err := m.q.Exec(`DELETE FROM frothy_entities WHERE block_number <= ?`, canonicalNumber); err != nil {
		return fmt.Errorf("failed to prune frothy entities at or below %d: %w", canonicalNumber, err)
	}
	return nil
}

// ResetLatestEntities recomputes latest versions that point above number from
// the versions at or below it.
func (m *Manager) ResetLatestEntities(number uint64) error {
	keys, err := m.queryKeys(`SELECT entity_type, id FROM latest_entities WHERE block_number > ?`, number)
	if err != nil {
		return err
	}
	return m.recomputeLatest(keys, &number)
}

// DeleteAbove removes every version above number and resets latest versions.
func (m *Manager) DeleteAbove(number uint64) error {
	for _, table := range []string{"frothy_entities", "entities"} {
		if _, err := m.q.Exec(`DELETE FROM `+table+` WHERE block_number > ?`, number); err != nil {
			return fmt.Errorf("failed to delete %s above %d: %w", table, number, err)
		}
	}
	if err := m.ResetLatestEntities(number); err != nil {
		return err
	}

	m.cache.clear()
	return nil
}

// ClearBlock removes the versions a block wrote, so it can be processed again.
func (m *Manager) ClearBlock(hash common.Hash) error {
	keys, err := m.queryKeys(`SELECT entity_type, id FROM entities WHERE block_hash = ?`, hash.Hex())
	if err != nil {
		return err
	}

	for _, table := range []string{"frothy_entities", "entities"} {
		if _, err := m.q.Exec(`DELETE FROM `+table+` WHERE block_hash = ?`, hash.Hex()); err != nil {
			return fmt.Errorf("failed to clear %s of block %s: %w", table, hash.Hex(), err)
		}
	}

	if err := m.recomputeLatest(keys, nil); err != nil {
		return err
	}

	m.cache.remove(hash)
	return nil
}

func (m *Manager) queryKeys(query string, args ...any) ([]cacheKey, error) {
	rows, err := m.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity keys: %w", err)
	}
	defer rows.Close()

	var keys []cacheKey
	for rows.Next() {
		var k cacheKey
		if err := rows.Scan(&k.entityType, &k.id); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

type version struct {
	hash    string
	number  uint64
	data    string
	removed bool
}

// recomputeLatest points each latest version at the highest non-pruned
// version, optionally bounded by maxNumber, or deletes it when none remains.
// Versions tied on height are resolved towards the latest processed branch.
func (m *Manager) recomputeLatest(keys []cacheKey, maxNumber *uint64) error {
	if len(keys) == 0 {
		return nil
	}

	bound := int64(-1)
	if maxNumber != nil {
		bound = int64(*maxNumber)
	}

	tip, err := m.processedBranch()
	if err != nil {
		return err
	}

	for _, k := range keys {
		candidates, err := m.topVersions(k, bound)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			if _, err := m.q.Exec(`DELETE FROM latest_entities WHERE entity_type = ? AND id = ?`, k.entityType, k.id); err != nil {
				return fmt.Errorf("failed to delete latest %s %s: %w", k.entityType, k.id, err)
			}
			continue
		}

		v := candidates[0]
		if onTip, ok := tip[v.number]; ok && len(candidates) > 1 {
			for _, c := range candidates {
				if common.HexToHash(c.hash) == onTip {
					v = c
					break
				}
			}
		}

		_, err = m.q.Exec(`
			UPDATE latest_entities SET block_hash = ?, block_number = ?, data = ?, is_removed = ?
			WHERE entity_type = ? AND id = ?
		`, v.hash, v.number, v.data, v.removed, k.entityType, k.id)
		if err != nil {
			return fmt.Errorf("failed to reset latest %s %s: %w", k.entityType, k.id, err)
		}
	}
	return nil
}

// topVersions returns the non-pruned versions of k at its highest height.
func (m *Manager) topVersions(k cacheKey, bound int64) ([]version, error) {
	rows, err := m.q.Query(`
		SELECT block_hash, block_number, data, is_removed FROM entities
		WHERE entity_type = ? AND id = ? AND is_pruned = 0 AND (? < 0 OR block_number <= ?)
		ORDER BY block_number DESC, block_hash ASC
	`, k.entityType, k.id, bound, bound)
	if err != nil {
		return nil, fmt.Errorf("failed to find latest version of %s %s: %w", k.entityType, k.id, err)
	}
	defer rows.Close()

	var versions []version
	for rows.Next() {
		var v version
		if err := rows.Scan(&v.hash, &v.number, &v.data, &v.removed); err != nil {
			return nil, err
		}
		if len(versions) > 0 && v.number != versions[0].number {
			break
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// processedBranch maps heights above the canonical one to the blocks on the
// branch of the latest processed block.
func (m *Manager) processedBranch() (map[uint64]common.Hash, error) {
	status, err := m.store.GetSyncStatus()
	if isNotFound(err) || (err == nil && status.LatestProcessedBlockHash == (common.Hash{})) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.store.GetBranch(status.LatestProcessedBlockHash, m.CanonicalHeight())
}

func hashList(hashes []common.Hash) (string, []any) {
	placeholders := make([]byte, 0, len(hashes)*2)
	args := make([]any, len(hashes))
	for i, h := range hashes {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = h.Hex()
	}
	return string(placeholders), args
}
