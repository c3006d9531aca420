package frothy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/catalog"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

func isNotFound(err error) bool {
	return errors.Is(err, subgraph.ErrNotFound)
}

// ResolveHeight returns the complete block a read at height runs against, or
// nil for the latest state. A number above the canonical height resolves on
// the branch of the latest processed block.
func (m *Manager) ResolveHeight(height subgraph.BlockHeight) (*subgraph.BlockProgress, error) {
	switch {
	case height.Hash != nil:
		return m.resolveHash(*height.Hash)
	case height.Number != nil:
		return m.resolveNumber(*height.Number)
	default:
		return nil, nil
	}
}

func (m *Manager) resolveHash(hash common.Hash) (*subgraph.BlockProgress, error) {
	block, err := m.store.GetBlockProgress(hash)
	if isNotFound(err) {
		return nil, fmt.Errorf("block %s: %w", hash.Hex(), subgraph.ErrBlockNotProcessed)
	}
	if err != nil {
		return nil, err
	}
	if block.IsPruned {
		return nil, fmt.Errorf("block %s: %w", hash.Hex(), subgraph.ErrBlockPruned)
	}
	if !block.IsComplete {
		return nil, fmt.Errorf("block %s: %w", hash.Hex(), subgraph.ErrBlockNotProcessed)
	}
	return block, nil
}

func (m *Manager) resolveNumber(number uint64) (*subgraph.BlockProgress, error) {
	if number <= m.CanonicalHeight() {
		return m.store.GetLatestBlockAtOrBelow(number)
	}

	status, err := m.store.GetSyncStatus()
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if status == nil || status.LatestProcessedBlockHash == (common.Hash{}) || number > status.LatestProcessedBlockNumber {
		return nil, fmt.Errorf("block %d: %w", number, subgraph.ErrBlockNotProcessed)
	}

	block, err := m.resolveHash(status.LatestProcessedBlockHash)
	if err != nil {
		return nil, err
	}
	for block.BlockNumber > number {
		parent, err := m.store.GetBlockProgress(block.ParentHash)
		if isNotFound(err) {
			// sparse history below the frothy window
			return m.store.GetLatestBlockAtOrBelow(number)
		}
		if err != nil {
			return nil, err
		}
		block = parent
	}
	if !block.IsComplete || block.IsPruned {
		return nil, fmt.Errorf("block %d: %w", number, subgraph.ErrBlockNotProcessed)
	}
	return block, nil
}

// branch describes which versions are visible from a block.
type branch struct {
	// path holds the frothy ancestors from the block itself downwards
	path []common.Hash
	// members is path as a set of hex hashes
	members map[string]struct{}
	// bound is the height at or below which every non-pruned version is visible
	bound    uint64
	hasBound bool
	// gap is set when the walk hit a missing ancestor above the canonical height
	gap    error
	lowest uint64
}

func (b *branch) visible(hash string, number uint64) (bool, error) {
	if _, ok := b.members[hash]; ok {
		return true, nil
	}
	if b.hasBound && number <= b.bound {
		return true, nil
	}
	if b.gap != nil && number < b.lowest {
		return false, b.gap
	}
	return false, nil
}

type blockLink struct {
	number uint64
	parent common.Hash
}

func (m *Manager) link(hash common.Hash) (blockLink, error) {
	if cached, ok := m.cache.get(hash); ok {
		return blockLink{number: cached.number, parent: cached.parent}, nil
	}
	block, err := m.store.GetBlockProgress(hash)
	if err != nil {
		return blockLink{}, err
	}
	return blockLink{number: block.BlockNumber, parent: block.ParentHash}, nil
}

// branchOf walks the ancestors of block down to the canonical height. A
// missing ancestor above the canonical height is only an error for reads that
// need versions below it.
func (m *Manager) branchOf(block *subgraph.BlockProgress) (*branch, error) {
	canonical := m.CanonicalHeight()
	b := &branch{members: make(map[string]struct{})}

	hash, cur := block.BlockHash, blockLink{number: block.BlockNumber, parent: block.ParentHash}
	for cur.number > canonical {
		b.path = append(b.path, hash)
		b.members[hash.Hex()] = struct{}{}
		b.lowest = cur.number

		parent, err := m.link(cur.parent)
		if isNotFound(err) {
			if cur.number-1 <= canonical {
				b.bound, b.hasBound = cur.number-1, true
				return b, nil
			}
			b.gap = subgraph.Consistency("missing ancestor %s of block %d above canonical height %d",
				cur.parent.Hex(), cur.number, canonical)
			return b, nil
		}
		if err != nil {
			return nil, err
		}
		if parent.number+1 != cur.number {
			return nil, subgraph.Consistency("block %s at %d has parent at %d", hash.Hex(), cur.number, parent.number)
		}
		hash, cur = cur.parent, parent
	}

	b.bound, b.hasBound = cur.number, true
	return b, nil
}

// GetEntity returns entityType id as of height. Removed and never written
// entities yield subgraph.ErrNotFound.
func (m *Manager) GetEntity(entityType, id string, height subgraph.BlockHeight) (subgraph.Entity, error) {
	if !m.catalog.Has(entityType) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownEntityType, entityType)
	}

	block, err := m.ResolveHeight(height)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s %s at %s: %w", entityType, id, height, subgraph.ErrNotFound)
		}
		return nil, err
	}
	if block == nil {
		return m.latestEntity(entityType, id)
	}
	return m.EntityAt(entityType, id, block)
}

// EntityAt returns entityType id as seen from block without checking that
// block is complete. The pipeline reads through it while block is processed.
func (m *Manager) EntityAt(entityType, id string, block *subgraph.BlockProgress) (subgraph.Entity, error) {
	br, err := m.branchOf(block)
	if err != nil {
		return nil, err
	}

	if entity, found, served := m.cachedVersion(br, entityType, id); served {
		cacheHit()
		if !found || entity == nil {
			return nil, fmt.Errorf("%s %s at block %d: %w", entityType, id, block.BlockNumber, subgraph.ErrNotFound)
		}
		return entity.Clone(), nil
	}
	cacheMiss()

	versions, err := m.queryVersions(`
		SELECT entity_type, id, block_hash, block_number, data, is_pruned, is_removed FROM entities
		WHERE entity_type = ? AND id = ? AND block_number <= ? AND is_pruned = 0
		ORDER BY block_number DESC, block_hash ASC
	`, entityType, id, block.BlockNumber)
	if err != nil {
		return nil, err
	}

	for _, v := range versions {
		visible, err := br.visible(v.BlockHash.Hex(), v.BlockNumber)
		if err != nil {
			return nil, err
		}
		if !visible {
			continue
		}
		if v.IsRemoved {
			break
		}
		return v.Data, nil
	}
	return nil, fmt.Errorf("%s %s at block %d: %w", entityType, id, block.BlockNumber, subgraph.ErrNotFound)
}

// cachedVersion looks the entity up along the cached prefix of the branch path.
// served is false when the cache cannot answer on its own.
func (m *Manager) cachedVersion(br *branch, entityType, id string) (entity subgraph.Entity, found, served bool) {
	for i, hash := range br.path {
		cached, ok := m.cache.get(hash)
		if !ok {
			return nil, false, false
		}
		e, hit, committed := cached.lookup(entityType, id)
		if !committed {
			// the block being processed has nothing committed yet
			if i == 0 {
				continue
			}
			return nil, false, false
		}
		if hit {
			return e, true, true
		}
	}
	return nil, false, false
}

func (m *Manager) latestEntity(entityType, id string) (subgraph.Entity, error) {
	versions, err := m.queryVersions(`
		SELECT entity_type, id, block_hash, block_number, data, 0, is_removed FROM latest_entities
		WHERE entity_type = ? AND id = ?
	`, entityType, id)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 || versions[0].IsRemoved {
		return nil, fmt.Errorf("%s %s: %w", entityType, id, subgraph.ErrNotFound)
	}
	return versions[0].Data, nil
}

// GetEntities lists entities of entityType visible at height, filtered by
// where and ordered and paginated by opts.
func (m *Manager) GetEntities(
	entityType string,
	height subgraph.BlockHeight,
	where subgraph.Where,
	opts subgraph.QueryOptions,
) ([]subgraph.Entity, error) {
	if !m.catalog.Has(entityType) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownEntityType, entityType)
	}

	block, err := m.ResolveHeight(height)
	if err != nil {
		if isNotFound(err) {
			return []subgraph.Entity{}, nil
		}
		return nil, err
	}

	var entities []subgraph.Entity
	if block == nil {
		versions, err := m.queryVersions(`
			SELECT entity_type, id, block_hash, block_number, data, 0, is_removed FROM latest_entities
			WHERE entity_type = ? AND is_removed = 0
		`, entityType)
		if err != nil {
			return nil, err
		}
		for _, v := range versions {
			entities = append(entities, v.Data)
		}
	} else {
		if entities, err = m.entitiesAt(entityType, block); err != nil {
			return nil, err
		}
	}

	return m.query(entityType, entities, where, opts)
}

func (m *Manager) entitiesAt(entityType string, block *subgraph.BlockProgress) ([]subgraph.Entity, error) {
	br, err := m.branchOf(block)
	if err != nil {
		return nil, err
	}

	versions, err := m.queryVersions(`
		SELECT entity_type, id, block_hash, block_number, data, is_pruned, is_removed FROM entities
		WHERE entity_type = ? AND block_number <= ? AND is_pruned = 0
		ORDER BY id ASC, block_number DESC, block_hash ASC
	`, entityType, block.BlockNumber)
	if err != nil {
		return nil, err
	}

	var (
		entities []subgraph.Entity
		resolved string
		done     bool
	)
	for _, v := range versions {
		if v.ID != resolved {
			resolved, done = v.ID, false
		}
		if done {
			continue
		}
		visible, err := br.visible(v.BlockHash.Hex(), v.BlockNumber)
		if err != nil {
			return nil, err
		}
		if !visible {
			continue
		}
		done = true
		if !v.IsRemoved {
			entities = append(entities, v.Data)
		}
	}
	return entities, nil
}

func (m *Manager) queryVersions(query string, args ...any) ([]*subgraph.EntityVersion, error) {
	rows, err := m.q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entity versions: %w", err)
	}
	defer rows.Close()

	var versions []*subgraph.EntityVersion
	for rows.Next() {
		var (
			v    subgraph.EntityVersion
			hash string
			data string
		)
		if err := rows.Scan(&v.Type, &v.ID, &hash, &v.BlockNumber, &data, &v.IsPruned, &v.IsRemoved); err != nil {
			return nil, fmt.Errorf("failed to scan entity version: %w", err)
		}
		v.BlockHash = common.HexToHash(hash)

		if !v.IsRemoved {
			if v.Data, err = m.decode(v.Type, data); err != nil {
				return nil, err
			}
		}
		versions = append(versions, &v)
	}
	return versions, rows.Err()
}

func (m *Manager) decode(entityType, data string) (subgraph.Entity, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()

	var raw subgraph.Entity
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", entityType, err)
	}
	return m.catalog.Normalize(entityType, raw)
}
