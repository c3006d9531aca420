package frothy

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/puzpuzpuz/xsync/v4"
)

type cacheKey struct {
	entityType string
	id         string
}

// cachedBlock is a frothy block held in memory. Links are valid as soon as the
// block is registered; entities only once the block is committed.
type cachedBlock struct {
	number    uint64
	parent    common.Hash
	mu        sync.RWMutex
	committed bool
	entities  map[cacheKey]subgraph.Entity
}

func (b *cachedBlock) lookup(entityType, id string) (subgraph.Entity, bool, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.committed {
		return nil, false, false
	}
	e, found := b.entities[cacheKey{entityType, id}]
	return e, found, true
}

// entityCache keeps the frothy window of blocks keyed by hash.
type entityCache struct {
	blocks *xsync.Map[common.Hash, *cachedBlock]
}

func newEntityCache() *entityCache {
	return &entityCache{blocks: xsync.NewMap[common.Hash, *cachedBlock]()}
}

func (c *entityCache) register(hash, parent common.Hash, number uint64) *cachedBlock {
	b, loaded := c.blocks.LoadOrStore(hash, &cachedBlock{
		number:   number,
		parent:   parent,
		entities: make(map[cacheKey]subgraph.Entity),
	})
	if !loaded {
		cacheBlocks.Set(float64(c.blocks.Size()))
	}
	return b
}

func (c *entityCache) get(hash common.Hash) (*cachedBlock, bool) {
	return c.blocks.Load(hash)
}

func (c *entityCache) commit(hash, parent common.Hash, number uint64, versions map[cacheKey]subgraph.Entity) {
	b := c.register(hash, parent, number)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entities = versions
	b.committed = true
}

func (c *entityCache) remove(hash common.Hash) {
	c.blocks.Delete(hash)
	cacheBlocks.Set(float64(c.blocks.Size()))
}

// pruneAtOrBelow drops every cached block at or below number.
func (c *entityCache) pruneAtOrBelow(number uint64) int {
	var stale []common.Hash
	c.blocks.Range(func(hash common.Hash, b *cachedBlock) bool {
		if b.number <= number {
			stale = append(stale, hash)
		}
		return true
	})
	for _, hash := range stale {
		c.blocks.Delete(hash)
	}
	cacheBlocks.Set(float64(c.blocks.Size()))
	return len(stale)
}

func (c *entityCache) clear() {
	c.blocks.Clear()
	cacheBlocks.Set(0)
	cacheClears.Inc()
}
