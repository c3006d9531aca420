package testutil

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// BlockHash returns a deterministic hash for a block on a named branch.
func BlockHash(branch string, number uint64) common.Hash {
	return crypto.Keccak256Hash([]byte(fmt.Sprintf("%s/%d", branch, number)))
}

// Chain builds linked BlockProgress values for tests.
type Chain struct {
	Blocks []*subgraph.BlockProgress
}

// NewChain returns blocks from..to on branch, the first one with parent.
func NewChain(branch string, from, to uint64, parent common.Hash) *Chain {
	c := &Chain{}
	for n := from; n <= to; n++ {
		b := &subgraph.BlockProgress{
			BlockHash:      BlockHash(branch, n),
			BlockNumber:    n,
			ParentHash:     parent,
			BlockTimestamp: 1_600_000_000 + n*12,
		}
		c.Blocks = append(c.Blocks, b)
		parent = b.BlockHash
	}
	return c
}

// Fork returns blocks from..to on a new branch whose first block builds on the
// block of c at from-1.
func (c *Chain) Fork(branch string, from, to uint64) *Chain {
	return NewChain(branch, from, to, c.At(from-1).BlockHash)
}

// At returns the block at number.
func (c *Chain) At(number uint64) *subgraph.BlockProgress {
	for _, b := range c.Blocks {
		if b.BlockNumber == number {
			return b
		}
	}
	panic(fmt.Sprintf("block %d not in chain", number))
}

// Tip returns the last block.
func (c *Chain) Tip() *subgraph.BlockProgress {
	return c.Blocks[len(c.Blocks)-1]
}

// HeaderChain returns linked headers from..to whose hashes are real header
// hashes. branch goes into the extra data so forks get distinct hashes.
func HeaderChain(branch string, from, to uint64, parent common.Hash) []*types.Header {
	headers := make([]*types.Header, 0, to-from+1)
	for n := from; n <= to; n++ {
		h := &types.Header{
			Number:     new(big.Int).SetUint64(n),
			ParentHash: parent,
			Time:       1_600_000_000 + n*12,
			Difficulty: big.NewInt(1),
			GasLimit:   30_000_000,
			Extra:      []byte(branch),
		}
		headers = append(headers, h)
		parent = h.Hash()
	}
	return headers
}
