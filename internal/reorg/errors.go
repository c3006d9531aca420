package reorg

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// ReorgDetectedError describes a switch of the watched chain to another branch.
type ReorgDetectedError struct {
	FirstReorgBlock uint64
	Details         string
}

func (e *ReorgDetectedError) Error() string {
	return fmt.Sprintf("reorg detected at block %d: %s", e.FirstReorgBlock, e.Details)
}

// NewReorgError creates a new ReorgDetectedError.
func NewReorgError(firstReorgBlock uint64, details string) *ReorgDetectedError {
	return &ReorgDetectedError{
		FirstReorgBlock: firstReorgBlock,
		Details:         details,
	}
}

// AncestryError is returned when a new head cannot be linked to a stored
// block within the pruning depth, or its branch leaves the canonical chain.
type AncestryError struct {
	BlockNumber uint64
	BlockHash   common.Hash
	ParentHash  common.Hash
	Depth       uint64
	Reason      string
}

func (e *AncestryError) Error() string {
	return fmt.Sprintf("cannot resolve ancestry of block %d (%s) at depth %d, parent %s: %s",
		e.BlockNumber, e.BlockHash.Hex(), e.Depth, e.ParentHash.Hex(), e.Reason)
}

// Is reports whether target is subgraph.ErrConsistency.
func (e *AncestryError) Is(target error) bool {
	return target == subgraph.ErrConsistency
}
