package reorg

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/db"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/metrics"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/rpc"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// Resolution is the part of the chain below a head that is not stored yet.
type Resolution struct {
	// Headers are the unseen blocks, oldest first, ending with the head.
	Headers []*types.Header

	// Ancestor is the stored block the headers build on. It is nil when the
	// walk stopped at the floor.
	Ancestor *subgraph.BlockProgress

	// Switch is set when the headers do not extend the latest indexed block.
	Switch *ReorgDetectedError
}

// Resolver links newly seen heads to stored blocks by walking parent hashes.
// The walk never goes deeper than the pruning depth below the latest indexed
// block and never below the canonical height.
type Resolver struct {
	rpc         rpc.HeaderReader
	store       *store.Store
	depth       uint64
	maintenance db.Maintenance
	log         *logger.Logger
}

// NewResolver creates a Resolver bounded by pruningDepth.
func NewResolver(
	rpcClient rpc.HeaderReader,
	st *store.Store,
	pruningDepth uint64,
	maintenance db.Maintenance,
	log *logger.Logger,
) *Resolver {
	metrics.ComponentHealthSet(internalcommon.ComponentReorgDetector, true)

	return &Resolver{
		rpc:         rpcClient,
		store:       st,
		depth:       pruningDepth,
		maintenance: maintenance,
		log:         log.WithComponent(internalcommon.ComponentReorgDetector),
	}
}

// Resolve returns the unseen blocks of head's branch. Blocks below floor are
// never returned, which bounds the walk on a fresh database.
func (r *Resolver) Resolve(ctx context.Context, head *types.Header, floor uint64) (*Resolution, error) {
	unlock := r.maintenance.AcquireOperationLock()
	defer unlock()

	status, err := r.store.GetSyncStatus()
	switch {
	case errors.Is(err, subgraph.ErrNotFound):
		status = &subgraph.SyncStatus{}
	case err != nil:
		return nil, err
	}
	indexed := status.LatestIndexedBlockHash != (common.Hash{})

	res := &Resolution{}
	for h := head; h.Number.Uint64() >= floor; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		number := h.Number.Uint64()
		stored, err := r.store.GetBlockProgress(h.Hash())
		if err == nil {
			res.Ancestor = stored
			break
		}
		if !errors.Is(err, subgraph.ErrNotFound) {
			return nil, err
		}

		walked := uint64(len(res.Headers))
		if status.LatestCanonicalBlockNumber > 0 && number <= status.LatestCanonicalBlockNumber {
			return nil, r.ancestryError(h, walked, fmt.Sprintf("branch leaves the canonical chain at height %d",
				status.LatestCanonicalBlockNumber))
		}
		if indexed && number+r.depth < status.LatestIndexedBlockNumber {
			return nil, r.ancestryError(h, walked, fmt.Sprintf("no stored ancestor within pruning depth %d", r.depth))
		}

		res.Headers = append(res.Headers, h)
		if number == 0 || number == floor {
			break
		}

		parent, err := r.rpc.GetBlockHeaderByHash(ctx, h.ParentHash)
		if err != nil {
			return nil, fmt.Errorf("failed to get parent %s of block %d: %w", h.ParentHash.Hex(), number, err)
		}
		if parent.Number.Uint64()+1 != number {
			return nil, r.ancestryError(h, walked, fmt.Sprintf("parent is at height %d", parent.Number.Uint64()))
		}
		h = parent
	}
	slices.Reverse(res.Headers)
	AncestryWalkLog(len(res.Headers))

	if indexed && len(res.Headers) > 0 && res.Ancestor != nil &&
		res.Headers[0].ParentHash != status.LatestIndexedBlockHash {
		abandoned := status.LatestIndexedBlockNumber - min(status.LatestIndexedBlockNumber, res.Ancestor.BlockNumber)
		res.Switch = NewReorgError(res.Headers[0].Number.Uint64(), fmt.Sprintf(
			"branch of %s forks from %s at %d, abandoning %d indexed blocks",
			head.Hash().Hex(), res.Ancestor.BlockHash.Hex(), res.Ancestor.BlockNumber, abandoned))
		ReorgDetectedLog(abandoned)

		r.log.Warnw("branch switch detected",
			"head", head.Number.Uint64(),
			"fork_point", res.Ancestor.BlockNumber,
			"previous_tip", status.LatestIndexedBlockNumber,
			"abandoned", abandoned,
		)
	}

	return res, nil
}

func (r *Resolver) ancestryError(h *types.Header, depth uint64, reason string) error {
	metrics.ErrorsInc(internalcommon.ComponentReorgDetector, "error")
	return &AncestryError{
		BlockNumber: h.Number.Uint64(),
		BlockHash:   h.Hash(),
		ParentHash:  h.ParentHash,
		Depth:       depth,
		Reason:      reason,
	}
}

// Close marks the component as stopped.
func (r *Resolver) Close() {
	metrics.ComponentHealthSet(internalcommon.ComponentReorgDetector, false)
}
