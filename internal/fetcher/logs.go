package fetcher

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	irpc "github.com/goran-ethernal/SubgraphWatcher/internal/rpc"
)

// fetchLogs fetches logs of [from, to] and narrows the range while the node
// answers with a "too many results" error. It returns the logs together with
// the end of the range they cover, which always starts at from.
func (f *Fetcher) fetchLogs(
	ctx context.Context,
	from, to uint64,
	addresses []common.Address,
	topics [][]common.Hash,
) ([]types.Log, uint64, error) {
	logs, err := f.rpc.GetLogs(ctx, blockRange(from, to, addresses, topics))
	if err == nil {
		return logs, to, nil
	}

	ok, errData := irpc.IsTooManyResultsError(err)
	if !ok {
		return nil, 0, fmt.Errorf("failed to get logs for %d-%d: %w", from, to, err)
	}
	RangeSplitsInc()

	if suggestedFrom, suggestedTo, ok := irpc.ParseSuggestedBlockRange(errData); ok &&
		suggestedFrom == from && suggestedTo >= from && suggestedTo < to {
		f.log.Infof("too many logs, retrying with suggested block range %d-%d (original range %d-%d)",
			suggestedFrom, suggestedTo, from, to)
		return f.fetchLogs(ctx, from, suggestedTo, addresses, topics)
	}

	mid := from + (to-from)/2 //nolint:mnd
	if to == from {
		return nil, 0, fmt.Errorf("cannot split range further, single block %d has too many logs", from)
	}

	f.log.Infof("too many logs, retrying with block range %d-%d (original range %d-%d)", from, mid, from, to)
	return f.fetchLogs(ctx, from, mid, addresses, topics)
}
