package rpc

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// HeaderReader resolves block headers by number, hash or block tag.
type HeaderReader interface {
	GetBlockHeader(ctx context.Context, blockNum uint64) (*types.Header, error)
	// GetBlockHeaderByHash must also serve blocks that are no longer on the
	// head chain; the reorg resolver walks parents of abandoned branches.
	GetBlockHeaderByHash(ctx context.Context, hash common.Hash) (*types.Header, error)
	GetLatestBlockHeader(ctx context.Context) (*types.Header, error)
	GetFinalizedBlockHeader(ctx context.Context) (*types.Header, error)
	GetSafeBlockHeader(ctx context.Context) (*types.Header, error)
	// BatchGetBlockHeaders returns one header per requested number, in order.
	BatchGetBlockHeaders(ctx context.Context, blockNums []uint64) ([]*types.Header, error)
}

// LogReader fetches event logs for the watched contracts.
type LogReader interface {
	GetLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error)
	// BatchGetLogs answers every query in one round trip; results keep the
	// order of the queries.
	BatchGetLogs(ctx context.Context, queries []ethereum.FilterQuery) ([][]types.Log, error)
}

// StateCaller runs read-only contract calls against the state of a given
// block, which is how hooks read token metadata and positions.
type StateCaller interface {
	CallContractAtHash(ctx context.Context, msg ethereum.CallMsg, blockHash common.Hash) ([]byte, error)
}

// EthClient is the full chain data source of the watcher.
type EthClient interface {
	HeaderReader
	LogReader
	StateCaller
	Close()
}
