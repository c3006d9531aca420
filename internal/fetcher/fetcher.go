package fetcher

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/db"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/metrics"
	"github.com/goran-ethernal/SubgraphWatcher/internal/registry"
	"github.com/goran-ethernal/SubgraphWatcher/internal/reorg"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/rpc"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// Contracts is the watched contract set logs are filtered by.
type Contracts interface {
	// WatchedAddresses returns the addresses whose events matter at blockNumber.
	WatchedAddresses(blockNumber uint64) []common.Address
	// ContractKind returns the kind of a watched contract.
	ContractKind(address common.Address) (string, bool)
}

// Block is a stored block together with its stored events.
type Block struct {
	Block  *subgraph.BlockProgress
	Events []*subgraph.Event
}

// Result is the outcome of a range fetch. ToBlock can be below the
// requested end when the node asked for a narrower range.
type Result struct {
	Blocks    []*Block
	FromBlock uint64
	ToBlock   uint64
}

// Fetcher pulls logs and headers of watched contracts from the chain and
// stores them as blocks and events.
type Fetcher struct {
	rpc                rpc.EthClient
	store              *store.Store
	registry           *registry.Registry
	contracts          Contracts
	maintenance        db.Maintenance
	storeUnknownEvents bool
	log                *logger.Logger
}

// New creates a Fetcher.
func New(
	cfg config.UpstreamConfig,
	rpcClient rpc.EthClient,
	st *store.Store,
	reg *registry.Registry,
	contracts Contracts,
	maintenance db.Maintenance,
	log *logger.Logger,
) *Fetcher {
	return &Fetcher{
		rpc:                rpcClient,
		store:              st,
		registry:           reg,
		contracts:          contracts,
		maintenance:        maintenance,
		storeUnknownEvents: cfg.StoreUnknownEvents,
		log:                log.WithComponent(internalcommon.ComponentFetcher),
	}
}

// FetchEventsForContracts returns the events addresses emitted in the block.
// Nothing is stored.
func (f *Fetcher) FetchEventsForContracts(
	ctx context.Context,
	blockHash common.Hash,
	blockNumber uint64,
	addresses []common.Address,
) ([]*subgraph.Event, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	logs, err := f.rpc.GetLogs(ctx, ethereum.FilterQuery{
		BlockHash: &blockHash,
		Addresses: addresses,
		Topics:    f.topics(addresses),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get logs of block %d: %w", blockNumber, err)
	}
	return f.toEvents(logs, blockNumber), nil
}

// FetchAndSaveFilteredEventsAndBlocks fetches the events of all watched
// contracts in [from, to] and stores every block that has events together
// with block to. Blocks without events are skipped, so the stored history of
// the range is sparse.
func (f *Fetcher) FetchAndSaveFilteredEventsAndBlocks(ctx context.Context, from, to uint64) (*Result, error) {
	if to < from {
		return nil, fmt.Errorf("invalid block range %d-%d", from, to)
	}

	addresses := f.contracts.WatchedAddresses(to)

	var logs []types.Log
	if len(addresses) > 0 {
		var err error
		logs, to, err = f.fetchLogs(ctx, from, to, addresses, f.topics(addresses))
		if err != nil {
			return nil, err
		}
	}

	byNumber := make(map[uint64][]types.Log)
	for _, l := range logs {
		byNumber[l.BlockNumber] = append(byNumber[l.BlockNumber], l)
	}
	numbers := make([]uint64, 0, len(byNumber)+1)
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	if _, ok := byNumber[to]; !ok {
		numbers = append(numbers, to)
	}
	slices.Sort(numbers)

	headers, err := f.rpc.BatchGetBlockHeaders(ctx, numbers)
	if err != nil {
		return nil, fmt.Errorf("failed to get headers for %d-%d: %w", from, to, err)
	}

	batch := make([]*pendingBlock, 0, len(headers))
	for _, h := range headers {
		number := h.Number.Uint64()
		blockLogs := byNumber[number]
		for _, l := range blockLogs {
			if l.BlockHash != h.Hash() {
				return nil, reorg.NewReorgError(number, fmt.Sprintf("log_hash=%s header_hash=%s",
					l.BlockHash.Hex(), h.Hash().Hex()))
			}
		}
		batch = append(batch, &pendingBlock{
			header: h,
			events: f.toEvents(blockLogs, number),
		})
	}

	blocks, err := f.save(ctx, batch, false)
	if err != nil {
		return nil, err
	}

	f.log.Debugf("fetched range %d-%d: %d logs in %d blocks", from, to, len(logs), len(blocks))
	return &Result{Blocks: blocks, FromBlock: from, ToBlock: to}, nil
}

// FetchAndSaveBlocks fetches the events of the given consecutive headers and
// stores them. The last header becomes the latest indexed block even when it
// is lower than the current one, since it is the tip of the followed branch.
func (f *Fetcher) FetchAndSaveBlocks(ctx context.Context, headers []*types.Header) ([]*Block, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	queries := make([]ethereum.FilterQuery, 0, len(headers))
	queried := make([]int, 0, len(headers))
	for i, h := range headers {
		addresses := f.contracts.WatchedAddresses(h.Number.Uint64())
		if len(addresses) == 0 {
			continue
		}
		hash := h.Hash()
		queries = append(queries, ethereum.FilterQuery{
			BlockHash: &hash,
			Addresses: addresses,
			Topics:    f.topics(addresses),
		})
		queried = append(queried, i)
	}

	batch := make([]*pendingBlock, len(headers))
	for i, h := range headers {
		batch[i] = &pendingBlock{header: h}
	}

	if len(queries) > 0 {
		results, err := f.rpc.BatchGetLogs(ctx, queries)
		if err != nil {
			return nil, fmt.Errorf("failed to get logs of %d blocks: %w", len(queries), err)
		}
		for qi, logs := range results {
			pb := batch[queried[qi]]
			pb.events = f.toEvents(logs, pb.header.Number.Uint64())
		}
	}

	return f.save(ctx, batch, true)
}

type pendingBlock struct {
	header *types.Header
	events []*subgraph.Event
}

// save stores blocks with their events in one transaction and moves the
// indexed block to the last of them.
func (f *Fetcher) save(ctx context.Context, batch []*pendingBlock, force bool) ([]*Block, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	unlock := f.maintenance.AcquireOperationLock()
	defer unlock()

	out := make([]*Block, 0, len(batch))
	err := f.store.WithTx(ctx, func(_ *sql.Tx, st *store.Store) error {
		for _, pb := range batch {
			block := subgraph.BlockFromHeader(pb.header)
			if _, err := st.SaveBlockWithEvents(block, pb.events); err != nil {
				return err
			}

			stored, err := st.GetBlockProgress(block.BlockHash)
			if err != nil {
				return err
			}
			events, err := st.GetBlockEvents(block.BlockHash)
			if err != nil {
				return err
			}
			out = append(out, &Block{Block: stored, Events: events})
		}

		tip := batch[len(batch)-1].header
		return st.UpdateSyncStatusIndexedBlock(tip.Hash(), tip.Number.Uint64(), force)
	})
	if err != nil {
		metrics.ErrorsInc(internalcommon.ComponentFetcher, "error")
		return nil, fmt.Errorf("failed to save fetched blocks: %w", err)
	}

	tip := out[len(out)-1].Block
	metrics.SyncBlockSet("indexed", tip.BlockNumber)
	BlocksFetchedAdd(len(out))
	return out, nil
}

// topics returns the topic filter for addresses: every event signature of
// their kinds, or no filter when unknown events are stored too.
func (f *Fetcher) topics(addresses []common.Address) [][]common.Hash {
	if f.storeUnknownEvents {
		return nil
	}

	seen := make(map[common.Hash]struct{})
	var sigs []common.Hash
	for _, addr := range addresses {
		kind, ok := f.contracts.ContractKind(addr)
		if !ok {
			continue
		}
		kindSigs, err := f.registry.Signatures(kind)
		if err != nil {
			continue
		}
		for _, s := range kindSigs {
			if _, dup := seen[s]; !dup {
				seen[s] = struct{}{}
				sigs = append(sigs, s)
			}
		}
	}
	return [][]common.Hash{sigs}
}

type extraInfo struct {
	TxIndex uint `json:"txIndex"`
}

// toEvents converts the logs of one block into events. Logs of contracts that
// are not watched yet at blockNumber are dropped, as are logs no ABI decodes
// unless unknown events are stored.
func (f *Fetcher) toEvents(logs []types.Log, blockNumber uint64) []*subgraph.Event {
	events := make([]*subgraph.Event, 0, len(logs))
	for _, l := range logs {
		if l.Removed || !slices.Contains(f.contracts.WatchedAddresses(blockNumber), l.Address) {
			continue
		}
		kind, _ := f.contracts.ContractKind(l.Address)

		ev := &subgraph.Event{
			TxHash:      l.TxHash,
			LogIndex:    l.Index,
			Contract:    l.Address,
			BlockNumber: blockNumber,
			Data:        l.Data,
		}
		ev.SetTopics(l.Topics)

		decoded, err := f.registry.ParseEventNameAndArgs(kind, l)
		switch {
		case err == nil:
			ev.EventName = decoded.Name
			if info, err := json.Marshal(decoded.Args); err == nil {
				ev.EventInfo = string(info)
			}
		case registry.IsSkippable(err) && f.storeUnknownEvents:
			ev.EventName = subgraph.UnknownEventName
		default:
			if !errors.Is(err, subgraph.ErrUnknownEvent) {
				f.log.Debugf("dropping log %d of block %d: %v", l.Index, blockNumber, err)
			}
			continue
		}

		if extra, err := json.Marshal(extraInfo{TxIndex: l.TxIndex}); err == nil {
			ev.ExtraInfo = string(extra)
		}
		events = append(events, ev)
	}
	return events
}

// blockRange builds a range filter query.
func blockRange(from, to uint64, addresses []common.Address, topics [][]common.Hash) ethereum.FilterQuery {
	return ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: addresses,
		Topics:    topics,
	}
}
