package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/goran-ethernal/SubgraphWatcher/internal/catalog"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/registry"
	"github.com/goran-ethernal/SubgraphWatcher/internal/testutil"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/stretchr/testify/require"
)

const counterABI = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "by", "type": "address"},
      {"indexed": false, "name": "amount", "type": "uint256"}
    ],
    "name": "Incremented",
    "type": "event"
  }
]`

var (
	counterAddr  = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	otherAddr    = common.HexToAddress("0xC36442b4a4522E871399CD717aBDC847Ab11FE88")
	sender       = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	incremented  = crypto.Keccak256Hash([]byte("Incremented(address,uint256)"))
	unknownTopic = crypto.Keccak256Hash([]byte("Decremented(address,uint256)"))
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.New([]subgraph.EntityDef{
		{
			Name: "Counter",
			Fields: []subgraph.FieldDef{
				{Name: "id", Type: subgraph.TypeID},
				{Name: "total", Type: subgraph.TypeBigInt},
			},
			Relations: map[string]subgraph.RelationDef{
				"increments": {Entity: "Increment", IsDerived: true, Field: "counter"},
			},
		},
		{
			Name: "Increment",
			Fields: []subgraph.FieldDef{
				{Name: "id", Type: subgraph.TypeID},
				{Name: "counter", Type: "Counter"},
				{Name: "amount", Type: subgraph.TypeBigInt},
			},
			Relations: map[string]subgraph.RelationDef{
				"counter": {Entity: "Counter"},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

// counterHooks sums Incremented amounts into one Counter per contract.
type counterHooks struct {
	stateDiffs  atomic.Int32
	checkpoints atomic.Int32
}

func (h *counterHooks) CreateInitialState(
	_ context.Context, _ hooks.Indexer, contract common.Address, _ common.Hash,
) (subgraph.StateData, error) {
	s := subgraph.NewStateData()
	s.Set("Counter", contract.Hex(), subgraph.Entity{"id": contract.Hex(), "total": "0"})
	return s, nil
}

func (h *counterHooks) HandleEvent(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) error {
	id := event.Contract.Hex()

	counter, err := idx.GetEntity(ctx, "Counter", id, event.Block.Hash)
	switch {
	case errors.Is(err, subgraph.ErrNotFound):
		counter = subgraph.Entity{"id": id, "total": "0"}
	case err != nil:
		return err
	}

	amount, ok := event.Args["amount"].(*big.Int)
	if !ok {
		return fmt.Errorf("unexpected amount %T", event.Args["amount"])
	}
	total, _ := new(big.Int).SetString(counter.String("total"), 10)
	counter["total"] = total.Add(total, amount).String()

	if err := idx.SaveEntity(ctx, event.Contract, event.Block.Hash, "Counter", counter); err != nil {
		return err
	}
	return idx.SaveEntity(ctx, event.Contract, event.Block.Hash, "Increment", subgraph.Entity{
		"id":      fmt.Sprintf("%s-%d", event.TxHash.Hex(), event.LogIndex),
		"counter": id,
		"amount":  amount.String(),
	})
}

func (h *counterHooks) CreateStateDiff(context.Context, hooks.Indexer, common.Hash) error {
	h.stateDiffs.Add(1)
	return nil
}

func (h *counterHooks) CreateStateCheckpoint(context.Context, hooks.Indexer, common.Address, common.Hash) (bool, error) {
	h.checkpoints.Add(1)
	return false, nil
}

type fixture struct {
	indexer *Indexer
	hooks   *counterHooks
	chain   *testutil.Chain
	txSeq   uint64
}

func newFixture(t *testing.T, cfg config.ServerConfig, set hooks.Set) *fixture {
	t.Helper()

	cfg.ApplyDefaults()
	reg, err := registry.New(map[string]string{"Counter": counterABI}, logger.NewNopLogger())
	require.NoError(t, err)

	h := &counterHooks{}
	if set == nil {
		set = hooks.NewSet(map[string]hooks.Hooks{"Counter": h})
	}

	idx, err := New(testutil.NewTestDB(t), cfg, reg, testCatalog(t), set, nil, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(idx.Close)

	require.NoError(t, idx.WatchContract(context.Background(), counterAddr, "Counter", true, 100, nil))

	return &fixture{
		indexer: idx,
		hooks:   h,
		chain:   testutil.NewChain("main", 100, 110, common.Hash{}),
	}
}

func (f *fixture) event(t *testing.T, contract common.Address, amount int64) *subgraph.Event {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(counterABI))
	require.NoError(t, err)
	data, err := parsed.Events["Incremented"].Inputs.NonIndexed().Pack(big.NewInt(amount))
	require.NoError(t, err)

	f.txSeq++
	ev := &subgraph.Event{
		TxHash:   common.BigToHash(new(big.Int).SetUint64(f.txSeq)),
		LogIndex: uint(f.txSeq),
		Contract: contract,
		Data:     data,
	}
	ev.SetTopics([]common.Hash{incremented, common.BytesToHash(sender.Bytes())})
	return ev
}

// save stores block with events the way the fetcher does and returns the
// stored events.
func (f *fixture) save(t *testing.T, block *subgraph.BlockProgress, events ...*subgraph.Event) []*subgraph.Event {
	t.Helper()

	b := *block
	_, err := f.indexer.Store().SaveBlockWithEvents(&b, events)
	require.NoError(t, err)

	stored, err := f.indexer.Store().GetBlockEvents(block.BlockHash)
	require.NoError(t, err)
	return stored
}

func (f *fixture) process(t *testing.T, block *subgraph.BlockProgress, amounts ...int64) {
	t.Helper()

	events := make([]*subgraph.Event, 0, len(amounts))
	for _, a := range amounts {
		events = append(events, f.event(t, counterAddr, a))
	}
	stored := f.save(t, block, events...)
	require.NoError(t, f.indexer.ProcessBlockWithEvents(context.Background(), block, stored))
}

func (f *fixture) total(t *testing.T, height subgraph.BlockHeight) string {
	t.Helper()

	counter, err := f.indexer.GetSubgraphEntity(context.Background(), "Counter", counterAddr.Hex(), height, nil)
	require.NoError(t, err)
	return counter.String("total")
}

func TestIndexer_ProcessBlockWithEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{}, nil)

	block := f.chain.At(100)
	f.process(t, block, 5, 7)

	stored, err := f.indexer.GetBlockProgress(ctx, block.BlockHash)
	require.NoError(t, err)
	require.True(t, stored.IsComplete)
	require.Equal(t, 2, stored.NumProcessedEvents)

	require.Equal(t, "12", f.total(t, subgraph.AtHash(block.BlockHash)))
	require.Equal(t, "12", f.total(t, subgraph.LatestBlock()))

	status, err := f.indexer.GetSyncStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(100), status.LatestProcessedBlockNumber)

	init, err := f.indexer.GetLatestState(ctx, counterAddr, subgraph.StateKindInit, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(100), init.BlockNumber)

	staged, err := f.indexer.GetStates(ctx, subgraph.StateFilter{BlockHash: &block.BlockHash, Kind: subgraph.StateKindDiffStaged})
	require.NoError(t, err)
	require.Len(t, staged, 1)

	t.Run("reprocessing yields the same state", func(t *testing.T) {
		events, err := f.indexer.Store().GetBlockEvents(block.BlockHash)
		require.NoError(t, err)

		require.NoError(t, f.indexer.ProcessBlockWithEvents(ctx, block, events))
		require.Equal(t, "12", f.total(t, subgraph.AtHash(block.BlockHash)))

		inits, err := f.indexer.GetStates(ctx, subgraph.StateFilter{ContractAddress: &counterAddr, Kind: subgraph.StateKindInit})
		require.NoError(t, err)
		require.Len(t, inits, 1)
	})
}

func TestIndexer_InitialStateAtStartingBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{}, nil)

	before := testutil.NewChain("main", 99, 99, common.Hash{}).At(99)
	f.process(t, before, 3)

	_, err := f.indexer.GetLatestState(ctx, counterAddr, subgraph.StateKindInit, nil)
	require.ErrorIs(t, err, subgraph.ErrNotFound)
	_, err = f.indexer.GetSubgraphEntity(ctx, "Counter", counterAddr.Hex(), subgraph.AtHash(before.BlockHash), nil)
	require.ErrorIs(t, err, subgraph.ErrNotFound, "events before the starting block are not routed")

	f.process(t, f.chain.At(100))

	init, err := f.indexer.GetLatestState(ctx, counterAddr, subgraph.StateKindInit, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(100), init.BlockNumber)
	require.Equal(t, "0", f.total(t, subgraph.AtHash(f.chain.At(100).BlockHash)))
}

func TestIndexer_SkipsUnknownAndUnwatchedEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{}, nil)

	block := f.chain.At(100)

	unknown := f.event(t, counterAddr, 1)
	unknown.SetTopics([]common.Hash{unknownTopic})
	unrecognized := f.event(t, counterAddr, 1)
	unrecognized.EventName = subgraph.UnknownEventName
	unwatched := f.event(t, otherAddr, 100)
	handled := f.event(t, counterAddr, 4)

	stored := f.save(t, block, unknown, unrecognized, unwatched, handled)
	require.NoError(t, f.indexer.ProcessBlockWithEvents(ctx, block, stored))

	progress, err := f.indexer.GetBlockProgress(ctx, block.BlockHash)
	require.NoError(t, err)
	require.True(t, progress.IsComplete)
	require.Equal(t, 4, progress.NumProcessedEvents)
	require.Equal(t, "4", f.total(t, subgraph.AtHash(block.BlockHash)))

	remaining, err := f.indexer.GetEventsByFilter(ctx, subgraph.EventFilter{BlockHash: block.BlockHash})
	require.NoError(t, err)
	require.Len(t, remaining, 3, "events no ABI recognized are dropped after processing")
}

func TestIndexer_FrothyBranches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{}, nil)

	f.process(t, f.chain.At(100), 1)
	f.process(t, f.chain.At(101), 10)

	fork := f.chain.Fork("alt", 101, 102)
	f.process(t, fork.At(101), 20)
	f.process(t, fork.At(102), 30)

	require.Equal(t, "11", f.total(t, subgraph.AtHash(f.chain.At(101).BlockHash)))
	require.Equal(t, "21", f.total(t, subgraph.AtHash(fork.At(101).BlockHash)))
	require.Equal(t, "51", f.total(t, subgraph.AtHash(fork.At(102).BlockHash)))

	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(100).BlockHash))
	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(101).BlockHash))
	require.Equal(t, uint64(101), f.indexer.CanonicalHeight())

	_, err := f.indexer.GetSubgraphEntity(ctx, "Counter", counterAddr.Hex(), subgraph.AtHash(fork.At(101).BlockHash), nil)
	require.ErrorIs(t, err, subgraph.ErrBlockPruned)

	require.Equal(t, "11", f.total(t, subgraph.AtNumber(101)))

	t.Run("canonicalizing twice is a no-op", func(t *testing.T) {
		diffs := f.hooks.stateDiffs.Load()
		require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(101).BlockHash))
		require.Equal(t, diffs, f.hooks.stateDiffs.Load())
	})

	t.Run("pruned blocks cannot be canonicalized", func(t *testing.T) {
		err := f.indexer.ProcessCanonicalBlock(ctx, fork.At(101).BlockHash)
		require.ErrorIs(t, err, subgraph.ErrBlockPruned)
	})

	t.Run("staged diffs become diffs", func(t *testing.T) {
		hash := f.chain.At(101).BlockHash
		diffs, err := f.indexer.GetStates(ctx, subgraph.StateFilter{BlockHash: &hash, Kind: subgraph.StateKindDiff})
		require.NoError(t, err)
		require.Len(t, diffs, 1)

		altHash := fork.At(101).BlockHash
		staged, err := f.indexer.GetStates(ctx, subgraph.StateFilter{BlockHash: &altHash, Kind: subgraph.StateKindDiffStaged})
		require.NoError(t, err)
		require.Empty(t, staged)
	})
}

func TestIndexer_GetEventsInRange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{MaxEventsBlockRange: 20}, nil)

	chain := testutil.NewChain("main", 50, 55, common.Hash{})
	for _, b := range chain.Blocks {
		f.process(t, b, 1)
	}

	events, err := f.indexer.GetEventsInRange(ctx, 50, 55)
	require.NoError(t, err)
	require.Len(t, events, 6)

	_, err = f.indexer.GetEventsInRange(ctx, 50, 60)
	var mismatch *subgraph.RangeMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, 11, mismatch.Expected)
	require.Equal(t, 6, mismatch.Actual)
	require.ErrorIs(t, err, subgraph.ErrRangeMismatch)

	_, err = f.indexer.GetEventsInRange(ctx, 50, 100)
	require.Error(t, err)
	require.NotErrorIs(t, err, subgraph.ErrRangeMismatch)

	_, err = f.indexer.GetEventsInRange(ctx, 55, 50)
	require.Error(t, err)
}

func TestIndexer_DerivedRelations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{}, nil)

	f.process(t, f.chain.At(100), 2, 3)
	height := subgraph.AtHash(f.chain.At(100).BlockHash)

	counter, err := f.indexer.GetSubgraphEntity(ctx, "Counter", counterAddr.Hex(), height, []string{"increments"})
	require.NoError(t, err)
	increments, ok := counter["increments"].([]subgraph.Entity)
	require.True(t, ok)
	require.Len(t, increments, 2)

	list, err := f.indexer.GetSubgraphEntities(ctx, "Increment", height, nil, subgraph.QueryOptions{}, []string{"counter"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, inc := range list {
		ref, ok := inc["counter"].(subgraph.Entity)
		require.True(t, ok)
		require.Equal(t, "5", ref.String("total"))
	}

	_, err = f.indexer.GetSubgraphEntity(ctx, "Counter", counterAddr.Hex(), height, []string{"nope"})
	require.ErrorIs(t, err, catalog.ErrUnknownField)
}

func TestIndexer_CheckpointMatchesEntities(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{CheckpointInterval: 2}, nil)

	for n := uint64(100); n <= 104; n++ {
		f.process(t, f.chain.At(n), int64(n-99))
	}
	for n := uint64(100); n <= 104; n++ {
		require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(n).BlockHash))
	}
	f.indexer.FlushCheckpoints()

	checkpoints, err := f.indexer.GetStates(ctx, subgraph.StateFilter{
		ContractAddress: &counterAddr,
		Kind:            subgraph.StateKindCheckpoint,
	})
	require.NoError(t, err)
	require.Len(t, checkpoints, 2)
	require.Equal(t, uint64(102), checkpoints[0].BlockNumber)
	require.Equal(t, uint64(104), checkpoints[1].BlockNumber)
	require.Positive(t, f.hooks.checkpoints.Load())

	for _, cp := range checkpoints {
		data, err := subgraph.DecodeStateData(cp.Data)
		require.NoError(t, err)
		require.Equal(t,
			f.total(t, subgraph.AtHash(cp.BlockHash)),
			data.State["Counter"][counterAddr.Hex()].String("total"),
		)

		byCID, err := f.indexer.GetStateByCID(ctx, cp.CID)
		require.NoError(t, err)
		require.Equal(t, cp.BlockHash, byCID.BlockHash)
	}

	status, err := f.indexer.GetStateSyncStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(104), status.LatestIndexedBlockNumber)
	require.Equal(t, uint64(104), status.LatestCheckpointBlockNumber)

	t.Run("on demand checkpoint at the latest canonical block", func(t *testing.T) {
		cid, err := f.indexer.ProcessCLICheckpoint(ctx, counterAddr, nil)
		require.NoError(t, err)
		require.Equal(t, checkpoints[1].CID, cid)

		_, err = f.indexer.ProcessCLICheckpoint(ctx, otherAddr, nil)
		require.ErrorIs(t, err, subgraph.ErrNotFound)
	})
}

func TestIndexer_ResetWatcherToBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{}, nil)

	for n := uint64(100); n <= 103; n++ {
		f.process(t, f.chain.At(n), 1)
	}
	require.NoError(t, f.indexer.WatchContract(ctx, otherAddr, "Counter", false, 103, nil))

	require.NoError(t, f.indexer.ResetWatcherToBlock(ctx, 101))

	require.Equal(t, "2", f.total(t, subgraph.LatestBlock()))
	_, err := f.indexer.GetBlockProgress(ctx, f.chain.At(102).BlockHash)
	require.ErrorIs(t, err, subgraph.ErrNotFound)

	_, watched := f.indexer.IsWatchedContract(otherAddr)
	require.False(t, watched, "contracts starting after the reset block are dropped")

	status, err := f.indexer.GetSyncStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(101), status.LatestProcessedBlockNumber)

	f.process(t, f.chain.At(102), 5)
	require.Equal(t, "7", f.total(t, subgraph.LatestBlock()))

	require.ErrorIs(t, f.indexer.ResetWatcherToBlock(ctx, 200), subgraph.ErrBlockNotProcessed)
}

func TestIndexer_WatchContractUnknownKind(t *testing.T) {
	f := newFixture(t, config.ServerConfig{}, nil)

	err := f.indexer.WatchContract(context.Background(), otherAddr, "Pool", false, 0, nil)
	require.ErrorIs(t, err, subgraph.ErrUnknownKind)
}

func TestIndexer_CanonicalPrunesSkippedHeights(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{}, nil)

	fork := f.chain.Fork("alt", 101, 101)
	f.process(t, f.chain.At(100), 1)
	f.process(t, f.chain.At(101), 10)
	f.process(t, fork.At(101), 20)
	f.process(t, f.chain.At(102))

	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(100).BlockHash))
	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(102).BlockHash))

	alt, err := f.indexer.GetBlockProgress(ctx, fork.At(101).BlockHash)
	require.NoError(t, err)
	require.True(t, alt.IsPruned, "a sibling below the new canonical block is pruned")

	main, err := f.indexer.GetBlockProgress(ctx, f.chain.At(101).BlockHash)
	require.NoError(t, err)
	require.False(t, main.IsPruned)

	require.Equal(t, "11", f.total(t, subgraph.AtHash(f.chain.At(102).BlockHash)))
	require.Equal(t, "11", f.total(t, subgraph.AtNumber(101)))
	require.Equal(t, "11", f.total(t, subgraph.LatestBlock()))

	altHash := fork.At(101).BlockHash
	states, err := f.indexer.GetStates(ctx, subgraph.StateFilter{BlockHash: &altHash})
	require.NoError(t, err)
	require.Empty(t, states)
}

func TestIndexer_BlocksBelowCanonicalHeight(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{}, nil)

	f.process(t, f.chain.At(100), 1)
	f.process(t, f.chain.At(101), 10)
	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(100).BlockHash))
	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(101).BlockHash))

	fork := f.chain.Fork("late", 101, 102)
	late := fork.At(101)

	t.Run("late sibling is not processed", func(t *testing.T) {
		stored := f.save(t, late, f.event(t, counterAddr, 20))
		err := f.indexer.ProcessBlockWithEvents(ctx, late, stored)
		require.ErrorIs(t, err, subgraph.ErrConsistency)

		progress, err := f.indexer.GetBlockProgress(ctx, late.BlockHash)
		require.NoError(t, err)
		require.False(t, progress.IsComplete)
		require.Equal(t, "11", f.total(t, subgraph.AtNumber(101)))
	})

	t.Run("late sibling is not canonicalized", func(t *testing.T) {
		require.NoError(t, f.indexer.Store().UpdateBlockProgress(late.BlockHash, 0, 1))
		err := f.indexer.ProcessCanonicalBlock(ctx, late.BlockHash)
		require.ErrorIs(t, err, subgraph.ErrConsistency)
	})

	t.Run("branch not descending from the canonical block", func(t *testing.T) {
		f.save(t, fork.At(102))
		require.NoError(t, f.indexer.Store().UpdateBlockProgress(fork.At(102).BlockHash, -1, 0))

		err := f.indexer.ProcessCanonicalBlock(ctx, fork.At(102).BlockHash)
		require.ErrorIs(t, err, subgraph.ErrConsistency)
	})

	t.Run("canonical ancestors are a no-op", func(t *testing.T) {
		require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(100).BlockHash))

		status, err := f.indexer.GetSyncStatus(ctx)
		require.NoError(t, err)
		require.Equal(t, f.chain.At(101).BlockHash, status.LatestCanonicalBlockHash)
		require.Equal(t, uint64(101), f.indexer.CanonicalHeight())
	})
}

func TestIndexer_ReorgAtStartingBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{}, nil)

	alt := testutil.NewChain("alt", 100, 100, common.Hash{}).At(100)
	main := f.chain.At(100)

	f.process(t, alt, 7)
	f.process(t, main)
	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, main.BlockHash))

	inits, err := f.indexer.GetStates(ctx, subgraph.StateFilter{ContractAddress: &counterAddr, Kind: subgraph.StateKindInit})
	require.NoError(t, err)
	require.Len(t, inits, 1)
	require.Equal(t, main.BlockHash, inits[0].BlockHash)

	require.Equal(t, "0", f.total(t, subgraph.AtHash(main.BlockHash)))
	require.Equal(t, "0", f.total(t, subgraph.LatestBlock()))

	states, err := f.indexer.GetStates(ctx, subgraph.StateFilter{BlockHash: &alt.BlockHash})
	require.NoError(t, err)
	require.Empty(t, states, "states of the pruned block are removed")
}

func TestIndexer_ReprocessCanonicalBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{CheckpointInterval: 2}, nil)

	f.process(t, f.chain.At(100), 5)
	f.process(t, f.chain.At(101), 7)
	f.process(t, f.chain.At(102), 3)
	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(100).BlockHash))
	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(101).BlockHash))
	f.indexer.FlushCheckpoints()

	block := f.chain.At(100)
	events, err := f.indexer.Store().GetBlockEvents(block.BlockHash)
	require.NoError(t, err)
	require.NoError(t, f.indexer.ProcessBlockWithEvents(ctx, block, events))

	for _, tc := range []struct {
		kind subgraph.StateKind
		want int
	}{
		{kind: subgraph.StateKindInit, want: 1},
		{kind: subgraph.StateKindDiff, want: 1},
		{kind: subgraph.StateKindDiffStaged, want: 0},
	} {
		states, err := f.indexer.GetStates(ctx, subgraph.StateFilter{BlockHash: &block.BlockHash, Kind: tc.kind})
		require.NoError(t, err)
		require.Len(t, states, tc.want, tc.kind)
	}

	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(102).BlockHash))
	f.indexer.FlushCheckpoints()

	hash := f.chain.At(102).BlockHash
	checkpoints, err := f.indexer.GetStates(ctx, subgraph.StateFilter{BlockHash: &hash, Kind: subgraph.StateKindCheckpoint})
	require.NoError(t, err)
	require.Len(t, checkpoints, 1)

	data, err := subgraph.DecodeStateData(checkpoints[0].Data)
	require.NoError(t, err)
	require.Equal(t, "15", data.State["Counter"][counterAddr.Hex()].String("total"))
	require.Len(t, data.State["Increment"], 3, "increments of the reprocessed block are kept")
}
