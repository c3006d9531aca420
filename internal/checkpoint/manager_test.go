package checkpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	"github.com/goran-ethernal/SubgraphWatcher/internal/testutil"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/stretchr/testify/require"
)

var (
	factory  = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	position = common.HexToAddress("0xC36442b4a4522E871399CD717aBDC847Ab11FE88")
)

type fixture struct {
	store   *store.Store
	manager *Manager
	chain   *testutil.Chain
}

func newFixture(t *testing.T, interval int64) *fixture {
	t.Helper()

	st := store.New(testutil.NewTestDB(t), logger.NewNopLogger())
	cfg := config.ServerConfig{CheckpointInterval: interval}
	cfg.ApplyDefaults()

	m := New(st, cfg, nil, logger.NewNopLogger())
	t.Cleanup(m.Close)

	chain := testutil.NewChain("main", 100, 130, common.Hash{})
	for _, b := range chain.Blocks {
		require.NoError(t, st.SaveBlockProgress(b))
		require.NoError(t, st.UpdateBlockProgress(b.BlockHash, -1, 0))
	}

	return &fixture{store: st, manager: m, chain: chain}
}

func (f *fixture) hash(n uint64) common.Hash {
	return f.chain.At(n).BlockHash
}

func stateOf(entries ...any) subgraph.StateData {
	s := subgraph.NewStateData()
	for i := 0; i+2 < len(entries); i += 3 {
		entityType, id := entries[i].(string), entries[i+1].(string)
		if entries[i+2] == nil {
			s.Set(entityType, id, nil)
			continue
		}
		s.Set(entityType, id, subgraph.Entity{"id": id, "value": entries[i+2]})
	}
	return s
}

func decode(t *testing.T, st *subgraph.State) subgraph.StateData {
	t.Helper()

	data, err := subgraph.DecodeStateData(st.Data)
	require.NoError(t, err)
	return data
}

func TestManager_CreateInitAtMostOnce(t *testing.T) {
	f := newFixture(t, 10)

	created, err := f.manager.CreateInit(factory, f.hash(100), stateOf("Factory", "f", "1"))
	require.NoError(t, err)
	require.True(t, created)

	created, err = f.manager.CreateInit(factory, f.hash(101), stateOf("Factory", "f", "2"))
	require.NoError(t, err)
	require.False(t, created)

	init, err := f.manager.GetLatestState(factory, subgraph.StateKindInit, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(100), init.BlockNumber)
	require.Equal(t, "1", decode(t, init).State["Factory"]["f"].String("value"))

	_, err = f.manager.CreateInit(factory, testutil.BlockHash("missing", 1), subgraph.NewStateData())
	require.ErrorIs(t, err, subgraph.ErrNotFound)
}

func TestManager_InitIsPerBranch(t *testing.T) {
	f := newFixture(t, 10)

	fork := testutil.NewChain("fork", 101, 102, f.hash(100))
	for _, b := range fork.Blocks {
		require.NoError(t, f.store.SaveBlockProgress(b))
	}

	created, err := f.manager.CreateInit(factory, fork.At(101).BlockHash, stateOf("Factory", "f", "fork"))
	require.NoError(t, err)
	require.True(t, created)

	_, err = f.manager.GetBranchInit(factory, f.chain.At(102))
	require.ErrorIs(t, err, subgraph.ErrNotFound, "an init on a sibling branch does not count")

	created, err = f.manager.CreateInit(factory, f.hash(101), stateOf("Factory", "f", "main"))
	require.NoError(t, err)
	require.True(t, created)

	init, err := f.manager.GetBranchInit(factory, fork.At(102))
	require.NoError(t, err)
	require.Equal(t, fork.At(101).BlockHash, init.BlockHash)

	init, err = f.manager.GetBranchInit(factory, f.chain.At(110))
	require.NoError(t, err)
	require.Equal(t, f.hash(101), init.BlockHash)

	require.NoError(t, f.store.MarkBlocksAsPruned([]common.Hash{f.hash(101)}))
	_, err = f.manager.GetBranchInit(factory, f.chain.At(110))
	require.ErrorIs(t, err, subgraph.ErrNotFound, "inits of pruned blocks are ignored")

	require.NoError(t, f.manager.RemoveBlockStates(fork.At(101).BlockHash, subgraph.StateKindDiff))
	_, err = f.manager.GetBranchInit(factory, fork.At(102))
	require.NoError(t, err, "only the listed kinds are removed")

	require.NoError(t, f.manager.RemoveBlockStates(fork.At(101).BlockHash))
	_, err = f.manager.GetBranchInit(factory, fork.At(102))
	require.ErrorIs(t, err, subgraph.ErrNotFound)
}

func TestManager_CreateStateCheckpointAtMostOnce(t *testing.T) {
	f := newFixture(t, 10)

	created, err := f.manager.CreateStateCheckpoint(factory, f.hash(110), stateOf("Factory", "f", "1"))
	require.NoError(t, err)
	require.True(t, created)

	created, err = f.manager.CreateStateCheckpoint(factory, f.hash(110), stateOf("Factory", "f", "2"))
	require.NoError(t, err)
	require.False(t, created)

	states, err := f.manager.GetStatesByHash(f.hash(110))
	require.NoError(t, err)
	require.Len(t, states, 1)
	require.Equal(t, "1", decode(t, states[0]).State["Factory"]["f"].String("value"))
}

func TestManager_CIDsAreDistinctPerContract(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.manager.CreateInit(factory, f.hash(100), subgraph.NewStateData())
	require.NoError(t, err)
	_, err = f.manager.CreateInit(position, f.hash(100), subgraph.NewStateData())
	require.NoError(t, err)

	a, err := f.manager.GetLatestState(factory, subgraph.StateKindInit, nil)
	require.NoError(t, err)
	b, err := f.manager.GetLatestState(position, subgraph.StateKindInit, nil)
	require.NoError(t, err)
	require.NotEqual(t, a.CID, b.CID)

	byCID, err := f.manager.GetStateByCID(b.CID)
	require.NoError(t, err)
	require.Equal(t, position, byCID.ContractAddress)

	_, err = f.manager.GetStateByCID("0xdead")
	require.ErrorIs(t, err, subgraph.ErrNotFound)
}

func TestManager_CreateDiffRequiresInitialState(t *testing.T) {
	f := newFixture(t, 10)

	err := f.manager.CreateDiff(factory, f.hash(105), stateOf("Pool", "p", "1"))
	require.ErrorIs(t, err, ErrInitialStateNotFound)

	_, err = f.manager.CreateInit(factory, f.hash(100), subgraph.NewStateData())
	require.NoError(t, err)
	require.NoError(t, f.manager.CreateDiff(factory, f.hash(105), stateOf("Pool", "p", "1")))
	require.NoError(t, f.manager.CreateDiff(factory, f.hash(105), stateOf("Pool", "q", "2")))

	diff, err := f.manager.GetLatestState(factory, subgraph.StateKindDiff, nil)
	require.NoError(t, err)
	require.Len(t, decode(t, diff).State["Pool"], 2, "diffs of one block are merged")

	prev, err := f.manager.GetPrevState(factory, 105)
	require.NoError(t, err)
	require.Equal(t, subgraph.StateKindInit, prev.Kind)
	require.Equal(t, decode(t, diff).Meta.Parent, prev.CID)
}

func TestManager_CreateCheckpointMergesDiffs(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.manager.CreateInit(factory, f.hash(100), stateOf("Factory", "f", "0"))
	require.NoError(t, err)
	require.NoError(t, f.manager.CreateDiff(factory, f.hash(100), stateOf("Pool", "a", "1")))
	require.NoError(t, f.manager.CreateDiff(factory, f.hash(103), stateOf("Pool", "b", "2", "Pool", "a", "3")))
	require.NoError(t, f.manager.CreateDiff(factory, f.hash(107), stateOf("Pool", "b", nil)))
	require.NoError(t, f.manager.CreateDiff(factory, f.hash(112), stateOf("Pool", "c", "9")))

	cid, created, err := f.manager.CreateCheckpoint(factory, f.hash(110))
	require.NoError(t, err)
	require.True(t, created)

	st, err := f.manager.GetStateByCID(cid)
	require.NoError(t, err)
	full := decode(t, st)
	require.Equal(t, subgraph.StateKindCheckpoint, full.Meta.Kind)
	require.Equal(t, "0", full.State["Factory"]["f"].String("value"))
	require.Equal(t, "3", full.State["Pool"]["a"].String("value"))
	require.NotContains(t, full.State["Pool"], "b")
	require.NotContains(t, full.State["Pool"], "c")

	again, created, err := f.manager.CreateCheckpoint(factory, f.hash(110))
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, cid, again)

	// the next checkpoint builds on the previous one
	require.NoError(t, f.manager.CreateDiff(factory, f.hash(110), stateOf("Pool", "z", "0")))
	cid, created, err = f.manager.CreateCheckpoint(factory, f.hash(120))
	require.NoError(t, err)
	require.True(t, created)

	st, err = f.manager.GetStateByCID(cid)
	require.NoError(t, err)
	full = decode(t, st)
	require.Equal(t, "9", full.State["Pool"]["c"].String("value"))
	require.NotContains(t, full.State["Pool"], "z", "diffs at the base checkpoint block are already in it")
}

func TestManager_FinalizeDiffStaged(t *testing.T) {
	f := newFixture(t, 10)

	fork := testutil.NewChain("fork", 105, 105, f.hash(104)).At(105)
	require.NoError(t, f.store.SaveBlockProgress(fork))

	require.NoError(t, f.manager.CreateDiffStaged(factory, f.hash(105), stateOf("Pool", "a", "1")))
	require.NoError(t, f.manager.CreateDiffStaged(factory, f.hash(105), stateOf("Pool", "b", "2")))
	require.NoError(t, f.manager.CreateDiffStaged(factory, fork.BlockHash, stateOf("Pool", "a", "99")))
	require.NoError(t, f.store.MarkBlocksAsPruned([]common.Hash{fork.BlockHash}))

	require.NoError(t, f.manager.FinalizeDiffStaged(f.hash(105)))

	staged, err := f.manager.GetStates(subgraph.StateFilter{Kind: subgraph.StateKindDiffStaged})
	require.NoError(t, err)
	require.Empty(t, staged)

	diffs, err := f.manager.GetStates(subgraph.StateFilter{ContractAddress: &factory, Kind: subgraph.StateKindDiff})
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	require.Equal(t, f.hash(105), diffs[0].BlockHash)
	require.Len(t, decode(t, diffs[0]).State["Pool"], 2)

	status, err := f.manager.GetStateSyncStatus()
	require.NoError(t, err)
	require.Equal(t, uint64(105), status.LatestIndexedBlockNumber)
}

func TestManager_StateSyncStatus(t *testing.T) {
	f := newFixture(t, 10)

	_, err := f.manager.GetStateSyncStatus()
	require.ErrorIs(t, err, subgraph.ErrNotFound)

	require.NoError(t, f.manager.UpdateStateSyncStatusCheckpointBlock(120, false))
	require.NoError(t, f.manager.UpdateStateSyncStatusCheckpointBlock(110, false))

	status, err := f.manager.GetStateSyncStatus()
	require.NoError(t, err)
	require.Equal(t, uint64(120), status.LatestCheckpointBlockNumber)

	require.NoError(t, f.manager.UpdateStateSyncStatusCheckpointBlock(110, true))
	status, err = f.manager.GetStateSyncStatus()
	require.NoError(t, err)
	require.Equal(t, uint64(110), status.LatestCheckpointBlockNumber)
}

func TestManager_ProcessCheckpoint(t *testing.T) {
	contracts := []*subgraph.Contract{
		{Address: factory, Kind: "factory", Checkpoint: true, StartingBlock: 100},
		{Address: position, Kind: "nonfungiblepositionmanager", Checkpoint: true, StartingBlock: 100},
		{Address: common.HexToAddress("0x01"), Kind: "pool", Checkpoint: false, StartingBlock: 100},
	}

	setup := func(t *testing.T) *fixture {
		t.Helper()

		f := newFixture(t, 10)
		for _, c := range contracts[:2] {
			_, err := f.manager.CreateInit(c.Address, f.hash(100), stateOf("Factory", "f", "0"))
			require.NoError(t, err)
		}
		return f
	}

	checkpoints := func(t *testing.T, f *fixture) int {
		t.Helper()

		states, err := f.manager.GetStates(subgraph.StateFilter{Kind: subgraph.StateKindCheckpoint})
		require.NoError(t, err)
		return len(states)
	}

	t.Run("below interval", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.manager.ProcessCheckpoint(context.Background(), f.chain.At(109), contracts, nil))
		require.Zero(t, checkpoints(t, f))
	})

	t.Run("at interval", func(t *testing.T) {
		f := setup(t)
		require.NoError(t, f.manager.ProcessCheckpoint(context.Background(), f.chain.At(110), contracts, nil))
		require.Equal(t, 2, checkpoints(t, f))

		status, err := f.manager.GetStateSyncStatus()
		require.NoError(t, err)
		require.Equal(t, uint64(110), status.LatestCheckpointBlockNumber)

		// measured from the last checkpoint from now on
		require.NoError(t, f.manager.ProcessCheckpoint(context.Background(), f.chain.At(115), contracts, nil))
		require.Equal(t, 2, checkpoints(t, f))
	})

	t.Run("hook handles the checkpoint", func(t *testing.T) {
		f := setup(t)
		var called []common.Address
		hook := func(_ context.Context, c *subgraph.Contract, _ common.Hash) (bool, error) {
			called = append(called, c.Address)
			return c.Address == factory, nil
		}
		require.NoError(t, f.manager.ProcessCheckpoint(context.Background(), f.chain.At(110), contracts[:1], hook))
		require.Equal(t, []common.Address{factory}, called)
		require.Zero(t, checkpoints(t, f))
	})

	t.Run("failures are aggregated", func(t *testing.T) {
		f := setup(t)
		hook := func(_ context.Context, c *subgraph.Contract, _ common.Hash) (bool, error) {
			return false, errors.New("boom " + c.Kind)
		}
		err := f.manager.ProcessCheckpoint(context.Background(), f.chain.At(110), contracts, hook)
		require.ErrorContains(t, err, "boom factory")
		require.ErrorContains(t, err, "boom nonfungiblepositionmanager")

		_, err = f.manager.GetStateSyncStatus()
		require.ErrorIs(t, err, subgraph.ErrNotFound)
	})

	t.Run("async", func(t *testing.T) {
		f := setup(t)
		f.manager.ProcessCheckpointAsync(context.Background(), f.chain.At(110), contracts, nil)
		f.manager.Flush()
		require.Equal(t, 2, checkpoints(t, f))
	})

	t.Run("disabled", func(t *testing.T) {
		f := setup(t)
		f.manager.interval = 0
		require.NoError(t, f.manager.ProcessCheckpoint(context.Background(), f.chain.At(130), contracts, nil))
		require.Zero(t, checkpoints(t, f))
	})
}

func TestManager_ProcessCLICheckpoint(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.manager.ProcessCLICheckpoint(context.Background(), factory, nil)
	require.Error(t, err)

	_, err = f.manager.CreateInit(factory, f.hash(100), stateOf("Factory", "f", "0"))
	require.NoError(t, err)
	_, err = f.store.UpdateSyncStatusCanonicalBlock(f.hash(104), 104, false)
	require.NoError(t, err)

	cid, err := f.manager.ProcessCLICheckpoint(context.Background(), factory, nil)
	require.NoError(t, err)

	st, err := f.manager.GetStateByCID(cid)
	require.NoError(t, err)
	require.Equal(t, uint64(104), st.BlockNumber)

	at := f.hash(102)
	cid, err = f.manager.ProcessCLICheckpoint(context.Background(), factory, &at)
	require.NoError(t, err)
	st, err = f.manager.GetStateByCID(cid)
	require.NoError(t, err)
	require.Equal(t, at, st.BlockHash)
}
