package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/stretchr/testify/require"
)

var (
	blockA   = common.HexToHash("0xa1")
	blockB   = common.HexToHash("0xb1")
	factory  = common.HexToAddress("0x1F98431c8aD98523631AE4a59f267346ea31F984")
	position = common.HexToAddress("0xC36442b4a4522E871399CD717aBDD847Ab11FE88")
)

func TestAccumulator_StageAndLookup(t *testing.T) {
	acc := NewAccumulator()

	pool := subgraph.Entity{"id": "0xpool", "liquidity": "1"}
	acc.Stage(blockA, factory, "Pool", pool)

	pool["liquidity"] = "mutated"

	got, found := acc.Lookup(blockA, "Pool", "0xpool")
	require.True(t, found)
	require.Equal(t, "1", got["liquidity"], "staged entities are copies")

	_, found = acc.Lookup(blockB, "Pool", "0xpool")
	require.False(t, found, "blocks are isolated")

	acc.Remove(blockA, factory, "Pool", "0xpool")
	got, found = acc.Lookup(blockA, "Pool", "0xpool")
	require.True(t, found)
	require.Nil(t, got)
}

func TestAccumulator_EntitiesKeepFirstWriteOrder(t *testing.T) {
	acc := NewAccumulator()

	acc.Stage(blockA, factory, "Token", subgraph.Entity{"id": "t0"})
	acc.Stage(blockA, factory, "Pool", subgraph.Entity{"id": "p", "liquidity": "1"})
	acc.Stage(blockA, factory, "Token", subgraph.Entity{"id": "t1"})
	acc.Stage(blockA, factory, "Pool", subgraph.Entity{"id": "p", "liquidity": "2"})
	acc.Remove(blockA, factory, "Token", "t0")

	muts := acc.Entities(blockA)
	require.Len(t, muts, 3)
	require.Equal(t, "t0", muts[0].ID)
	require.True(t, muts[0].Removed())
	require.Equal(t, "p", muts[1].ID)
	require.Equal(t, "2", muts[1].Entity["liquidity"])
	require.Equal(t, "t1", muts[2].ID)
}

func TestAccumulator_ContractStates(t *testing.T) {
	acc := NewAccumulator()

	acc.Stage(blockA, factory, "Pool", subgraph.Entity{"id": "p"})
	acc.Stage(blockA, position, "Position", subgraph.Entity{"id": "1"})
	acc.Remove(blockA, position, "Position", "2")

	extra := subgraph.NewStateData()
	extra.Set("Factory", "f", subgraph.Entity{"id": "f"})
	acc.UpdateSubgraphState(blockA, factory, extra)

	states := acc.ContractStates(blockA)
	require.Len(t, states, 2)
	require.Contains(t, states[factory].State["Pool"], "p")
	require.Contains(t, states[factory].State["Factory"], "f")
	require.Contains(t, states[position].State["Position"], "2")
	require.Nil(t, states[position].State["Position"]["2"])

	_, found := acc.Lookup(blockA, "Factory", "f")
	require.False(t, found, "state updates do not stage entities")
}

func TestAccumulator_Discard(t *testing.T) {
	acc := NewAccumulator()

	acc.Stage(blockA, factory, "Pool", subgraph.Entity{"id": "p"})
	acc.Stage(blockB, factory, "Pool", subgraph.Entity{"id": "p"})
	require.Equal(t, 2, acc.Len())

	acc.Discard(blockA)
	require.Equal(t, 1, acc.Len())
	require.Empty(t, acc.Entities(blockA))
	require.Nil(t, acc.ContractStates(blockA))
	require.Len(t, acc.Entities(blockB), 1)
}

func TestAccumulator_ConcurrentBlocks(t *testing.T) {
	acc := NewAccumulator()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hash := common.BigToHash(common.Big1)
			if i%2 == 0 {
				hash = common.BigToHash(common.Big2)
			}
			acc.Stage(hash, factory, "Tick", subgraph.Entity{"id": fmt.Sprintf("tick-%d", i)})
		}(i)
	}
	wg.Wait()

	require.Len(t, acc.Entities(common.BigToHash(common.Big1)), 8)
	require.Len(t, acc.Entities(common.BigToHash(common.Big2)), 8)
}
