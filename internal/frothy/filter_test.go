package frothy

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/catalog"
	"github.com/goran-ethernal/SubgraphWatcher/internal/state"
	"github.com/goran-ethernal/SubgraphWatcher/internal/testutil"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/stretchr/testify/require"
)

func TestManager_GetEntitiesFilters(t *testing.T) {
	f := newFixture(t)
	block := testutil.NewChain("main", 1, 1, common.Hash{}).At(1)

	mutation := func(id, symbol string, liquidity string, fee int64, tokens ...any) state.Mutation {
		return state.Mutation{Type: "Pool", ID: id, Entity: subgraph.Entity{
			"id":        id,
			"symbol":    symbol,
			"liquidity": liquidity,
			"feeTier":   fee,
			"tokens":    tokens,
		}}
	}
	f.commit(t, block,
		mutation("a", "USDC/WETH", "900", 500, "usdc", "weth"),
		mutation("b", "DAI/WETH", "10000", 3000, "dai", "weth"),
		mutation("c", "WBTC/USDC", "50", 3000, "wbtc", "usdc"),
		mutation("d", "UNI/WETH", "7", 10000, "uni", "weth"),
	)

	ids := func(entities []subgraph.Entity) []string {
		out := make([]string, len(entities))
		for i, e := range entities {
			out[i] = e.ID()
		}
		return out
	}

	tests := []struct {
		name    string
		where   subgraph.Where
		opts    subgraph.QueryOptions
		want    []string
		wantErr error
	}{
		{
			name: "no filter orders by id",
			want: []string{"a", "b", "c", "d"},
		},
		{
			name:  "equality",
			where: subgraph.Where{"feeTier": 3000},
			want:  []string{"b", "c"},
		},
		{
			name:  "numeric comparison on big integers",
			where: subgraph.Where{"liquidity_gt": "100"},
			want:  []string{"a", "b"},
		},
		{
			name:  "not and lte combined",
			where: subgraph.Where{"feeTier_not": 500, "liquidity_lte": "50"},
			want:  []string{"c", "d"},
		},
		{
			name:  "in",
			where: subgraph.Where{"id_in": []any{"a", "d", "z"}},
			want:  []string{"a", "d"},
		},
		{
			name:  "not in",
			where: subgraph.Where{"id_not_in": []any{"a", "d"}},
			want:  []string{"b", "c"},
		},
		{
			name:  "string contains",
			where: subgraph.Where{"symbol_contains": "USDC"},
			want:  []string{"a", "c"},
		},
		{
			name:  "list contains",
			where: subgraph.Where{"tokens_contains": "weth"},
			want:  []string{"a", "b", "d"},
		},
		{
			name: "order by liquidity descending",
			opts: subgraph.QueryOptions{OrderBy: "liquidity", OrderDirection: subgraph.OrderDesc},
			want: []string{"b", "a", "c", "d"},
		},
		{
			name: "ties broken by id",
			opts: subgraph.QueryOptions{OrderBy: "feeTier"},
			want: []string{"a", "b", "c", "d"},
		},
		{
			name: "skip and limit",
			opts: subgraph.QueryOptions{Skip: 1, Limit: 2},
			want: []string{"b", "c"},
		},
		{
			name: "skip past the end",
			opts: subgraph.QueryOptions{Skip: 10},
			want: []string{},
		},
		{
			name:    "unknown field",
			where:   subgraph.Where{"volume_gt": "1"},
			wantErr: catalog.ErrUnknownField,
		},
		{
			name:    "unknown order field",
			opts:    subgraph.QueryOptions{OrderBy: "volume"},
			wantErr: catalog.ErrUnknownField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, height := range []subgraph.BlockHeight{subgraph.LatestBlock(), subgraph.AtHash(block.BlockHash)} {
				got, err := f.manager.GetEntities("Pool", height, tt.where, tt.opts)
				if tt.wantErr != nil {
					require.ErrorIs(t, err, tt.wantErr)
					continue
				}
				require.NoError(t, err)
				require.Equal(t, tt.want, ids(got), "height %s", height)
			}
		})
	}
}

func TestManager_GetEntitiesBeforeFirstBlock(t *testing.T) {
	f := newFixture(t)
	block := testutil.NewChain("main", 10, 10, common.Hash{}).At(10)
	f.commit(t, block, pool("p", "1"))

	f.manager.SetCanonicalHeight(10, false)

	pools, err := f.manager.GetEntities("Pool", subgraph.AtNumber(9), nil, subgraph.QueryOptions{})
	require.NoError(t, err)
	require.Empty(t, pools)

	_, err = f.manager.GetEntity("Pool", "p", subgraph.AtNumber(9))
	require.ErrorIs(t, err, subgraph.ErrNotFound)
}
