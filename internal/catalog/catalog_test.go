package catalog

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testDefs() []subgraph.EntityDef {
	return []subgraph.EntityDef{
		{
			Name: "Token",
			Fields: []subgraph.FieldDef{
				{Name: "id", Type: subgraph.TypeID},
				{Name: "symbol", Type: subgraph.TypeString},
				{Name: "decimals", Type: subgraph.TypeBigInt},
				{Name: "derivedETH", Type: subgraph.TypeBigDecimal},
				{Name: "whitelistPools", Type: "Pool"},
			},
			Relations: map[string]subgraph.RelationDef{
				"whitelistPools": {Entity: "Pool", IsArray: true},
			},
		},
		{
			Name: "Pool",
			Fields: []subgraph.FieldDef{
				{Name: "id", Type: subgraph.TypeID},
				{Name: "token0", Type: "Token"},
				{Name: "liquidity", Type: subgraph.TypeBigInt},
				{Name: "createdAtTimestamp", Type: subgraph.TypeInt},
				{Name: "active", Type: subgraph.TypeBoolean},
			},
			Relations: map[string]subgraph.RelationDef{
				"token0": {Entity: "Token"},
				"mints":  {Entity: "Mint", IsArray: true, IsDerived: true, Field: "pool"},
			},
		},
		{
			Name: "Mint",
			Fields: []subgraph.FieldDef{
				{Name: "id", Type: subgraph.TypeID},
				{Name: "pool", Type: "Pool"},
				{Name: "sender", Type: subgraph.TypeBytes},
			},
			Relations: map[string]subgraph.RelationDef{
				"pool": {Entity: "Pool"},
			},
		},
	}
}

func TestNew(t *testing.T) {
	c, err := New(testDefs())
	require.NoError(t, err)

	require.Equal(t, []string{"Mint", "Pool", "Token"}, c.EntityTypes())
	require.True(t, c.Has("Pool"))
	require.False(t, c.Has("Swap"))

	fields, err := c.Fields("Pool")
	require.NoError(t, err)
	require.Equal(t, []string{"id", "token0", "liquidity", "createdAtTimestamp", "active"}, fields)

	ft, err := c.FieldType("Token", "derivedETH")
	require.NoError(t, err)
	require.Equal(t, subgraph.TypeBigDecimal, ft)

	_, err = c.FieldType("Token", "nope")
	require.ErrorIs(t, err, ErrUnknownField)

	_, err = c.Fields("Swap")
	require.ErrorIs(t, err, ErrUnknownEntityType)

	rel, ok := c.Relation("Pool", "mints")
	require.True(t, ok)
	require.True(t, rel.IsDerived)
	require.Equal(t, "pool", rel.Field)
	require.Len(t, c.Relations("Pool"), 2)
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(defs []subgraph.EntityDef) []subgraph.EntityDef
		wantErr string
	}{
		{
			name: "relation to unknown type",
			mutate: func(defs []subgraph.EntityDef) []subgraph.EntityDef {
				defs[1].Relations["swaps"] = subgraph.RelationDef{Entity: "Swap", IsArray: true, IsDerived: true, Field: "pool"}
				return defs
			},
			wantErr: "unknown entity type",
		},
		{
			name: "derived field missing on target",
			mutate: func(defs []subgraph.EntityDef) []subgraph.EntityDef {
				defs[1].Relations["mints"] = subgraph.RelationDef{Entity: "Mint", IsArray: true, IsDerived: true, Field: "owner"}
				return defs
			},
			wantErr: "unknown field",
		},
		{
			name: "missing id",
			mutate: func(defs []subgraph.EntityDef) []subgraph.EntityDef {
				defs[2].Fields = defs[2].Fields[1:]
				return defs
			},
			wantErr: "field id of type ID is required",
		},
		{
			name: "duplicate type",
			mutate: func(defs []subgraph.EntityDef) []subgraph.EntityDef {
				return append(defs, defs[0])
			},
			wantErr: "duplicate entity type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.mutate(testDefs()))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNormalize(t *testing.T) {
	c, err := New(testDefs())
	require.NoError(t, err)

	token0 := common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

	got, err := c.Normalize("Pool", subgraph.Entity{
		"id":                 "0xpool",
		"token0":             token0,
		"liquidity":          big.NewInt(1_000_000),
		"createdAtTimestamp": uint64(1620157956),
		"active":             true,
	})
	require.NoError(t, err)
	require.Equal(t, subgraph.Entity{
		"id":                 "0xpool",
		"token0":             "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		"liquidity":          "1000000",
		"createdAtTimestamp": int64(1620157956),
		"active":             true,
	}, got)

	// Values read back from JSON normalize to the same representation.
	again, err := c.Normalize("Pool", subgraph.Entity{
		"id":                 "0xpool",
		"token0":             "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
		"liquidity":          json.Number("1000000"),
		"createdAtTimestamp": json.Number("1620157956"),
		"active":             true,
	})
	require.NoError(t, err)
	require.Equal(t, got, again)

	tok, err := c.Normalize("Token", subgraph.Entity{
		"id":             "0xtoken",
		"derivedETH":     decimal.RequireFromString("0.0500"),
		"decimals":       "18",
		"whitelistPools": []string{"0xa", "0xb"},
	})
	require.NoError(t, err)
	require.Equal(t, "0.05", tok["derivedETH"])
	require.Equal(t, "18", tok["decimals"])
	require.Equal(t, []any{"0xa", "0xb"}, tok["whitelistPools"])
}

func TestNormalize_Errors(t *testing.T) {
	c, err := New(testDefs())
	require.NoError(t, err)

	tests := []struct {
		name       string
		entityType string
		entity     subgraph.Entity
		wantErr    string
	}{
		{"unknown type", "Swap", subgraph.Entity{"id": "1"}, "unknown entity type"},
		{"unknown field", "Pool", subgraph.Entity{"id": "1", "fee": "3000"}, "unknown field"},
		{"missing id", "Pool", subgraph.Entity{"liquidity": "1"}, "missing id"},
		{"bad bigint", "Pool", subgraph.Entity{"id": "1", "liquidity": "1.5"}, "invalid BigInt"},
		{"bad bool", "Pool", subgraph.Entity{"id": "1", "active": "yes"}, "expected bool"},
		{"bad decimal", "Token", subgraph.Entity{"id": "1", "derivedETH": "abc"}, "can't convert"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Normalize(tt.entityType, tt.entity)
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCompare(t *testing.T) {
	c, err := New(testDefs())
	require.NoError(t, err)

	cmp, err := c.Compare("Pool", "liquidity", "900", "1000")
	require.NoError(t, err)
	require.Equal(t, -1, cmp, "BigInt compares numerically")

	cmp, err = c.Compare("Token", "symbol", "WETH", "DAI")
	require.NoError(t, err)
	require.Equal(t, 1, cmp)

	cmp, err = c.Compare("Token", "derivedETH", "0.10", "0.1")
	require.NoError(t, err)
	require.Zero(t, cmp)

	cmp, err = c.Compare("Pool", "createdAtTimestamp", nil, int64(1))
	require.NoError(t, err)
	require.Equal(t, -1, cmp)
}
