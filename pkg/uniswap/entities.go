package uniswap

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/shopspring/decimal"
)

// bundleID is the id of the single Bundle entity.
const bundleID = "1"

var big1 = big.NewInt(1)

// addressID renders an address the way entity ids and references store it.
func addressID(a common.Address) string {
	return strings.ToLower(a.Hex())
}

// eventID identifies an entity created by one log.
func eventID(event *subgraph.ResultEvent) string {
	return fmt.Sprintf("%s#%d", strings.ToLower(event.TxHash.Hex()), event.LogIndex)
}

// load returns a mutable copy of an entity as seen from the event's block.
func load(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent,
	entityType, id string) (subgraph.Entity, bool, error) {
	e, err := idx.GetEntity(ctx, entityType, id, event.Block.Hash)
	if errors.Is(err, subgraph.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load %s %s: %w", entityType, id, err)
	}
	return e.Clone(), true, nil
}

func save(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent,
	entityType string, e subgraph.Entity) error {
	if err := idx.SaveEntity(ctx, event.Contract, event.Block.Hash, entityType, e); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", entityType, e.ID(), err)
	}
	return nil
}

func bigField(e subgraph.Entity, field string) *big.Int {
	v, ok := new(big.Int).SetString(e.String(field), 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

func decField(e subgraph.Entity, field string) decimal.Decimal {
	d, err := decimal.NewFromString(e.String(field))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func addBig(e subgraph.Entity, field string, delta *big.Int) {
	e[field] = new(big.Int).Add(bigField(e, field), delta)
}

func subBig(e subgraph.Entity, field string, delta *big.Int) {
	e[field] = new(big.Int).Sub(bigField(e, field), delta)
}

func addDec(e subgraph.Entity, field string, delta decimal.Decimal) {
	e[field] = decField(e, field).Add(delta)
}

func subDec(e subgraph.Entity, field string, delta decimal.Decimal) {
	e[field] = decField(e, field).Sub(delta)
}

func incr(e subgraph.Entity, fields ...string) {
	for _, f := range fields {
		addBig(e, f, big1)
	}
}

// zero sets fields to zero. BigInt and BigDecimal fields both accept "0".
func zero(e subgraph.Entity, fields ...string) {
	for _, f := range fields {
		e[f] = "0"
	}
}

// tokenAmount converts a raw token amount to units of token, using its decimals.
func tokenAmount(amount *big.Int, token subgraph.Entity) decimal.Decimal {
	var decimals int64
	if token != nil {
		decimals = bigField(token, "decimals").Int64()
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)) //nolint:gosec
}

// appendRef adds id to a list reference unless it is already there.
func appendRef(e subgraph.Entity, field, id string) {
	var list []any
	if current, ok := e[field].([]any); ok {
		list = current
	}
	for _, existing := range list {
		if existing == id {
			return
		}
	}
	e[field] = append(list, id)
}

func newFactory(id string) subgraph.Entity {
	e := subgraph.Entity{
		"id":    id,
		"owner": addressID(common.Address{}),
	}
	zero(e, "poolCount", "txCount", "totalVolumeUSD", "totalVolumeETH", "totalFeesUSD", "totalFeesETH",
		"untrackedVolumeUSD", "totalValueLockedUSD", "totalValueLockedETH",
		"totalValueLockedUSDUntracked", "totalValueLockedETHUntracked")
	return e
}

func newToken(id string, info TokenInfo) subgraph.Entity {
	e := subgraph.Entity{
		"id":             id,
		"symbol":         info.Symbol,
		"name":           info.Name,
		"decimals":       info.Decimals,
		"totalSupply":    info.TotalSupply,
		"whitelistPools": []any{},
	}
	zero(e, "volume", "volumeUSD", "untrackedVolumeUSD", "feesUSD", "txCount", "poolCount",
		"totalValueLocked", "totalValueLockedUSD", "totalValueLockedUSDUntracked", "derivedETH")
	return e
}

func newPool(id string, token0, token1 string, fee *big.Int, block subgraph.BlockInfo) subgraph.Entity {
	e := subgraph.Entity{
		"id":                   id,
		"token0":               token0,
		"token1":               token1,
		"feeTier":              fee,
		"createdAtTimestamp":   block.Timestamp,
		"createdAtBlockNumber": block.Number,
	}
	zero(e, "liquidity", "sqrtPrice", "feeGrowthGlobal0X128", "feeGrowthGlobal1X128",
		"token0Price", "token1Price", "observationIndex", "volumeToken0", "volumeToken1",
		"volumeUSD", "untrackedVolumeUSD", "feesUSD", "txCount",
		"collectedFeesToken0", "collectedFeesToken1", "collectedFeesUSD",
		"totalValueLockedToken0", "totalValueLockedToken1", "totalValueLockedETH",
		"totalValueLockedUSD", "totalValueLockedUSDUntracked", "liquidityProviderCount")
	return e
}

func tickID(poolID string, tickIdx *big.Int) string {
	return poolID + "#" + tickIdx.String()
}

func newTick(poolID string, tickIdx *big.Int, block subgraph.BlockInfo) subgraph.Entity {
	price0 := tickPrice(tickIdx)
	price1 := decimal.Zero
	if !price0.IsZero() {
		price1 = decimal.NewFromInt(1).Div(price0)
	}

	e := subgraph.Entity{
		"id":                   tickID(poolID, tickIdx),
		"poolAddress":          poolID,
		"pool":                 poolID,
		"tickIdx":              tickIdx,
		"price0":               price0,
		"price1":               price1,
		"createdAtTimestamp":   block.Timestamp,
		"createdAtBlockNumber": block.Number,
	}
	zero(e, "liquidityGross", "liquidityNet", "volumeToken0", "volumeToken1", "volumeUSD",
		"untrackedVolumeUSD", "feesUSD", "collectedFeesToken0", "collectedFeesToken1",
		"collectedFeesUSD", "liquidityProviderCount", "feeGrowthOutside0X128", "feeGrowthOutside1X128")
	return e
}

func newPosition(id string, info *PositionInfo) subgraph.Entity {
	e := subgraph.Entity{
		"id":    id,
		"owner": addressID(common.Address{}),
	}
	zero(e, "liquidity", "depositedToken0", "depositedToken1", "withdrawnToken0", "withdrawnToken1",
		"collectedToken0", "collectedToken1", "collectedFeesToken0", "collectedFeesToken1",
		"amountDepositedUSD", "amountWithdrawnUSD", "amountCollectedUSD",
		"feeGrowthInside0LastX128", "feeGrowthInside1LastX128")

	if info != nil {
		poolID := addressID(info.Pool)
		e["pool"] = poolID
		e["token0"] = addressID(info.Token0)
		e["token1"] = addressID(info.Token1)
		e["tickLower"] = tickID(poolID, info.TickLower)
		e["tickUpper"] = tickID(poolID, info.TickUpper)
		e["feeGrowthInside0LastX128"] = info.FeeGrowthInside0LastX128
		e["feeGrowthInside1LastX128"] = info.FeeGrowthInside1LastX128
	}
	return e
}

// transaction loads or creates the Transaction entity of the event's transaction.
func transaction(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) (subgraph.Entity, error) {
	id := strings.ToLower(event.TxHash.Hex())
	tx, found, err := load(ctx, idx, event, EntityTransaction, id)
	if err != nil {
		return nil, err
	}
	if !found {
		tx = subgraph.Entity{
			"id":          id,
			"blockNumber": event.Block.Number,
			"timestamp":   event.Block.Timestamp,
		}
		zero(tx, "gasUsed", "gasPrice")
	}
	if err := save(ctx, idx, event, EntityTransaction, tx); err != nil {
		return nil, err
	}
	return tx, nil
}
