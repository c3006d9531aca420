package uniswap

import "github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"

// Entity type names.
const (
	EntityFactory          = "Factory"
	EntityBundle           = "Bundle"
	EntityToken            = "Token"
	EntityPool             = "Pool"
	EntityTick             = "Tick"
	EntityPosition         = "Position"
	EntityPositionSnapshot = "PositionSnapshot"
	EntityTransaction      = "Transaction"
	EntityMint             = "Mint"
	EntityBurn             = "Burn"
	EntitySwap             = "Swap"
	EntityCollect          = "Collect"
	EntityFlash            = "Flash"
	EntityUniswapDayData   = "UniswapDayData"
	EntityPoolDayData      = "PoolDayData"
	EntityPoolHourData     = "PoolHourData"
	EntityTickHourData     = "TickHourData"
	EntityTickDayData      = "TickDayData"
	EntityTokenDayData     = "TokenDayData"
	EntityTokenHourData    = "TokenHourData"
	EntityIncreaseEvent    = "IncreaseEvent"
	EntityDecreaseEvent    = "DecreaseEvent"
)

// Entities returns the entity catalog of the Uniswap v3 subgraph.
func Entities() []subgraph.EntityDef {
	return []subgraph.EntityDef{
		{
			Name: EntityFactory,
			Fields: fields(
				"id", subgraph.TypeID,
				"poolCount", subgraph.TypeBigInt,
				"txCount", subgraph.TypeBigInt,
				"totalVolumeUSD", subgraph.TypeBigDecimal,
				"totalVolumeETH", subgraph.TypeBigDecimal,
				"totalFeesUSD", subgraph.TypeBigDecimal,
				"totalFeesETH", subgraph.TypeBigDecimal,
				"untrackedVolumeUSD", subgraph.TypeBigDecimal,
				"totalValueLockedUSD", subgraph.TypeBigDecimal,
				"totalValueLockedETH", subgraph.TypeBigDecimal,
				"totalValueLockedUSDUntracked", subgraph.TypeBigDecimal,
				"totalValueLockedETHUntracked", subgraph.TypeBigDecimal,
				"owner", subgraph.TypeID,
			),
		},
		{
			Name: EntityBundle,
			Fields: fields(
				"id", subgraph.TypeID,
				"ethPriceUSD", subgraph.TypeBigDecimal,
			),
		},
		{
			Name: EntityToken,
			Fields: fields(
				"id", subgraph.TypeID,
				"symbol", subgraph.TypeString,
				"name", subgraph.TypeString,
				"decimals", subgraph.TypeBigInt,
				"totalSupply", subgraph.TypeBigInt,
				"volume", subgraph.TypeBigDecimal,
				"volumeUSD", subgraph.TypeBigDecimal,
				"untrackedVolumeUSD", subgraph.TypeBigDecimal,
				"feesUSD", subgraph.TypeBigDecimal,
				"txCount", subgraph.TypeBigInt,
				"poolCount", subgraph.TypeBigInt,
				"totalValueLocked", subgraph.TypeBigDecimal,
				"totalValueLockedUSD", subgraph.TypeBigDecimal,
				"totalValueLockedUSDUntracked", subgraph.TypeBigDecimal,
				"derivedETH", subgraph.TypeBigDecimal,
				"whitelistPools", EntityPool,
			),
			Relations: map[string]subgraph.RelationDef{
				"whitelistPools": refs(EntityPool),
				"tokenDayData":   derived(EntityTokenDayData, "token"),
			},
		},
		{
			Name: EntityPool,
			Fields: fields(
				"id", subgraph.TypeID,
				"createdAtTimestamp", subgraph.TypeBigInt,
				"createdAtBlockNumber", subgraph.TypeBigInt,
				"token0", EntityToken,
				"token1", EntityToken,
				"feeTier", subgraph.TypeBigInt,
				"liquidity", subgraph.TypeBigInt,
				"sqrtPrice", subgraph.TypeBigInt,
				"feeGrowthGlobal0X128", subgraph.TypeBigInt,
				"feeGrowthGlobal1X128", subgraph.TypeBigInt,
				"token0Price", subgraph.TypeBigDecimal,
				"token1Price", subgraph.TypeBigDecimal,
				"tick", subgraph.TypeBigInt,
				"observationIndex", subgraph.TypeBigInt,
				"volumeToken0", subgraph.TypeBigDecimal,
				"volumeToken1", subgraph.TypeBigDecimal,
				"volumeUSD", subgraph.TypeBigDecimal,
				"untrackedVolumeUSD", subgraph.TypeBigDecimal,
				"feesUSD", subgraph.TypeBigDecimal,
				"txCount", subgraph.TypeBigInt,
				"collectedFeesToken0", subgraph.TypeBigDecimal,
				"collectedFeesToken1", subgraph.TypeBigDecimal,
				"collectedFeesUSD", subgraph.TypeBigDecimal,
				"totalValueLockedToken0", subgraph.TypeBigDecimal,
				"totalValueLockedToken1", subgraph.TypeBigDecimal,
				"totalValueLockedETH", subgraph.TypeBigDecimal,
				"totalValueLockedUSD", subgraph.TypeBigDecimal,
				"totalValueLockedUSDUntracked", subgraph.TypeBigDecimal,
				"liquidityProviderCount", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"token0":       ref(EntityToken),
				"token1":       ref(EntityToken),
				"poolHourData": derived(EntityPoolHourData, "pool"),
				"poolDayData":  derived(EntityPoolDayData, "pool"),
				"mints":        derived(EntityMint, "pool"),
				"burns":        derived(EntityBurn, "pool"),
				"swaps":        derived(EntitySwap, "pool"),
				"collects":     derived(EntityCollect, "pool"),
				"ticks":        derived(EntityTick, "pool"),
			},
		},
		{
			Name: EntityTick,
			Fields: fields(
				"id", subgraph.TypeID,
				"poolAddress", subgraph.TypeString,
				"tickIdx", subgraph.TypeBigInt,
				"pool", EntityPool,
				"liquidityGross", subgraph.TypeBigInt,
				"liquidityNet", subgraph.TypeBigInt,
				"price0", subgraph.TypeBigDecimal,
				"price1", subgraph.TypeBigDecimal,
				"volumeToken0", subgraph.TypeBigDecimal,
				"volumeToken1", subgraph.TypeBigDecimal,
				"volumeUSD", subgraph.TypeBigDecimal,
				"untrackedVolumeUSD", subgraph.TypeBigDecimal,
				"feesUSD", subgraph.TypeBigDecimal,
				"collectedFeesToken0", subgraph.TypeBigDecimal,
				"collectedFeesToken1", subgraph.TypeBigDecimal,
				"collectedFeesUSD", subgraph.TypeBigDecimal,
				"createdAtTimestamp", subgraph.TypeBigInt,
				"createdAtBlockNumber", subgraph.TypeBigInt,
				"liquidityProviderCount", subgraph.TypeBigInt,
				"feeGrowthOutside0X128", subgraph.TypeBigInt,
				"feeGrowthOutside1X128", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"pool": ref(EntityPool),
			},
		},
		{
			Name: EntityPosition,
			Fields: fields(
				"id", subgraph.TypeID,
				"owner", subgraph.TypeBytes,
				"pool", EntityPool,
				"token0", EntityToken,
				"token1", EntityToken,
				"tickLower", EntityTick,
				"tickUpper", EntityTick,
				"liquidity", subgraph.TypeBigInt,
				"depositedToken0", subgraph.TypeBigDecimal,
				"depositedToken1", subgraph.TypeBigDecimal,
				"withdrawnToken0", subgraph.TypeBigDecimal,
				"withdrawnToken1", subgraph.TypeBigDecimal,
				"collectedToken0", subgraph.TypeBigDecimal,
				"collectedToken1", subgraph.TypeBigDecimal,
				"collectedFeesToken0", subgraph.TypeBigDecimal,
				"collectedFeesToken1", subgraph.TypeBigDecimal,
				"amountDepositedUSD", subgraph.TypeBigDecimal,
				"amountWithdrawnUSD", subgraph.TypeBigDecimal,
				"amountCollectedUSD", subgraph.TypeBigDecimal,
				"transaction", EntityTransaction,
				"feeGrowthInside0LastX128", subgraph.TypeBigInt,
				"feeGrowthInside1LastX128", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"pool":           ref(EntityPool),
				"token0":         ref(EntityToken),
				"token1":         ref(EntityToken),
				"tickLower":      ref(EntityTick),
				"tickUpper":      ref(EntityTick),
				"transaction":    ref(EntityTransaction),
				"increaseEvents": derived(EntityIncreaseEvent, "position"),
				"decreaseEvents": derived(EntityDecreaseEvent, "position"),
			},
		},
		{
			Name: EntityPositionSnapshot,
			Fields: fields(
				"id", subgraph.TypeID,
				"owner", subgraph.TypeBytes,
				"pool", EntityPool,
				"position", EntityPosition,
				"blockNumber", subgraph.TypeBigInt,
				"timestamp", subgraph.TypeBigInt,
				"liquidity", subgraph.TypeBigInt,
				"depositedToken0", subgraph.TypeBigDecimal,
				"depositedToken1", subgraph.TypeBigDecimal,
				"withdrawnToken0", subgraph.TypeBigDecimal,
				"withdrawnToken1", subgraph.TypeBigDecimal,
				"collectedFeesToken0", subgraph.TypeBigDecimal,
				"collectedFeesToken1", subgraph.TypeBigDecimal,
				"transaction", EntityTransaction,
				"feeGrowthInside0LastX128", subgraph.TypeBigInt,
				"feeGrowthInside1LastX128", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"pool":        ref(EntityPool),
				"position":    ref(EntityPosition),
				"transaction": ref(EntityTransaction),
			},
		},
		{
			Name: EntityTransaction,
			Fields: fields(
				"id", subgraph.TypeID,
				"blockNumber", subgraph.TypeBigInt,
				"timestamp", subgraph.TypeBigInt,
				"gasUsed", subgraph.TypeBigInt,
				"gasPrice", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"mints":    derived(EntityMint, "transaction"),
				"burns":    derived(EntityBurn, "transaction"),
				"swaps":    derived(EntitySwap, "transaction"),
				"flashed":  derived(EntityFlash, "transaction"),
				"collects": derived(EntityCollect, "transaction"),
			},
		},
		{
			Name: EntityMint,
			Fields: fields(
				"id", subgraph.TypeID,
				"transaction", EntityTransaction,
				"timestamp", subgraph.TypeBigInt,
				"pool", EntityPool,
				"token0", EntityToken,
				"token1", EntityToken,
				"owner", subgraph.TypeBytes,
				"sender", subgraph.TypeBytes,
				"origin", subgraph.TypeBytes,
				"amount", subgraph.TypeBigInt,
				"amount0", subgraph.TypeBigDecimal,
				"amount1", subgraph.TypeBigDecimal,
				"amountUSD", subgraph.TypeBigDecimal,
				"tickLower", subgraph.TypeBigInt,
				"tickUpper", subgraph.TypeBigInt,
				"logIndex", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"transaction": ref(EntityTransaction),
				"pool":        ref(EntityPool),
				"token0":      ref(EntityToken),
				"token1":      ref(EntityToken),
			},
		},
		{
			Name: EntityBurn,
			Fields: fields(
				"id", subgraph.TypeID,
				"transaction", EntityTransaction,
				"pool", EntityPool,
				"token0", EntityToken,
				"token1", EntityToken,
				"timestamp", subgraph.TypeBigInt,
				"owner", subgraph.TypeBytes,
				"origin", subgraph.TypeBytes,
				"amount", subgraph.TypeBigInt,
				"amount0", subgraph.TypeBigDecimal,
				"amount1", subgraph.TypeBigDecimal,
				"amountUSD", subgraph.TypeBigDecimal,
				"tickLower", subgraph.TypeBigInt,
				"tickUpper", subgraph.TypeBigInt,
				"logIndex", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"transaction": ref(EntityTransaction),
				"pool":        ref(EntityPool),
				"token0":      ref(EntityToken),
				"token1":      ref(EntityToken),
			},
		},
		{
			Name: EntitySwap,
			Fields: fields(
				"id", subgraph.TypeID,
				"transaction", EntityTransaction,
				"timestamp", subgraph.TypeBigInt,
				"pool", EntityPool,
				"token0", EntityToken,
				"token1", EntityToken,
				"sender", subgraph.TypeBytes,
				"recipient", subgraph.TypeBytes,
				"origin", subgraph.TypeBytes,
				"amount0", subgraph.TypeBigDecimal,
				"amount1", subgraph.TypeBigDecimal,
				"amountUSD", subgraph.TypeBigDecimal,
				"sqrtPriceX96", subgraph.TypeBigInt,
				"tick", subgraph.TypeBigInt,
				"logIndex", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"transaction": ref(EntityTransaction),
				"pool":        ref(EntityPool),
				"token0":      ref(EntityToken),
				"token1":      ref(EntityToken),
			},
		},
		{
			Name: EntityCollect,
			Fields: fields(
				"id", subgraph.TypeID,
				"transaction", EntityTransaction,
				"timestamp", subgraph.TypeBigInt,
				"pool", EntityPool,
				"owner", subgraph.TypeBytes,
				"amount0", subgraph.TypeBigDecimal,
				"amount1", subgraph.TypeBigDecimal,
				"amountUSD", subgraph.TypeBigDecimal,
				"tickLower", subgraph.TypeBigInt,
				"tickUpper", subgraph.TypeBigInt,
				"logIndex", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"transaction": ref(EntityTransaction),
				"pool":        ref(EntityPool),
			},
		},
		{
			Name: EntityFlash,
			Fields: fields(
				"id", subgraph.TypeID,
				"transaction", EntityTransaction,
				"timestamp", subgraph.TypeBigInt,
				"pool", EntityPool,
				"sender", subgraph.TypeBytes,
				"recipient", subgraph.TypeBytes,
				"amount0", subgraph.TypeBigDecimal,
				"amount1", subgraph.TypeBigDecimal,
				"amountUSD", subgraph.TypeBigDecimal,
				"amount0Paid", subgraph.TypeBigDecimal,
				"amount1Paid", subgraph.TypeBigDecimal,
				"logIndex", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"transaction": ref(EntityTransaction),
				"pool":        ref(EntityPool),
			},
		},
		{
			Name: EntityUniswapDayData,
			Fields: fields(
				"id", subgraph.TypeID,
				"date", subgraph.TypeInt,
				"volumeETH", subgraph.TypeBigDecimal,
				"volumeUSD", subgraph.TypeBigDecimal,
				"volumeUSDUntracked", subgraph.TypeBigDecimal,
				"feesUSD", subgraph.TypeBigDecimal,
				"txCount", subgraph.TypeBigInt,
				"tvlUSD", subgraph.TypeBigDecimal,
			),
		},
		{
			Name: EntityPoolDayData,
			Fields: fields(
				"id", subgraph.TypeID,
				"date", subgraph.TypeInt,
				"pool", EntityPool,
				"liquidity", subgraph.TypeBigInt,
				"sqrtPrice", subgraph.TypeBigInt,
				"token0Price", subgraph.TypeBigDecimal,
				"token1Price", subgraph.TypeBigDecimal,
				"tick", subgraph.TypeBigInt,
				"feeGrowthGlobal0X128", subgraph.TypeBigInt,
				"feeGrowthGlobal1X128", subgraph.TypeBigInt,
				"tvlUSD", subgraph.TypeBigDecimal,
				"volumeToken0", subgraph.TypeBigDecimal,
				"volumeToken1", subgraph.TypeBigDecimal,
				"volumeUSD", subgraph.TypeBigDecimal,
				"feesUSD", subgraph.TypeBigDecimal,
				"txCount", subgraph.TypeBigInt,
				"open", subgraph.TypeBigDecimal,
				"high", subgraph.TypeBigDecimal,
				"low", subgraph.TypeBigDecimal,
				"close", subgraph.TypeBigDecimal,
			),
			Relations: map[string]subgraph.RelationDef{
				"pool": ref(EntityPool),
			},
		},
		{
			Name: EntityPoolHourData,
			Fields: fields(
				"id", subgraph.TypeID,
				"periodStartUnix", subgraph.TypeInt,
				"pool", EntityPool,
				"liquidity", subgraph.TypeBigInt,
				"sqrtPrice", subgraph.TypeBigInt,
				"token0Price", subgraph.TypeBigDecimal,
				"token1Price", subgraph.TypeBigDecimal,
				"tick", subgraph.TypeBigInt,
				"feeGrowthGlobal0X128", subgraph.TypeBigInt,
				"feeGrowthGlobal1X128", subgraph.TypeBigInt,
				"tvlUSD", subgraph.TypeBigDecimal,
				"volumeToken0", subgraph.TypeBigDecimal,
				"volumeToken1", subgraph.TypeBigDecimal,
				"volumeUSD", subgraph.TypeBigDecimal,
				"feesUSD", subgraph.TypeBigDecimal,
				"txCount", subgraph.TypeBigInt,
				"open", subgraph.TypeBigDecimal,
				"high", subgraph.TypeBigDecimal,
				"low", subgraph.TypeBigDecimal,
				"close", subgraph.TypeBigDecimal,
			),
			Relations: map[string]subgraph.RelationDef{
				"pool": ref(EntityPool),
			},
		},
		{
			Name: EntityTickHourData,
			Fields: fields(
				"id", subgraph.TypeID,
				"periodStartUnix", subgraph.TypeInt,
				"pool", EntityPool,
				"tick", EntityTick,
				"liquidityGross", subgraph.TypeBigInt,
				"liquidityNet", subgraph.TypeBigInt,
				"volumeToken0", subgraph.TypeBigDecimal,
				"volumeToken1", subgraph.TypeBigDecimal,
				"volumeUSD", subgraph.TypeBigDecimal,
				"feesUSD", subgraph.TypeBigDecimal,
			),
			Relations: map[string]subgraph.RelationDef{
				"pool": ref(EntityPool),
				"tick": ref(EntityTick),
			},
		},
		{
			Name: EntityTickDayData,
			Fields: fields(
				"id", subgraph.TypeID,
				"date", subgraph.TypeInt,
				"pool", EntityPool,
				"tick", EntityTick,
				"liquidityGross", subgraph.TypeBigInt,
				"liquidityNet", subgraph.TypeBigInt,
				"volumeToken0", subgraph.TypeBigDecimal,
				"volumeToken1", subgraph.TypeBigDecimal,
				"volumeUSD", subgraph.TypeBigDecimal,
				"feesUSD", subgraph.TypeBigDecimal,
				"feeGrowthOutside0X128", subgraph.TypeBigInt,
				"feeGrowthOutside1X128", subgraph.TypeBigInt,
			),
			Relations: map[string]subgraph.RelationDef{
				"pool": ref(EntityPool),
				"tick": ref(EntityTick),
			},
		},
		{
			Name: EntityTokenDayData,
			Fields: fields(
				"id", subgraph.TypeID,
				"date", subgraph.TypeInt,
				"token", EntityToken,
				"volume", subgraph.TypeBigDecimal,
				"volumeUSD", subgraph.TypeBigDecimal,
				"untrackedVolumeUSD", subgraph.TypeBigDecimal,
				"totalValueLocked", subgraph.TypeBigDecimal,
				"totalValueLockedUSD", subgraph.TypeBigDecimal,
				"priceUSD", subgraph.TypeBigDecimal,
				"feesUSD", subgraph.TypeBigDecimal,
				"open", subgraph.TypeBigDecimal,
				"high", subgraph.TypeBigDecimal,
				"low", subgraph.TypeBigDecimal,
				"close", subgraph.TypeBigDecimal,
			),
			Relations: map[string]subgraph.RelationDef{
				"token": ref(EntityToken),
			},
		},
		{
			Name: EntityTokenHourData,
			Fields: fields(
				"id", subgraph.TypeID,
				"periodStartUnix", subgraph.TypeInt,
				"token", EntityToken,
				"volume", subgraph.TypeBigDecimal,
				"volumeUSD", subgraph.TypeBigDecimal,
				"untrackedVolumeUSD", subgraph.TypeBigDecimal,
				"totalValueLocked", subgraph.TypeBigDecimal,
				"totalValueLockedUSD", subgraph.TypeBigDecimal,
				"priceUSD", subgraph.TypeBigDecimal,
				"feesUSD", subgraph.TypeBigDecimal,
				"open", subgraph.TypeBigDecimal,
				"high", subgraph.TypeBigDecimal,
				"low", subgraph.TypeBigDecimal,
				"close", subgraph.TypeBigDecimal,
			),
			Relations: map[string]subgraph.RelationDef{
				"token": ref(EntityToken),
			},
		},
		{
			Name: EntityIncreaseEvent,
			Fields: fields(
				"id", subgraph.TypeID,
				"pool", EntityPool,
				"tokenID", subgraph.TypeBigInt,
				"position", EntityPosition,
				"amount0", subgraph.TypeBigInt,
				"amount1", subgraph.TypeBigInt,
				"token0", EntityToken,
				"token1", EntityToken,
				"timeStamp", subgraph.TypeBigInt,
				"transaction", EntityTransaction,
			),
			Relations: map[string]subgraph.RelationDef{
				"pool":        ref(EntityPool),
				"position":    ref(EntityPosition),
				"token0":      ref(EntityToken),
				"token1":      ref(EntityToken),
				"transaction": ref(EntityTransaction),
			},
		},
		{
			Name: EntityDecreaseEvent,
			Fields: fields(
				"id", subgraph.TypeID,
				"pool", EntityPool,
				"tokenID", subgraph.TypeBigInt,
				"position", EntityPosition,
				"amount0", subgraph.TypeBigInt,
				"amount1", subgraph.TypeBigInt,
				"token0", EntityToken,
				"token1", EntityToken,
				"timeStamp", subgraph.TypeBigInt,
				"transaction", EntityTransaction,
			),
			Relations: map[string]subgraph.RelationDef{
				"pool":        ref(EntityPool),
				"position":    ref(EntityPosition),
				"token0":      ref(EntityToken),
				"token1":      ref(EntityToken),
				"transaction": ref(EntityTransaction),
			},
		},
	}
}

// fields builds field definitions from name/type pairs.
func fields(pairs ...string) []subgraph.FieldDef {
	defs := make([]subgraph.FieldDef, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		defs = append(defs, subgraph.FieldDef{Name: pairs[i], Type: pairs[i+1]})
	}
	return defs
}

func ref(entity string) subgraph.RelationDef {
	return subgraph.RelationDef{Entity: entity}
}

func refs(entity string) subgraph.RelationDef {
	return subgraph.RelationDef{Entity: entity, IsArray: true}
}

func derived(entity, field string) subgraph.RelationDef {
	return subgraph.RelationDef{Entity: entity, IsArray: true, IsDerived: true, Field: field}
}
