package uniswap

import (
	"math"
	"math/big"

	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/shopspring/decimal"
)

// q192 is 2^192, the scale of a squared Q64.96 price.
var q192 = decimal.NewFromBigInt(new(big.Int).Lsh(big1, 192), 0) //nolint:mnd

// tickPrice returns 1.0001^tick, the price of token0 in token1 at a tick.
func tickPrice(tickIdx *big.Int) decimal.Decimal {
	if !tickIdx.IsInt64() {
		return decimal.Zero
	}
	p := math.Pow(1.0001, float64(tickIdx.Int64())) //nolint:mnd
	if math.IsInf(p, 0) || math.IsNaN(p) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(p)
}

// sqrtPriceToTokenPrices converts a pool's sqrtPriceX96 into the price of
// token0 in token1 units and the other way round, adjusted for decimals.
func sqrtPriceToTokenPrices(sqrtPriceX96 *big.Int, token0, token1 subgraph.Entity) (decimal.Decimal, decimal.Decimal) {
	if sqrtPriceX96.Sign() == 0 {
		return decimal.Zero, decimal.Zero
	}

	sqrt := decimal.NewFromBigInt(sqrtPriceX96, 0)
	price1 := sqrt.Mul(sqrt).Div(q192).
		Shift(int32(bigField(token0, "decimals").Int64()) - int32(bigField(token1, "decimals").Int64())) //nolint:gosec
	if price1.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	price0 := decimal.NewFromInt(1).Div(price1)
	return price0, price1
}
