package uniswap

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/shopspring/decimal"
)

const (
	secondsPerDay  = 86400
	secondsPerHour = 3600
)

// poolSnapshotFields are copied from the pool into its interval data.
var poolSnapshotFields = []string{
	"liquidity", "sqrtPrice", "token0Price", "token1Price", "tick",
	"feeGrowthGlobal0X128", "feeGrowthGlobal1X128",
}

// updateIntervals rolls an event of pool into the day and hour aggregates.
// volume0 and volume1 are the token volumes the event adds.
func updateIntervals(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent,
	pool subgraph.Entity, volume0, volume1 decimal.Decimal) error {
	ts := event.Block.Timestamp
	day := ts / secondsPerDay
	hour := ts / secondsPerHour

	for _, iv := range []struct {
		entityType string
		startField string
		id         string
		start      uint64
	}{
		{EntityPoolDayData, "date", fmt.Sprintf("%s-%d", pool.ID(), day), day * secondsPerDay},
		{EntityPoolHourData, "periodStartUnix", fmt.Sprintf("%s-%d", pool.ID(), hour), hour * secondsPerHour},
	} {
		data, found, err := load(ctx, idx, event, iv.entityType, iv.id)
		if err != nil {
			return err
		}

		price := decField(pool, "token0Price")
		if !found {
			data = subgraph.Entity{
				"id":          iv.id,
				iv.startField: iv.start,
				"pool":        pool.ID(),
				"open":        price,
				"high":        price,
				"low":         price,
			}
			zero(data, "volumeToken0", "volumeToken1", "volumeUSD", "feesUSD", "txCount", "tvlUSD")
		}

		if price.GreaterThan(decField(data, "high")) {
			data["high"] = price
		}
		if price.LessThan(decField(data, "low")) {
			data["low"] = price
		}
		data["close"] = price
		for _, f := range poolSnapshotFields {
			data[f] = pool[f]
		}
		data["tvlUSD"] = pool["totalValueLockedUSD"]
		addDec(data, "volumeToken0", volume0)
		addDec(data, "volumeToken1", volume1)
		incr(data, "txCount")

		if err := save(ctx, idx, event, iv.entityType, data); err != nil {
			return err
		}
	}

	return updateUniswapDayData(ctx, idx, event, day)
}

func updateUniswapDayData(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent, day uint64) error {
	id := strconv.FormatUint(day, 10)
	data, found, err := load(ctx, idx, event, EntityUniswapDayData, id)
	if err != nil {
		return err
	}
	if !found {
		data = subgraph.Entity{
			"id":   id,
			"date": day * secondsPerDay,
		}
		zero(data, "volumeETH", "volumeUSD", "volumeUSDUntracked", "feesUSD", "txCount", "tvlUSD")
	}
	incr(data, "txCount")
	return save(ctx, idx, event, EntityUniswapDayData, data)
}
