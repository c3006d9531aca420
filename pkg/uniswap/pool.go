package uniswap

import (
	"context"
	"math/big"

	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/shopspring/decimal"
)

// PoolHooks handle the events of pools created by a watched factory.
type PoolHooks struct {
	handler
}

// poolState is a pool with its tokens, loaded for one event.
type poolState struct {
	pool   subgraph.Entity
	token0 subgraph.Entity
	token1 subgraph.Entity
}

// HandleEvent applies one pool event.
func (h *PoolHooks) HandleEvent(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) error {
	var handle func(context.Context, hooks.Indexer, *subgraph.ResultEvent, *poolState) error
	switch event.EventName {
	case "Initialize":
		handle = h.initialize
	case "Mint":
		handle = h.mint
	case "Burn":
		handle = h.burn
	case "Swap":
		handle = h.swap
	case "Collect":
		handle = h.collect
	case "Flash":
		handle = h.flash
	default:
		return h.ignore(event)
	}

	state, found, err := h.load(ctx, idx, event)
	if err != nil {
		return err
	}
	if !found {
		h.log.Warnw("event of unknown pool", "pool", addressID(event.Contract),
			"event", event.EventName, "block", event.Block.Number)
		return nil
	}
	return handle(ctx, idx, event, state)
}

func (h *PoolHooks) load(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) (*poolState, bool, error) {
	pool, found, err := load(ctx, idx, event, EntityPool, addressID(event.Contract))
	if err != nil || !found {
		return nil, false, err
	}
	token0, found, err := load(ctx, idx, event, EntityToken, pool.String("token0"))
	if err != nil || !found {
		return nil, false, err
	}
	token1, found, err := load(ctx, idx, event, EntityToken, pool.String("token1"))
	if err != nil || !found {
		return nil, false, err
	}
	return &poolState{pool: pool, token0: token0, token1: token1}, true, nil
}

func (s *poolState) save(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) error {
	if err := save(ctx, idx, event, EntityToken, s.token0); err != nil {
		return err
	}
	if err := save(ctx, idx, event, EntityToken, s.token1); err != nil {
		return err
	}
	return save(ctx, idx, event, EntityPool, s.pool)
}

// inRange reports whether the pool's current tick lies in [lower, upper).
func (s *poolState) inRange(lower, upper *big.Int) bool {
	if s.pool["tick"] == nil {
		return false
	}
	tick := bigField(s.pool, "tick")
	return lower.Cmp(tick) <= 0 && tick.Cmp(upper) < 0
}

// addLocked moves the value locked in the pool and its tokens by the given amounts.
func (s *poolState) addLocked(amount0, amount1 decimal.Decimal) {
	addDec(s.pool, "totalValueLockedToken0", amount0)
	addDec(s.pool, "totalValueLockedToken1", amount1)
	addDec(s.token0, "totalValueLocked", amount0)
	addDec(s.token1, "totalValueLocked", amount1)
}

func (s *poolState) setPrice(sqrtPriceX96, tick *big.Int) {
	price0, price1 := sqrtPriceToTokenPrices(sqrtPriceX96, s.token0, s.token1)
	s.pool["sqrtPrice"] = sqrtPriceX96
	s.pool["tick"] = tick
	s.pool["token0Price"] = price0
	s.pool["token1Price"] = price1
}

// countTx counts the event as a transaction of the pool, its tokens and its
// factory and returns the pool-scoped id of the entity it creates.
func (h *PoolHooks) countTx(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent,
	s *poolState, tx subgraph.Entity) (string, error) {
	incr(s.pool, "txCount")
	incr(s.token0, "txCount")
	incr(s.token1, "txCount")

	if contract, ok := idx.IsWatchedContract(event.Contract); ok {
		if factoryID, _ := contract.Context["factory"].(string); factoryID != "" {
			factory, found, err := load(ctx, idx, event, EntityFactory, factoryID)
			if err != nil {
				return "", err
			}
			if found {
				incr(factory, "txCount")
				if err := save(ctx, idx, event, EntityFactory, factory); err != nil {
					return "", err
				}
			}
		}
	}

	return tx.ID() + "#" + bigField(s.pool, "txCount").String(), nil
}

func (h *PoolHooks) tick(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent,
	poolID string, tickIdx *big.Int) (subgraph.Entity, error) {
	tick, found, err := load(ctx, idx, event, EntityTick, tickID(poolID, tickIdx))
	if err != nil || found {
		return tick, err
	}
	return newTick(poolID, tickIdx, event.Block), nil
}

// updateTicks applies a liquidity change of a position spanning [lower, upper).
func (h *PoolHooks) updateTicks(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent,
	poolID string, lower, upper, liquidity *big.Int) error {
	lowerTick, err := h.tick(ctx, idx, event, poolID, lower)
	if err != nil {
		return err
	}
	addBig(lowerTick, "liquidityGross", liquidity)
	addBig(lowerTick, "liquidityNet", liquidity)
	if err := save(ctx, idx, event, EntityTick, lowerTick); err != nil {
		return err
	}

	upperTick, err := h.tick(ctx, idx, event, poolID, upper)
	if err != nil {
		return err
	}
	addBig(upperTick, "liquidityGross", liquidity)
	subBig(upperTick, "liquidityNet", liquidity)
	return save(ctx, idx, event, EntityTick, upperTick)
}

func (h *PoolHooks) initialize(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent, s *poolState) error {
	args, err := bigArgs(event, "sqrtPriceX96", "tick")
	if err != nil {
		return err
	}
	s.setPrice(args[0], args[1])
	return s.save(ctx, idx, event)
}

func (h *PoolHooks) mint(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent, s *poolState) error {
	owner, err := addressArg(event, "owner")
	if err != nil {
		return err
	}
	sender, err := addressArg(event, "sender")
	if err != nil {
		return err
	}
	args, err := bigArgs(event, "tickLower", "tickUpper", "amount", "amount0", "amount1")
	if err != nil {
		return err
	}
	lower, upper, liquidity := args[0], args[1], args[2]
	amount0, amount1 := tokenAmount(args[3], s.token0), tokenAmount(args[4], s.token1)

	tx, err := transaction(ctx, idx, event)
	if err != nil {
		return err
	}
	id, err := h.countTx(ctx, idx, event, s, tx)
	if err != nil {
		return err
	}

	if s.inRange(lower, upper) {
		addBig(s.pool, "liquidity", liquidity)
	}
	s.addLocked(amount0, amount1)
	if err := s.save(ctx, idx, event); err != nil {
		return err
	}

	if err := save(ctx, idx, event, EntityMint, subgraph.Entity{
		"id":          id,
		"transaction": tx.ID(),
		"timestamp":   event.Block.Timestamp,
		"pool":        s.pool.ID(),
		"token0":      s.token0.ID(),
		"token1":      s.token1.ID(),
		"owner":       owner,
		"sender":      sender,
		"origin":      sender,
		"amount":      liquidity,
		"amount0":     amount0,
		"amount1":     amount1,
		"amountUSD":   "0",
		"tickLower":   lower,
		"tickUpper":   upper,
		"logIndex":    uint64(event.LogIndex),
	}); err != nil {
		return err
	}

	if err := h.updateTicks(ctx, idx, event, s.pool.ID(), lower, upper, liquidity); err != nil {
		return err
	}
	return updateIntervals(ctx, idx, event, s.pool, decimal.Zero, decimal.Zero)
}

func (h *PoolHooks) burn(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent, s *poolState) error {
	owner, err := addressArg(event, "owner")
	if err != nil {
		return err
	}
	args, err := bigArgs(event, "tickLower", "tickUpper", "amount", "amount0", "amount1")
	if err != nil {
		return err
	}
	lower, upper, liquidity := args[0], args[1], args[2]
	amount0, amount1 := tokenAmount(args[3], s.token0), tokenAmount(args[4], s.token1)

	tx, err := transaction(ctx, idx, event)
	if err != nil {
		return err
	}
	id, err := h.countTx(ctx, idx, event, s, tx)
	if err != nil {
		return err
	}

	if s.inRange(lower, upper) {
		subBig(s.pool, "liquidity", liquidity)
	}
	s.addLocked(amount0.Neg(), amount1.Neg())
	if err := s.save(ctx, idx, event); err != nil {
		return err
	}

	if err := save(ctx, idx, event, EntityBurn, subgraph.Entity{
		"id":          id,
		"transaction": tx.ID(),
		"timestamp":   event.Block.Timestamp,
		"pool":        s.pool.ID(),
		"token0":      s.token0.ID(),
		"token1":      s.token1.ID(),
		"owner":       owner,
		"origin":      owner,
		"amount":      liquidity,
		"amount0":     amount0,
		"amount1":     amount1,
		"amountUSD":   "0",
		"tickLower":   lower,
		"tickUpper":   upper,
		"logIndex":    uint64(event.LogIndex),
	}); err != nil {
		return err
	}

	if err := h.updateTicks(ctx, idx, event, s.pool.ID(), lower, upper, new(big.Int).Neg(liquidity)); err != nil {
		return err
	}
	return updateIntervals(ctx, idx, event, s.pool, decimal.Zero, decimal.Zero)
}

func (h *PoolHooks) swap(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent, s *poolState) error {
	sender, err := addressArg(event, "sender")
	if err != nil {
		return err
	}
	recipient, err := addressArg(event, "recipient")
	if err != nil {
		return err
	}
	args, err := bigArgs(event, "amount0", "amount1", "sqrtPriceX96", "liquidity", "tick")
	if err != nil {
		return err
	}
	amount0, amount1 := tokenAmount(args[0], s.token0), tokenAmount(args[1], s.token1)
	sqrtPrice, liquidity, tick := args[2], args[3], args[4]
	volume0, volume1 := amount0.Abs(), amount1.Abs()

	tx, err := transaction(ctx, idx, event)
	if err != nil {
		return err
	}
	id, err := h.countTx(ctx, idx, event, s, tx)
	if err != nil {
		return err
	}

	s.pool["liquidity"] = liquidity
	s.setPrice(sqrtPrice, tick)
	addDec(s.pool, "volumeToken0", volume0)
	addDec(s.pool, "volumeToken1", volume1)
	addDec(s.token0, "volume", volume0)
	addDec(s.token1, "volume", volume1)
	s.addLocked(amount0, amount1)
	if err := s.save(ctx, idx, event); err != nil {
		return err
	}

	if err := save(ctx, idx, event, EntitySwap, subgraph.Entity{
		"id":           id,
		"transaction":  tx.ID(),
		"timestamp":    event.Block.Timestamp,
		"pool":         s.pool.ID(),
		"token0":       s.token0.ID(),
		"token1":       s.token1.ID(),
		"sender":       sender,
		"recipient":    recipient,
		"origin":       sender,
		"amount0":      amount0,
		"amount1":      amount1,
		"amountUSD":    "0",
		"sqrtPriceX96": sqrtPrice,
		"tick":         tick,
		"logIndex":     uint64(event.LogIndex),
	}); err != nil {
		return err
	}

	return updateIntervals(ctx, idx, event, s.pool, volume0, volume1)
}

func (h *PoolHooks) collect(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent, s *poolState) error {
	owner, err := addressArg(event, "owner")
	if err != nil {
		return err
	}
	args, err := bigArgs(event, "tickLower", "tickUpper", "amount0", "amount1")
	if err != nil {
		return err
	}
	amount0, amount1 := tokenAmount(args[2], s.token0), tokenAmount(args[3], s.token1)

	tx, err := transaction(ctx, idx, event)
	if err != nil {
		return err
	}
	id, err := h.countTx(ctx, idx, event, s, tx)
	if err != nil {
		return err
	}

	addDec(s.pool, "collectedFeesToken0", amount0)
	addDec(s.pool, "collectedFeesToken1", amount1)
	s.addLocked(amount0.Neg(), amount1.Neg())
	if err := s.save(ctx, idx, event); err != nil {
		return err
	}

	return save(ctx, idx, event, EntityCollect, subgraph.Entity{
		"id":          id,
		"transaction": tx.ID(),
		"timestamp":   event.Block.Timestamp,
		"pool":        s.pool.ID(),
		"owner":       owner,
		"amount0":     amount0,
		"amount1":     amount1,
		"amountUSD":   "0",
		"tickLower":   args[0],
		"tickUpper":   args[1],
		"logIndex":    uint64(event.LogIndex),
	})
}

func (h *PoolHooks) flash(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent, s *poolState) error {
	sender, err := addressArg(event, "sender")
	if err != nil {
		return err
	}
	recipient, err := addressArg(event, "recipient")
	if err != nil {
		return err
	}
	args, err := bigArgs(event, "amount0", "amount1", "paid0", "paid1")
	if err != nil {
		return err
	}
	paid0, paid1 := tokenAmount(args[2], s.token0), tokenAmount(args[3], s.token1)

	tx, err := transaction(ctx, idx, event)
	if err != nil {
		return err
	}
	id, err := h.countTx(ctx, idx, event, s, tx)
	if err != nil {
		return err
	}

	s.addLocked(paid0, paid1)
	if err := s.save(ctx, idx, event); err != nil {
		return err
	}

	return save(ctx, idx, event, EntityFlash, subgraph.Entity{
		"id":          id,
		"transaction": tx.ID(),
		"timestamp":   event.Block.Timestamp,
		"pool":        s.pool.ID(),
		"sender":      sender,
		"recipient":   recipient,
		"amount0":     tokenAmount(args[0], s.token0),
		"amount1":     tokenAmount(args[1], s.token1),
		"amountUSD":   "0",
		"amount0Paid": paid0,
		"amount1Paid": paid1,
		"logIndex":    uint64(event.LogIndex),
	})
}
