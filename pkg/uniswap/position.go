package uniswap

import (
	"context"
	"fmt"
	"math/big"

	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// PositionManagerHooks handle the events of the position NFT manager.
type PositionManagerHooks struct {
	handler
}

// HandleEvent applies one position manager event.
func (h *PositionManagerHooks) HandleEvent(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) error {
	switch event.EventName {
	case "IncreaseLiquidity":
		return h.liquidityChanged(ctx, idx, event, true)
	case "DecreaseLiquidity":
		return h.liquidityChanged(ctx, idx, event, false)
	case "Collect":
		return h.collect(ctx, idx, event)
	case "Transfer":
		return h.transfer(ctx, idx, event)
	default:
		return h.ignore(event)
	}
}

// position loads the Position of tokenID or creates it from the manager's
// on-chain record. Positions the manager no longer knows are skipped.
func (h *PositionManagerHooks) position(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent,
	tokenID *big.Int) (subgraph.Entity, bool, error) {
	id := tokenID.String()
	pos, found, err := load(ctx, idx, event, EntityPosition, id)
	if err != nil || found {
		return pos, found, err
	}

	var info *PositionInfo
	if h.chain.caller != nil {
		info, err = h.chain.position(ctx, event.Contract, tokenID, event.Block.Hash)
		if err != nil {
			h.log.Debugw("skipping unreadable position",
				"token_id", id,
				"event", event.EventName,
				"block", event.Block.Number,
				"error", err,
			)
			return nil, false, nil
		}
	}
	return newPosition(id, info), true, nil
}

// tokens loads the tokens a position refers to. Unknown tokens are nil.
func (h *PositionManagerHooks) tokens(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent,
	pos subgraph.Entity) (subgraph.Entity, subgraph.Entity, error) {
	var out [2]subgraph.Entity
	for i, field := range []string{"token0", "token1"} {
		id := pos.String(field)
		if id == "" {
			continue
		}
		token, _, err := load(ctx, idx, event, EntityToken, id)
		if err != nil {
			return nil, nil, err
		}
		out[i] = token
	}
	return out[0], out[1], nil
}

func (h *PositionManagerHooks) liquidityChanged(ctx context.Context, idx hooks.Indexer,
	event *subgraph.ResultEvent, increase bool) error {
	args, err := bigArgs(event, "tokenId", "liquidity", "amount0", "amount1")
	if err != nil {
		return err
	}
	tokenID, liquidity, raw0, raw1 := args[0], args[1], args[2], args[3]

	pos, found, err := h.position(ctx, idx, event, tokenID)
	if err != nil || !found {
		return err
	}
	token0, token1, err := h.tokens(ctx, idx, event, pos)
	if err != nil {
		return err
	}
	tx, err := transaction(ctx, idx, event)
	if err != nil {
		return err
	}

	amount0, amount1 := tokenAmount(raw0, token0), tokenAmount(raw1, token1)
	entityType := EntityIncreaseEvent
	if increase {
		addBig(pos, "liquidity", liquidity)
		addDec(pos, "depositedToken0", amount0)
		addDec(pos, "depositedToken1", amount1)
	} else {
		entityType = EntityDecreaseEvent
		subBig(pos, "liquidity", liquidity)
		addDec(pos, "withdrawnToken0", amount0)
		addDec(pos, "withdrawnToken1", amount1)
	}
	pos["transaction"] = tx.ID()
	if err := save(ctx, idx, event, EntityPosition, pos); err != nil {
		return err
	}

	if err := save(ctx, idx, event, entityType, subgraph.Entity{
		"id":          eventID(event),
		"pool":        pos["pool"],
		"tokenID":     tokenID,
		"position":    pos.ID(),
		"amount0":     raw0,
		"amount1":     raw1,
		"token0":      pos["token0"],
		"token1":      pos["token1"],
		"timeStamp":   event.Block.Timestamp,
		"transaction": tx.ID(),
	}); err != nil {
		return err
	}

	return h.snapshot(ctx, idx, event, pos, tx)
}

func (h *PositionManagerHooks) collect(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) error {
	args, err := bigArgs(event, "tokenId", "amount0", "amount1")
	if err != nil {
		return err
	}

	pos, found, err := h.position(ctx, idx, event, args[0])
	if err != nil || !found {
		return err
	}
	token0, token1, err := h.tokens(ctx, idx, event, pos)
	if err != nil {
		return err
	}
	tx, err := transaction(ctx, idx, event)
	if err != nil {
		return err
	}

	addDec(pos, "collectedToken0", tokenAmount(args[1], token0))
	addDec(pos, "collectedToken1", tokenAmount(args[2], token1))
	pos["collectedFeesToken0"] = decField(pos, "collectedToken0").Sub(decField(pos, "withdrawnToken0"))
	pos["collectedFeesToken1"] = decField(pos, "collectedToken1").Sub(decField(pos, "withdrawnToken1"))
	pos["transaction"] = tx.ID()
	if err := save(ctx, idx, event, EntityPosition, pos); err != nil {
		return err
	}

	return h.snapshot(ctx, idx, event, pos, tx)
}

func (h *PositionManagerHooks) transfer(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) error {
	to, err := addressArg(event, "to")
	if err != nil {
		return err
	}
	tokenID, err := bigArg(event, "tokenId")
	if err != nil {
		return err
	}

	pos, found, err := h.position(ctx, idx, event, tokenID)
	if err != nil || !found {
		return err
	}
	tx, err := transaction(ctx, idx, event)
	if err != nil {
		return err
	}

	pos["owner"] = addressID(to)
	pos["transaction"] = tx.ID()
	if err := save(ctx, idx, event, EntityPosition, pos); err != nil {
		return err
	}

	return h.snapshot(ctx, idx, event, pos, tx)
}

// snapshot records the position as of the event's block. Later events of the
// same block overwrite it.
func (h *PositionManagerHooks) snapshot(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent,
	pos, tx subgraph.Entity) error {
	snap := subgraph.Entity{
		"id":          fmt.Sprintf("%s#%d", pos.ID(), event.Block.Number),
		"owner":       pos["owner"],
		"pool":        pos["pool"],
		"position":    pos.ID(),
		"blockNumber": event.Block.Number,
		"timestamp":   event.Block.Timestamp,
		"transaction": tx.ID(),
	}
	for _, f := range []string{
		"liquidity", "depositedToken0", "depositedToken1", "withdrawnToken0", "withdrawnToken1",
		"collectedFeesToken0", "collectedFeesToken1", "feeGrowthInside0LastX128", "feeGrowthInside1LastX128",
	} {
		snap[f] = pos[f]
	}
	return save(ctx, idx, event, EntityPositionSnapshot, snap)
}
