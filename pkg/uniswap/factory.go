package uniswap

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// FactoryHooks handle the events of the pool factory.
type FactoryHooks struct {
	handler
}

// HandleEvent applies one factory event.
func (h *FactoryHooks) HandleEvent(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) error {
	switch event.EventName {
	case "PoolCreated":
		return h.poolCreated(ctx, idx, event)
	case "OwnerChanged":
		return h.ownerChanged(ctx, idx, event)
	default:
		return h.ignore(event)
	}
}

func (h *FactoryHooks) poolCreated(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) error {
	token0Addr, err := addressArg(event, "token0")
	if err != nil {
		return err
	}
	token1Addr, err := addressArg(event, "token1")
	if err != nil {
		return err
	}
	poolAddr, err := addressArg(event, "pool")
	if err != nil {
		return err
	}
	fee, err := bigArg(event, "fee")
	if err != nil {
		return err
	}

	factory, err := h.factory(ctx, idx, event)
	if err != nil {
		return err
	}
	incr(factory, "poolCount")

	poolID := addressID(poolAddr)
	tokens := make([]subgraph.Entity, 0, 2) //nolint:mnd
	for _, addr := range []common.Address{token0Addr, token1Addr} {
		token, err := h.token(ctx, idx, event, addr)
		if err != nil {
			return err
		}
		incr(token, "poolCount")
		appendRef(token, "whitelistPools", poolID)
		tokens = append(tokens, token)
	}

	pool := newPool(poolID, tokens[0].ID(), tokens[1].ID(), fee, event.Block)

	for _, upd := range []struct {
		entityType string
		entity     subgraph.Entity
	}{
		{EntityFactory, factory},
		{EntityToken, tokens[0]},
		{EntityToken, tokens[1]},
		{EntityPool, pool},
	} {
		if err := save(ctx, idx, event, upd.entityType, upd.entity); err != nil {
			return err
		}
	}

	h.log.Infow("pool created",
		"pool", poolID,
		"token0", tokens[0].ID(),
		"token1", tokens[1].ID(),
		"fee", fee.String(),
		"block", event.Block.Number,
	)

	if err := idx.WatchContract(ctx, poolAddr, KindPool, true, event.Block.Number,
		map[string]any{"factory": factory.ID()}); err != nil {
		return fmt.Errorf("failed to watch pool %s: %w", poolID, err)
	}
	return nil
}

func (h *FactoryHooks) ownerChanged(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) error {
	owner, err := addressArg(event, "newOwner")
	if err != nil {
		return err
	}

	factory, err := h.factory(ctx, idx, event)
	if err != nil {
		return err
	}
	factory["owner"] = addressID(owner)
	return save(ctx, idx, event, EntityFactory, factory)
}

// factory loads the Factory entity of the emitting contract. The first one
// created also brings the Bundle into existence.
func (h *FactoryHooks) factory(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent) (subgraph.Entity, error) {
	id := addressID(event.Contract)
	factory, found, err := load(ctx, idx, event, EntityFactory, id)
	if err != nil || found {
		return factory, err
	}

	_, found, err = load(ctx, idx, event, EntityBundle, bundleID)
	if err != nil {
		return nil, err
	}
	if !found {
		if err := save(ctx, idx, event, EntityBundle, subgraph.Entity{"id": bundleID, "ethPriceUSD": "0"}); err != nil {
			return nil, err
		}
	}
	return newFactory(id), nil
}

// token loads a Token entity, creating it from on-chain metadata when missing.
func (h *FactoryHooks) token(ctx context.Context, idx hooks.Indexer, event *subgraph.ResultEvent,
	addr common.Address) (subgraph.Entity, error) {
	id := addressID(addr)
	token, found, err := load(ctx, idx, event, EntityToken, id)
	if err != nil || found {
		return token, err
	}
	return newToken(id, h.chain.tokenInfo(ctx, addr, event.Block.Hash)), nil
}
