package uniswap

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

var (
	_ hooks.Hooks = (*FactoryHooks)(nil)
	_ hooks.Hooks = (*PoolHooks)(nil)
	_ hooks.Hooks = (*PositionManagerHooks)(nil)
)

// NewHooks returns the Uniswap v3 hooks keyed by contract kind. caller may be
// nil, in which case token metadata and positions are not read from the chain.
func NewHooks(caller Caller, log *logger.Logger) hooks.Set {
	h := handler{
		chain: chainReader{caller: caller},
		log:   log.WithComponent(internalcommon.ComponentHooks),
	}
	return hooks.NewSet(map[string]hooks.Hooks{
		KindFactory:                    &FactoryHooks{handler: h},
		KindPool:                       &PoolHooks{handler: h},
		KindNonfungiblePositionManager: &PositionManagerHooks{handler: h},
	})
}

// handler carries what every kind needs and implements the state hooks the
// same way for all of them: contracts start empty, diffs come from the staged
// entity changes and checkpoints use the default snapshot.
type handler struct {
	chain chainReader
	log   *logger.Logger
}

func (handler) CreateInitialState(context.Context, hooks.Indexer, common.Address, common.Hash) (subgraph.StateData, error) {
	return subgraph.NewStateData(), nil
}

func (handler) CreateStateDiff(context.Context, hooks.Indexer, common.Hash) error {
	return nil
}

func (handler) CreateStateCheckpoint(context.Context, hooks.Indexer, common.Address, common.Hash) (bool, error) {
	return false, nil
}

func (h handler) ignore(event *subgraph.ResultEvent) error {
	h.log.Debugw("ignoring event",
		"kind", event.Kind,
		"event", event.EventName,
		"block", event.Block.Number,
		"log_index", event.LogIndex,
	)
	return nil
}
