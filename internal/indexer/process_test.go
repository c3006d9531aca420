package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/hooks/mocks"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIndexer_HandlerErrorLeavesBlockUnprocessed(t *testing.T) {
	ctx := context.Background()

	h := mocks.NewHooks(t)
	f := newFixture(t, config.ServerConfig{}, hooks.NewSet(map[string]hooks.Hooks{"Counter": h}))
	block := f.chain.At(100)

	h.EXPECT().CreateInitialState(mock.Anything, mock.Anything, counterAddr, block.BlockHash).
		Return(subgraph.NewStateData(), nil)

	boom := errors.New("boom")
	h.EXPECT().HandleEvent(mock.Anything, mock.Anything, mock.Anything).Return(boom).Once()

	stored := f.save(t, block, f.event(t, counterAddr, 1))
	err := f.indexer.ProcessBlockWithEvents(ctx, block, stored)
	require.ErrorIs(t, err, boom)

	progress, err := f.indexer.GetBlockProgress(ctx, block.BlockHash)
	require.NoError(t, err)
	require.False(t, progress.IsComplete)
	require.Zero(t, progress.NumProcessedEvents)

	_, err = f.indexer.GetLatestState(ctx, counterAddr, subgraph.StateKindInit, nil)
	require.ErrorIs(t, err, subgraph.ErrNotFound, "initial state is committed with the block")

	_, err = f.indexer.GetEventsByFilter(ctx, subgraph.EventFilter{BlockHash: block.BlockHash})
	require.ErrorIs(t, err, subgraph.ErrBlockNotProcessed)

	var replay bool
	h.EXPECT().HandleEvent(mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(func(ctx context.Context, idx hooks.Indexer, ev *subgraph.ResultEvent) error {
			replay = ev.ExtraData.IsReplay
			require.Equal(t, "Incremented", ev.EventName)
			return idx.SaveEntity(ctx, ev.Contract, ev.Block.Hash, "Counter",
				subgraph.Entity{"id": ev.Contract.Hex(), "total": "1"})
		}).Once()

	require.NoError(t, f.indexer.ProcessBlockWithEvents(ctx, block, stored))
	require.True(t, replay, "a retried block is flagged as replay")
	require.Equal(t, "1", f.total(t, subgraph.LatestBlock()))

	_, err = f.indexer.GetLatestState(ctx, counterAddr, subgraph.StateKindInit, nil)
	require.NoError(t, err)
}

func TestIndexer_StateDiffHookErrorsAreNotFatal(t *testing.T) {
	ctx := context.Background()

	h := mocks.NewHooks(t)
	f := newFixture(t, config.ServerConfig{}, hooks.NewSet(map[string]hooks.Hooks{"Counter": h}))
	block := f.chain.At(100)

	h.EXPECT().CreateInitialState(mock.Anything, mock.Anything, counterAddr, block.BlockHash).
		Return(subgraph.NewStateData(), nil).Once()
	h.EXPECT().CreateStateDiff(mock.Anything, mock.Anything, block.BlockHash).
		Return(errors.New("diff failed")).Once()

	f.process(t, block)
	require.NoError(t, f.indexer.ProcessCanonicalBlock(ctx, block.BlockHash))

	status, err := f.indexer.GetSyncStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, block.BlockHash, status.LatestCanonicalBlockHash)
}

func TestIndexer_CanonicalRequiresProcessedBlock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.ServerConfig{}, nil)

	err := f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(100).BlockHash)
	require.ErrorIs(t, err, subgraph.ErrBlockNotProcessed)

	f.save(t, f.chain.At(101), f.event(t, counterAddr, 1))
	err = f.indexer.ProcessCanonicalBlock(ctx, f.chain.At(101).BlockHash)
	require.ErrorIs(t, err, subgraph.ErrBlockNotProcessed)
}
