package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/store"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"go.uber.org/multierr"
)

// Hook lets a contract kind write its own checkpoint. Returning true skips
// the default checkpoint for that contract.
type Hook func(ctx context.Context, contract *subgraph.Contract, blockHash common.Hash) (bool, error)

// ProcessCheckpoint creates checkpoints at block for every checkpoint enabled
// contract whose last checkpoint (or initial state) is at least the interval
// behind. Contracts are processed in parallel and their failures aggregated.
func (m *Manager) ProcessCheckpoint(
	ctx context.Context,
	block *subgraph.BlockProgress,
	contracts []*subgraph.Contract,
	hook Hook,
) error {
	if m.interval <= 0 {
		return nil
	}

	start := time.Now()
	defer func() { CheckpointDurationLog(time.Since(start)) }()

	var (
		mu      sync.Mutex
		errs    error
		created int
	)

	group := m.pool.NewGroupContext(ctx)
	for _, c := range contracts {
		if !c.Checkpoint || block.BlockNumber < c.StartingBlock {
			continue
		}

		group.Submit(func() {
			ok, err := m.checkpointContract(group.Context(), block, c, hook)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("checkpoint of %s at %d: %w", c.Address.Hex(), block.BlockNumber, err))
				return
			}
			if ok {
				created++
			}
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		CheckpointFailureInc()
		return errs
	}
	if created == 0 {
		return nil
	}

	m.log.Debugf("created %d checkpoints at block %d", created, block.BlockNumber)
	return m.UpdateStateSyncStatusCheckpointBlock(block.BlockNumber, false)
}

func (m *Manager) checkpointContract(
	ctx context.Context,
	block *subgraph.BlockProgress,
	contract *subgraph.Contract,
	hook Hook,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	unlock := m.maintenance.AcquireOperationLock()
	defer unlock()

	prev, err := m.GetLatestState(contract.Address, subgraph.StateKindCheckpoint, &block.BlockNumber)
	if errors.Is(err, subgraph.ErrNotFound) {
		prev, err = m.GetLatestState(contract.Address, subgraph.StateKindInit, &block.BlockNumber)
	}
	if errors.Is(err, subgraph.ErrNotFound) {
		m.log.Debugw("skipping checkpoint of contract without initial state",
			"contract", contract.Address.Hex(), "block", block.BlockNumber)
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if block.BlockNumber-prev.BlockNumber < uint64(m.interval) {
		return false, nil
	}

	if hook != nil {
		handled, err := hook(ctx, contract, block.BlockHash)
		if err != nil {
			return false, err
		}
		if handled {
			return true, nil
		}
	}

	var created bool
	err = m.store.WithTx(ctx, func(tx *sql.Tx, _ *store.Store) error {
		_, created, err = m.Tx(tx).CreateCheckpoint(contract.Address, block.BlockHash)
		return err
	})
	return created, err
}

// ProcessCheckpointAsync queues a checkpoint run for block. When the queue
// is full the run is skipped; the next canonical block retries it.
func (m *Manager) ProcessCheckpointAsync(
	ctx context.Context,
	block *subgraph.BlockProgress,
	contracts []*subgraph.Contract,
	hook Hook,
) {
	if m.interval <= 0 {
		return
	}
	if m.runner.WaitingTasks() >= uint64(m.queueSize) {
		CheckpointSkippedInc()
		m.log.Warnw("checkpoint queue is full, skipping", "block", block.BlockNumber)
		return
	}

	m.runner.Submit(func() {
		if err := m.ProcessCheckpoint(ctx, block, contracts, hook); err != nil {
			m.log.Errorw("checkpoint run failed, retrying at next interval", "block", block.BlockNumber, "error", err)
		}
	})
}

// Flush waits until every checkpoint run queued so far has finished.
func (m *Manager) Flush() {
	_ = m.runner.Submit(func() {}).Wait()
}

// ProcessCLICheckpoint creates a checkpoint of contract at blockHash, or at
// the latest canonical block when blockHash is nil, and returns its CID.
func (m *Manager) ProcessCLICheckpoint(ctx context.Context, contract common.Address, blockHash *common.Hash) (string, error) {
	unlock := m.maintenance.AcquireOperationLock()
	defer unlock()

	var target common.Hash
	if blockHash != nil {
		target = *blockHash
	} else {
		status, err := m.store.GetSyncStatus()
		if err != nil {
			return "", fmt.Errorf("failed to get latest canonical block: %w", err)
		}
		if status.LatestCanonicalBlockHash == (common.Hash{}) {
			return "", fmt.Errorf("no canonical block yet: %w", subgraph.ErrBlockNotProcessed)
		}
		target = status.LatestCanonicalBlockHash
	}

	var (
		cid   string
		block *subgraph.BlockProgress
	)
	err := m.store.WithTx(ctx, func(tx *sql.Tx, st *store.Store) error {
		var err error
		if block, err = st.GetBlockProgress(target); err != nil {
			return err
		}
		if !block.IsComplete {
			return fmt.Errorf("block %s: %w", target.Hex(), subgraph.ErrBlockNotProcessed)
		}
		if block.IsPruned {
			return fmt.Errorf("block %s: %w", target.Hex(), subgraph.ErrBlockPruned)
		}

		txm := m.Tx(tx)
		if cid, _, err = txm.CreateCheckpoint(contract, target); err != nil {
			return err
		}
		return txm.UpdateStateSyncStatusCheckpointBlock(block.BlockNumber, false)
	})
	if err != nil {
		return "", err
	}

	m.log.Infow("checkpoint created on demand", "contract", contract.Hex(), "block", block.BlockNumber, "cid", cid)
	return cid, nil
}
