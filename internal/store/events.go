package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
	"github.com/russross/meddler"
)

// SaveBlockWithEvents stores a block and its events. Saving a block that is
// already stored is a no-op, so fetching the same range twice is safe.
func (s *Store) SaveBlockWithEvents(block *subgraph.BlockProgress, events []*subgraph.Event) (bool, error) {
	if _, err := s.GetBlockProgress(block.BlockHash); err == nil {
		return false, nil
	}

	block.NumEvents = len(events)
	if err := s.SaveBlockProgress(block); err != nil {
		return false, err
	}

	for _, ev := range events {
		ev.BlockHash = block.BlockHash
		ev.BlockNumber = block.BlockNumber
		if err := s.insertEvent(ev); err != nil {
			return false, err
		}
	}

	return true, nil
}

func (s *Store) insertEvent(ev *subgraph.Event) error {
	if ev.EventInfo == "" {
		ev.EventInfo = "{}"
	}
	if ev.ExtraInfo == "" {
		ev.ExtraInfo = "{}"
	}
	if ev.Proof == "" {
		ev.Proof = "{}"
	}
	if err := meddler.Insert(s.q, "events", ev); err != nil {
		return fmt.Errorf("failed to insert event %d of block %s: %w", ev.LogIndex, ev.BlockHash.Hex(), err)
	}
	return nil
}

// GetBlockEvents returns the events of a block in log index order.
func (s *Store) GetBlockEvents(hash common.Hash) ([]*subgraph.Event, error) {
	var events []*subgraph.Event
	err := meddler.QueryAll(s.q, &events, `
		SELECT * FROM events WHERE block_hash = ? ORDER BY log_index ASC
	`, hash.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to get events of block %s: %w", hash.Hex(), err)
	}
	return events, nil
}

// GetEventsByFilter returns the events of one block, optionally restricted to a
// contract and an event name.
func (s *Store) GetEventsByFilter(filter subgraph.EventFilter) ([]*subgraph.Event, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT * FROM events WHERE block_hash = ?`)
	args := []any{filter.BlockHash.Hex()}

	if filter.Contract != nil {
		query.WriteString(` AND contract = ?`)
		args = append(args, filter.Contract.Hex())
	}
	if filter.Name != "" {
		query.WriteString(` AND event_name = ?`)
		args = append(args, filter.Name)
	}
	query.WriteString(` ORDER BY log_index ASC`)

	var events []*subgraph.Event
	if err := meddler.QueryAll(s.q, &events, query.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to get events by filter: %w", err)
	}
	return events, nil
}

// GetEventsInRange returns the events of non-pruned blocks in [from, to].
func (s *Store) GetEventsInRange(from, to uint64) ([]*subgraph.Event, error) {
	var events []*subgraph.Event
	err := meddler.QueryAll(s.q, &events, `
		SELECT e.* FROM events e
		JOIN block_progress b ON b.block_hash = e.block_hash
		WHERE e.block_number >= ? AND e.block_number <= ? AND b.is_pruned = 0
		ORDER BY e.block_number ASC, e.log_index ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get events in range %d-%d: %w", from, to, err)
	}
	return events, nil
}

// RemoveUnknownEvents drops the events of a block no ABI recognized.
func (s *Store) RemoveUnknownEvents(hash common.Hash) error {
	_, err := s.q.Exec(`DELETE FROM events WHERE block_hash = ? AND event_name = ?`, hash.Hex(), subgraph.UnknownEventName)
	if err != nil {
		return fmt.Errorf("failed to remove unknown events of block %s: %w", hash.Hex(), err)
	}
	return nil
}

type legacyExtraInfo struct {
	Topics []common.Hash `json:"topics"`
	Data   hexutil.Bytes `json:"data"`
}

// BackfillEventsData moves topics and data kept in the extra_info JSON of
// older rows into their own columns. It processes at most batchSize rows and
// returns how many were updated; callers repeat until it returns 0.
func (s *Store) BackfillEventsData(batchSize int) (int, error) {
	rows, err := s.q.Query(`
		SELECT id, extra_info FROM events
		WHERE topic0 IS NULL AND extra_info LIKE '%"topics"%'
		ORDER BY id ASC
		LIMIT ?
	`, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to query legacy events: %w", err)
	}

	type legacyRow struct {
		id    int64
		extra string
	}
	var legacy []legacyRow
	for rows.Next() {
		var r legacyRow
		if err := rows.Scan(&r.id, &r.extra); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan legacy event: %w", err)
		}
		legacy = append(legacy, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, r := range legacy {
		var info legacyExtraInfo
		if err := json.Unmarshal([]byte(r.extra), &info); err != nil {
			return 0, fmt.Errorf("failed to decode extra_info of event %d: %w", r.id, err)
		}

		var remaining map[string]json.RawMessage
		if err := json.Unmarshal([]byte(r.extra), &remaining); err != nil {
			return 0, fmt.Errorf("failed to decode extra_info of event %d: %w", r.id, err)
		}
		delete(remaining, "topics")
		delete(remaining, "data")
		rest, err := json.Marshal(remaining)
		if err != nil {
			return 0, err
		}

		var ev subgraph.Event
		ev.SetTopics(info.Topics)
		topics := make([]any, 4) //nolint:mnd
		for i, t := range []*common.Hash{ev.Topic0, ev.Topic1, ev.Topic2, ev.Topic3} {
			if t != nil {
				topics[i] = t.Hex()
			}
		}

		_, err = s.q.Exec(`
			UPDATE events SET topic0 = ?, topic1 = ?, topic2 = ?, topic3 = ?, data = ?, extra_info = ?
			WHERE id = ?
		`, topics[0], topics[1], topics[2], topics[3], []byte(info.Data), string(rest), r.id)
		if err != nil {
			return 0, fmt.Errorf("failed to backfill event %d: %w", r.id, err)
		}
	}

	return len(legacy), nil
}
