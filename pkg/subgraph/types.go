package subgraph

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Contract is a watched contract instance.
type Contract struct {
	Address       common.Address `meddler:"address,address" json:"address"`
	Kind          string         `meddler:"kind" json:"kind"`
	Checkpoint    bool           `meddler:"checkpoint" json:"checkpoint"`
	StartingBlock uint64         `meddler:"starting_block" json:"startingBlock"`
	Context       map[string]any `meddler:"context,json" json:"context,omitempty"`
}

// BlockProgress tracks the processing of one observed block, canonical or frothy.
type BlockProgress struct {
	BlockHash               common.Hash `meddler:"block_hash,hash" json:"blockHash"`
	BlockNumber             uint64      `meddler:"block_number" json:"blockNumber"`
	ParentHash              common.Hash `meddler:"parent_hash,hash" json:"parentHash"`
	BlockTimestamp          uint64      `meddler:"block_timestamp" json:"blockTimestamp"`
	NumEvents               int         `meddler:"num_events" json:"numEvents"`
	NumProcessedEvents      int         `meddler:"num_processed_events" json:"numProcessedEvents"`
	LastProcessedEventIndex int64       `meddler:"last_processed_event_index" json:"lastProcessedEventIndex"`
	IsComplete              bool        `meddler:"is_complete" json:"isComplete"`
	IsPruned                bool        `meddler:"is_pruned" json:"isPruned"`
	CreatedAt               string      `meddler:"created_at" json:"createdAt"`
}

// BlockFromHeader returns an unprocessed BlockProgress for header.
func BlockFromHeader(header *types.Header) *BlockProgress {
	return &BlockProgress{
		BlockHash:               header.Hash(),
		BlockNumber:             header.Number.Uint64(),
		ParentHash:              header.ParentHash,
		BlockTimestamp:          header.Time,
		LastProcessedEventIndex: -1,
	}
}

// Event is a stored contract log. Events are ordered by (BlockNumber, LogIndex).
type Event struct {
	ID          int64          `meddler:"id,pk" json:"-"`
	BlockHash   common.Hash    `meddler:"block_hash,hash" json:"blockHash"`
	BlockNumber uint64         `meddler:"block_number" json:"blockNumber"`
	TxHash      common.Hash    `meddler:"tx_hash,hash" json:"txHash"`
	LogIndex    uint           `meddler:"log_index" json:"logIndex"`
	Contract    common.Address `meddler:"contract,address" json:"contract"`
	EventName   string         `meddler:"event_name" json:"eventName"`
	Topic0      *common.Hash   `meddler:"topic0,hash" json:"topic0,omitempty"`
	Topic1      *common.Hash   `meddler:"topic1,hash" json:"topic1,omitempty"`
	Topic2      *common.Hash   `meddler:"topic2,hash" json:"topic2,omitempty"`
	Topic3      *common.Hash   `meddler:"topic3,hash" json:"topic3,omitempty"`
	Data        []byte         `meddler:"data" json:"data,omitempty"`
	EventInfo   string         `meddler:"event_info" json:"eventInfo"`
	ExtraInfo   string         `meddler:"extra_info" json:"extraInfo"`
	Proof       string         `meddler:"proof" json:"proof"`
}

// UnknownEventName is stored as the name of logs no registered ABI recognizes.
const UnknownEventName = "__unknown__"

// Topics returns the non-nil topics of the event in order.
func (e *Event) Topics() []common.Hash {
	topics := make([]common.Hash, 0, 4) //nolint:mnd
	for _, t := range []*common.Hash{e.Topic0, e.Topic1, e.Topic2, e.Topic3} {
		if t == nil {
			break
		}
		topics = append(topics, *t)
	}
	return topics
}

// SetTopics fills Topic0..Topic3 from a topic list.
func (e *Event) SetTopics(topics []common.Hash) {
	slots := []**common.Hash{&e.Topic0, &e.Topic1, &e.Topic2, &e.Topic3}
	for i, slot := range slots {
		if i < len(topics) {
			t := topics[i]
			*slot = &t
			continue
		}
		*slot = nil
	}
}

// SyncStatus is the process-wide indexing progress.
type SyncStatus struct {
	ID                         int         `meddler:"id,pk" json:"-"`
	ChainHeadBlockHash         common.Hash `meddler:"chain_head_block_hash,hash" json:"chainHeadBlockHash"`
	ChainHeadBlockNumber       uint64      `meddler:"chain_head_block_number" json:"chainHeadBlockNumber"`
	LatestIndexedBlockHash     common.Hash `meddler:"latest_indexed_block_hash,hash" json:"latestIndexedBlockHash"`
	LatestIndexedBlockNumber   uint64      `meddler:"latest_indexed_block_number" json:"latestIndexedBlockNumber"`
	LatestProcessedBlockHash   common.Hash `meddler:"latest_processed_block_hash,hash" json:"latestProcessedBlockHash"`
	LatestProcessedBlockNumber uint64      `meddler:"latest_processed_block_number" json:"latestProcessedBlockNumber"`
	LatestCanonicalBlockHash   common.Hash `meddler:"latest_canonical_block_hash,hash" json:"latestCanonicalBlockHash"`
	LatestCanonicalBlockNumber uint64      `meddler:"latest_canonical_block_number" json:"latestCanonicalBlockNumber"`
	InitialIndexedBlockHash    common.Hash `meddler:"initial_indexed_block_hash,hash" json:"initialIndexedBlockHash"`
	InitialIndexedBlockNumber  uint64      `meddler:"initial_indexed_block_number" json:"initialIndexedBlockNumber"`
	HasIndexingError           bool        `meddler:"has_indexing_error" json:"hasIndexingError"`
	UpdatedAt                  string      `meddler:"updated_at" json:"-"`
}

// StateSyncStatus tracks how far state diffs and checkpoints have been materialized.
type StateSyncStatus struct {
	ID                          int    `meddler:"id,pk" json:"-"`
	LatestIndexedBlockNumber    uint64 `meddler:"latest_indexed_block_number" json:"latestIndexedBlockNumber"`
	LatestCheckpointBlockNumber uint64 `meddler:"latest_checkpoint_block_number" json:"latestCheckpointBlockNumber"`
}

// StateKind classifies a state record.
type StateKind string

const (
	StateKindInit       StateKind = "init"
	StateKindDiffStaged StateKind = "diff_staged"
	StateKindDiff       StateKind = "diff"
	StateKindCheckpoint StateKind = "checkpoint"
)

// Valid reports whether k is a known state kind.
func (k StateKind) Valid() bool {
	switch k {
	case StateKindInit, StateKindDiffStaged, StateKindDiff, StateKindCheckpoint:
		return true
	}
	return false
}

// State is a stored init, diff or checkpoint of one contract's derived state.
type State struct {
	ID              int64          `meddler:"id,pk" json:"-"`
	ContractAddress common.Address `meddler:"contract_address,address" json:"contractAddress"`
	BlockHash       common.Hash    `meddler:"block_hash,hash" json:"blockHash"`
	BlockNumber     uint64         `meddler:"block_number" json:"blockNumber"`
	CID             string         `meddler:"cid" json:"cid"`
	Kind            StateKind      `meddler:"kind" json:"kind"`
	Data            []byte         `meddler:"data" json:"data"`
}

// StateFilter selects state records. Zero fields are ignored.
type StateFilter struct {
	ContractAddress *common.Address
	BlockHash       *common.Hash
	Kind            StateKind
	FromBlock       *uint64
	ToBlock         *uint64
}

// EventFilter selects the events of one block.
type EventFilter struct {
	BlockHash common.Hash
	Contract  *common.Address
	Name      string
}

// BlockInfo is the block part of a ResultEvent.
type BlockInfo struct {
	Hash       common.Hash `json:"hash"`
	Number     uint64      `json:"number"`
	Timestamp  uint64      `json:"timestamp"`
	ParentHash common.Hash `json:"parentHash"`
}

// ExtraEventData travels with an event to its handler.
type ExtraEventData struct {
	// IsReplay is set when the block is being processed again after a failed
	// attempt or a reset.
	IsReplay bool `json:"isReplay"`
}

// ResultEvent is a decoded event as handed to a contract kind's handler.
type ResultEvent struct {
	Block          BlockInfo      `json:"block"`
	TxHash         common.Hash    `json:"txHash"`
	Contract       common.Address `json:"contract"`
	Kind           string         `json:"kind"`
	LogIndex       uint           `json:"logIndex"`
	EventName      string         `json:"eventName"`
	EventSignature string         `json:"eventSignature"`
	Args           map[string]any `json:"args"`
	ExtraData      ExtraEventData `json:"extraData"`
}
