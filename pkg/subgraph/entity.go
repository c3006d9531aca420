package subgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Entity holds the fields of one derived entity version, keyed by field name.
// Every entity carries its identifier under the "id" key.
type Entity map[string]any

// ID returns the entity identifier.
func (e Entity) ID() string {
	id, _ := e["id"].(string)
	return id
}

// Clone returns a copy of the entity that can be mutated independently.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	out := make(Entity, len(e))
	for k, v := range e {
		if list, ok := v.([]any); ok {
			v = append([]any(nil), list...)
		}
		out[k] = v
	}
	return out
}

// String returns a field rendered as a string, or "" if it is absent.
func (e Entity) String(field string) string {
	switch v := e[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// EntityVersion is an entity as stored for one block.
type EntityVersion struct {
	Type        string
	ID          string
	BlockHash   common.Hash
	BlockNumber uint64
	Data        Entity
	IsPruned    bool
	IsRemoved   bool
}

// StateData is the serialized form of a contract's derived state, as an init,
// diff or checkpoint. A nil entity marks a removal.
type StateData struct {
	Meta  *StateMeta                   `json:"meta,omitempty"`
	State map[string]map[string]Entity `json:"state"`
}

// StateMeta identifies a stored state record. It is part of the encoded data,
// so records of different contracts or blocks never share a CID.
type StateMeta struct {
	Contract    common.Address `json:"id"`
	Kind        StateKind      `json:"kind"`
	Parent      string         `json:"parent"`
	BlockHash   common.Hash    `json:"blockHash"`
	BlockNumber uint64         `json:"blockNumber"`
}

// NewStateData returns an empty state.
func NewStateData() StateData {
	return StateData{State: make(map[string]map[string]Entity)}
}

// Set records entity (or a removal when entity is nil) under entityType and id.
func (s *StateData) Set(entityType, id string, entity Entity) {
	if s.State == nil {
		s.State = make(map[string]map[string]Entity)
	}
	byID, ok := s.State[entityType]
	if !ok {
		byID = make(map[string]Entity)
		s.State[entityType] = byID
	}
	byID[id] = entity
}

// IsEmpty reports whether the state holds no entity.
func (s StateData) IsEmpty() bool {
	for _, byID := range s.State {
		if len(byID) > 0 {
			return false
		}
	}
	return true
}

// Apply merges diff on top of s. Removals delete the entity.
func (s *StateData) Apply(diff StateData) {
	for entityType, byID := range diff.State {
		for id, entity := range byID {
			if entity == nil {
				if existing, ok := s.State[entityType]; ok {
					delete(existing, id)
					if len(existing) == 0 {
						delete(s.State, entityType)
					}
				}
				continue
			}
			s.Set(entityType, id, entity.Clone())
		}
	}
}

// Clone returns a deep copy of the entities of the state. Meta is not copied.
func (s StateData) Clone() StateData {
	out := NewStateData()
	for entityType, byID := range s.State {
		cloned := make(map[string]Entity, len(byID))
		for id, e := range byID {
			cloned[id] = e.Clone()
		}
		out.State[entityType] = cloned
	}
	return out
}

// Encode returns the canonical JSON encoding of the state. Object keys are sorted.
func (s StateData) Encode() ([]byte, error) {
	if s.State == nil {
		s.State = map[string]map[string]Entity{}
	}
	return json.Marshal(s)
}

// DecodeStateData parses an encoded state, keeping numbers as json.Number.
func DecodeStateData(data []byte) (StateData, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var s StateData
	if err := dec.Decode(&s); err != nil {
		return StateData{}, fmt.Errorf("failed to decode state data: %w", err)
	}
	if s.State == nil {
		s.State = make(map[string]map[string]Entity)
	}
	return s, nil
}

// ComputeCID returns the content identifier of encoded state bytes.
func ComputeCID(data []byte) string {
	return crypto.Keccak256Hash(data).Hex()
}

// BlockHeight selects the block a read resolves against. With neither Hash
// nor Number set, the read targets the latest indexed state.
type BlockHeight struct {
	Hash   *common.Hash `json:"hash,omitempty"`
	Number *uint64      `json:"number,omitempty"`
}

// LatestBlock selects the latest indexed state.
func LatestBlock() BlockHeight { return BlockHeight{} }

// AtHash selects the state as of the block with the given hash.
func AtHash(h common.Hash) BlockHeight { return BlockHeight{Hash: &h} }

// AtNumber selects the state as of the given height on the canonical branch.
func AtNumber(n uint64) BlockHeight { return BlockHeight{Number: &n} }

// IsLatest reports whether the height selects the latest state.
func (b BlockHeight) IsLatest() bool { return b.Hash == nil && b.Number == nil }

func (b BlockHeight) String() string {
	switch {
	case b.Hash != nil:
		return b.Hash.Hex()
	case b.Number != nil:
		return strconv.FormatUint(*b.Number, 10)
	default:
		return "latest"
	}
}

// OrderDirection sorts entity query results.
type OrderDirection string

const (
	OrderAsc  OrderDirection = "asc"
	OrderDesc OrderDirection = "desc"
)

// QueryOptions paginates and orders entity lists.
type QueryOptions struct {
	Limit          int            `json:"limit"`
	Skip           int            `json:"skip"`
	OrderBy        string         `json:"orderBy,omitempty"`
	OrderDirection OrderDirection `json:"orderDirection,omitempty"`
}

// DefaultQueryLimit is applied when QueryOptions.Limit is zero.
const DefaultQueryLimit = 100

// Where filters entity lists. Keys are field names, optionally suffixed with
// one of _not, _gt, _gte, _lt, _lte, _in, _not_in, _contains.
type Where map[string]any
