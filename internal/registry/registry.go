package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	internalcommon "github.com/goran-ethernal/SubgraphWatcher/internal/common"
	"github.com/goran-ethernal/SubgraphWatcher/internal/logger"
	"github.com/goran-ethernal/SubgraphWatcher/pkg/subgraph"
)

// ErrMalformedLog is returned when a log matches a known signature but its
// topics or data cannot be decoded with the ABI.
var ErrMalformedLog = errors.New("malformed log")

// Decoded is a log decoded against its contract kind's ABI.
type Decoded struct {
	Name      string
	Signature string
	Args      map[string]any
}

type kindABI struct {
	abi     abi.ABI
	byTopic map[common.Hash]abi.Event
}

// Registry maps contract kinds to the events of their ABI.
// It is built once and read-only afterwards.
type Registry struct {
	kinds map[string]*kindABI
	log   *logger.Logger
}

// New parses one ABI JSON document per contract kind.
func New(abis map[string]string, log *logger.Logger) (*Registry, error) {
	r := &Registry{
		kinds: make(map[string]*kindABI, len(abis)),
		log:   log.WithComponent(internalcommon.ComponentRegistry),
	}

	for kind, abiJSON := range abis {
		parsed, err := abi.JSON(strings.NewReader(abiJSON))
		if err != nil {
			return nil, fmt.Errorf("failed to parse ABI for kind %s: %w", kind, err)
		}

		k := &kindABI{
			abi:     parsed,
			byTopic: make(map[common.Hash]abi.Event, len(parsed.Events)),
		}
		for _, ev := range parsed.Events {
			if ev.Anonymous {
				continue
			}
			k.byTopic[ev.ID] = ev
		}

		r.kinds[strings.ToLower(kind)] = k
		r.log.Debugw("registered contract kind", "kind", kind, "events", len(k.byTopic))
	}

	return r, nil
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.kinds))
	for k := range r.kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Signatures returns the topic-0 hashes recognized for kind, sorted.
func (r *Registry) Signatures(kind string) ([]common.Hash, error) {
	k, ok := r.kinds[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", subgraph.ErrUnknownKind, kind)
	}

	sigs := make([]common.Hash, 0, len(k.byTopic))
	for topic := range k.byTopic {
		sigs = append(sigs, topic)
	}
	sort.Slice(sigs, func(i, j int) bool {
		return sigs[i].Cmp(sigs[j]) < 0
	})
	return sigs, nil
}

// SignatureMap returns the recognized topic-0 hashes of every kind.
func (r *Registry) SignatureMap() map[string][]common.Hash {
	out := make(map[string][]common.Hash, len(r.kinds))
	for kind := range r.kinds {
		sigs, _ := r.Signatures(kind)
		out[kind] = sigs
	}
	return out
}

// ParseEventNameAndArgs decodes a raw log emitted by a contract of the given kind.
// Logs whose topic-0 is not part of the kind's ABI yield ErrUnknownEvent.
func (r *Registry) ParseEventNameAndArgs(kind string, log types.Log) (*Decoded, error) {
	k, ok := r.kinds[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", subgraph.ErrUnknownKind, kind)
	}
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("%w: log %d in tx %s has no topics", subgraph.ErrUnknownEvent, log.Index, log.TxHash.Hex())
	}

	ev, ok := k.byTopic[log.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("%w: topic %s for kind %s", subgraph.ErrUnknownEvent, log.Topics[0].Hex(), kind)
	}

	args := make(map[string]any, len(ev.Inputs))

	if len(log.Data) > 0 || len(ev.Inputs.NonIndexed()) > 0 {
		if err := ev.Inputs.NonIndexed().UnpackIntoMap(args, log.Data); err != nil {
			return nil, fmt.Errorf("%w: %s data: %w", ErrMalformedLog, ev.Name, err)
		}
	}

	var indexed abi.Arguments
	for _, input := range ev.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(log.Topics)-1 != len(indexed) {
		return nil, fmt.Errorf("%w: %s expects %d indexed topics, got %d",
			ErrMalformedLog, ev.Name, len(indexed), len(log.Topics)-1)
	}
	if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
		return nil, fmt.Errorf("%w: %s topics: %w", ErrMalformedLog, ev.Name, err)
	}

	return &Decoded{
		Name:      ev.Name,
		Signature: ev.Sig,
		Args:      args,
	}, nil
}

// IsSkippable reports whether err only means the log is not one the pipeline handles.
func IsSkippable(err error) bool {
	return errors.Is(err, subgraph.ErrUnknownEvent) || errors.Is(err, ErrMalformedLog)
}
