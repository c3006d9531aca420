package types

import (
	"fmt"
	"strings"
)

// BlockFinality selects how the watcher decides that a block can no longer
// be reorged away.
type BlockFinality string

const (
	// FinalityFinalized trusts the node's "finalized" tag.
	FinalityFinalized BlockFinality = "finalized"
	// FinalitySafe trusts the node's "safe" tag.
	FinalitySafe BlockFinality = "safe"
	// FinalityLatest follows the head and treats blocks deeper than the
	// pruning depth as final.
	FinalityLatest BlockFinality = "latest"
)

var finalities = []BlockFinality{FinalityFinalized, FinalitySafe, FinalityLatest}

func (f BlockFinality) String() string {
	return string(f)
}

// Tagged reports whether the final height comes from a node block tag
// instead of a confirmation depth below the head.
func (f BlockFinality) Tagged() bool {
	return f == FinalityFinalized || f == FinalitySafe
}

func (f BlockFinality) IsValid() bool {
	for _, known := range finalities {
		if f == known {
			return true
		}
	}
	return false
}

// DepthFinal returns the final height for a depth based mode: head minus
// depth, floored at genesis.
func DepthFinal(head, depth uint64) uint64 {
	return head - min(head, depth)
}

// ParseBlockFinality parses a configured finality mode. Input is trimmed and
// case insensitive; the empty string selects FinalityLatest.
func ParseBlockFinality(s string) (BlockFinality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FinalityLatest, nil
	}

	f := BlockFinality(s)
	if !f.IsValid() {
		names := make([]string, len(finalities))
		for i, known := range finalities {
			names[i] = known.String()
		}
		return "", fmt.Errorf("invalid block finality %q (must be one of: %s)", s, strings.Join(names, ", "))
	}
	return f, nil
}
