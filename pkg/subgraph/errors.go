package subgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entity, block or state record does not exist
	// at the requested height.
	ErrNotFound = errors.New("not found")

	// ErrBlockNotProcessed is returned when a read targets a block whose events
	// have not been fully processed yet.
	ErrBlockNotProcessed = errors.New("block not processed yet")

	// ErrBlockPruned is returned when a read targets a block on an orphaned branch.
	ErrBlockPruned = errors.New("block is pruned")

	// ErrRangeMismatch is returned when a block range is only partially processed.
	ErrRangeMismatch = errors.New("block range mismatch")

	// ErrConsistency marks an invariant violation in the block ancestry or entity
	// version graph. Operations returning it must not have written anything.
	ErrConsistency = errors.New("consistency violation")

	// ErrUnknownEvent is returned by the signature registry for logs whose
	// topic is not part of the contract kind's ABI.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrUnknownKind is returned when no ABI or hooks are registered for a contract kind.
	ErrUnknownKind = errors.New("unknown contract kind")
)

// RangeMismatchError reports how many blocks of a requested range are processed.
type RangeMismatchError struct {
	From     uint64
	To       uint64
	Expected int
	Actual   int
}

func (e *RangeMismatchError) Error() string {
	return fmt.Sprintf("blocks in range %d-%d not processed yet: expected %d, got %d",
		e.From, e.To, e.Expected, e.Actual)
}

// Is reports whether target is ErrRangeMismatch.
func (e *RangeMismatchError) Is(target error) bool {
	return target == ErrRangeMismatch
}

// Consistency wraps ErrConsistency with a formatted detail message.
func Consistency(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConsistency, fmt.Sprintf(format, args...))
}
