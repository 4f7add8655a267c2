package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRunConfig indicates a run that cannot start.
	ErrInvalidRunConfig = errors.New("engine: invalid run config")

	// ErrInvalidInput indicates a plant sample outside the 14-bit range.
	ErrInvalidInput = errors.New("engine: input sample out of range")
)

// TickError wraps a failure with the tick it happened on.
type TickError struct {
	Tick    uint64
	Wrapped error
}

func (e *TickError) Error() string {
	return fmt.Sprintf("tick %d: %v", e.Tick, e.Wrapped)
}

func (e *TickError) Unwrap() error {
	return e.Wrapped
}
