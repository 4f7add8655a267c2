package config

import (
	"errors"
	"fmt"
)

// Errors returned at the configuration boundary. A rejected write never
// changes the stored parameters.
var (
	// ErrInvalidChannel indicates a channel selector outside the parameter's range.
	ErrInvalidChannel = errors.New("config: invalid channel")

	// ErrInvalidValue indicates a value the parameter cannot hold.
	ErrInvalidValue = errors.New("config: invalid parameter value")

	// ErrUnknownParameter indicates a name with no parameter behind it.
	ErrUnknownParameter = errors.New("config: unknown parameter")
)

// ParamError wraps a boundary error with the offending write.
type ParamError struct {
	Channel int
	Name    string
	Value   int64
	Wrapped error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s[%d]=%d: %v", e.Name, e.Channel, e.Value, e.Wrapped)
}

func (e *ParamError) Unwrap() error {
	return e.Wrapped
}
