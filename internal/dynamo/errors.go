package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for model construction and simulation.
var (
	// ErrDimensionMismatch indicates a coefficient array or vector whose length
	// disagrees with the matrix or vector it targets.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrInvalidOrder indicates a transfer function whose denominator has degree < 1.
	ErrInvalidOrder = errors.New("dynamo: invalid system order")

	// ErrImproperTransferFunction indicates a numerator of higher degree than the denominator.
	ErrImproperTransferFunction = errors.New("dynamo: improper transfer function")

	// ErrIO indicates an export destination that cannot be created or written.
	ErrIO = errors.New("dynamo: io failure")

	// ErrInvalidConfig indicates a non-positive horizon or step size.
	ErrInvalidConfig = errors.New("dynamo: invalid simulation config")

	// ErrSignalMismatch indicates a model whose signal set changed during a run.
	ErrSignalMismatch = errors.New("dynamo: model signal set changed during run")

	// ErrUnknownScheme indicates an unsupported integration scheme name.
	ErrUnknownScheme = errors.New("dynamo: unknown integration scheme")
)

// DimensionError reports which matrix or vector received a flat array of the
// wrong length.
type DimensionError struct {
	Field string
	Want  int
	Got   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dynamo: %s expects %d elements, got %d", e.Field, e.Want, e.Got)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}

// CheckLen returns a *DimensionError when got != want.
func CheckLen(field string, want, got int) error {
	if want != got {
		return &DimensionError{Field: field, Want: want, Got: got}
	}
	return nil
}

// IOError wraps a filesystem failure with the operation and path involved.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("dynamo: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}
