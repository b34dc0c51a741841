package grad

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrShapeMismatch   = errors.New("gradient shape mismatch")
	ErrDegenerateInput = errors.New("degenerate gradient input")
	ErrNonFinite       = errors.New("non-finite value")
)

// ShapeMismatchError describes objectives whose gradient sets disagree in
// parameter count or per-parameter shape. It matches ErrShapeMismatch with errors.Is.
type ShapeMismatchError struct {
	Kind    Kind // Objective whose set disagrees with the reference
	Index   int  // Position in the set, -1 when the parameter count differs
	Details string
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%v: objective %s, position %d: %s", ErrShapeMismatch, e.Kind, e.Index, e.Details)
	}
	return fmt.Sprintf("%v: objective %s: %s", ErrShapeMismatch, e.Kind, e.Details)
}

// Is makes errors.Is(err, ErrShapeMismatch) succeed.
func (e *ShapeMismatchError) Is(target error) bool {
	return target == ErrShapeMismatch
}

// DegenerateInputError describes an objective that contributes nothing usable
// to the combination (no gradient at all, or unusable values).
type DegenerateInputError struct {
	Kind    Kind // Zero when the problem is not tied to one objective
	Details string
}

// Error implements the error interface.
func (e *DegenerateInputError) Error() string {
	if e.Kind.IsZero() {
		return fmt.Sprintf("%v: %s", ErrDegenerateInput, e.Details)
	}
	return fmt.Sprintf("%v: objective %s: %s", ErrDegenerateInput, e.Kind, e.Details)
}

// Is makes errors.Is(err, ErrDegenerateInput) succeed.
func (e *DegenerateInputError) Is(target error) bool {
	return target == ErrDegenerateInput
}

// Warning is a non-fatal numeric instability that was recovered locally
// with a documented fallback (midpoint weight, epsilon floor).
type Warning struct {
	Kind    Kind   // Objective involved, zero for solver-wide warnings
	Source  string // Component that raised it ("normalize", "minnorm")
	Message string
}

// String formats the warning for logs.
func (w Warning) String() string {
	if w.Kind.IsZero() {
		return fmt.Sprintf("%s: %s", w.Source, w.Message)
	}
	return fmt.Sprintf("%s: objective %s: %s", w.Source, w.Kind, w.Message)
}
