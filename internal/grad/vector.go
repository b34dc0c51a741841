// Package grad provides the gradient values exchanged between the gradient
// store, the normalizer, the min-norm solver and the combiner.
//
// A Vector is an immutable snapshot of one parameter's gradient. A Set is the
// ordered collection of snapshots captured for a single objective over one
// parameter group. All numeric work downstream is done in float64; the
// generic element type only fixes the storage precision of the parameters.
package grad

import (
	"fmt"
	"math"
)

// Float is a constraint for supported gradient element types.
type Float interface {
	~float32 | ~float64
}

// Vector is an immutable gradient snapshot for one parameter.
type Vector[T Float] struct {
	index int
	name  string
	shape Shape
	data  []T
}

// NewVector copies data into a new Vector for the parameter at index.
//
// Returns ErrShapeMismatch if len(data) disagrees with shape.
func NewVector[T Float](index int, name string, shape Shape, data []T) (*Vector[T], error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("parameter %q: %w: %w", name, ErrShapeMismatch, err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("parameter %q: %w: %d values for shape %v",
			name, ErrShapeMismatch, len(data), shape)
	}

	owned := make([]T, len(data))
	copy(owned, data)
	return &Vector[T]{
		index: index,
		name:  name,
		shape: shape.Clone(),
		data:  owned,
	}, nil
}

// Index returns the parameter's position in its group.
func (v *Vector[T]) Index() int { return v.index }

// Name returns the parameter name.
func (v *Vector[T]) Name() string { return v.name }

// Shape returns a copy of the parameter shape.
func (v *Vector[T]) Shape() Shape { return v.shape.Clone() }

// Len returns the number of elements.
func (v *Vector[T]) Len() int { return len(v.data) }

// At returns the i-th element.
func (v *Vector[T]) At(i int) T { return v.data[i] }

// Data returns a copy of the elements.
func (v *Vector[T]) Data() []T {
	out := make([]T, len(v.data))
	copy(out, v.data)
	return out
}

// AppendFloat64 appends the elements converted to float64 to dst.
func (v *Vector[T]) AppendFloat64(dst []float64) []float64 {
	for _, x := range v.data {
		dst = append(dst, float64(x))
	}
	return dst
}

// SameLayout reports whether v and other describe the same parameter slot.
func (v *Vector[T]) SameLayout(other *Vector[T]) bool {
	return v.index == other.index && v.shape.Equal(other.shape)
}

// IsFinite reports whether every element is neither NaN nor Inf.
func (v *Vector[T]) IsFinite() bool {
	for _, x := range v.data {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Set is the ordered gradient snapshots of one objective over a parameter group.
type Set[T Float] []*Vector[T]

// NumElements returns the total element count across all vectors.
func (s Set[T]) NumElements() int {
	n := 0
	for _, v := range s {
		n += v.Len()
	}
	return n
}

// Flatten concatenates every vector, in order, into one float64 slice.
func (s Set[T]) Flatten() []float64 {
	out := make([]float64, 0, s.NumElements())
	for _, v := range s {
		out = v.AppendFloat64(out)
	}
	return out
}

// CheckLayout compares s against a reference set position by position.
//
// The kind is only used to label the returned *ShapeMismatchError.
func (s Set[T]) CheckLayout(kind Kind, ref Set[T]) error {
	if len(s) != len(ref) {
		return &ShapeMismatchError{
			Kind:    kind,
			Index:   -1,
			Details: fmt.Sprintf("%d parameters, expected %d", len(s), len(ref)),
		}
	}
	for i := range s {
		if !s[i].SameLayout(ref[i]) {
			return &ShapeMismatchError{
				Kind:  kind,
				Index: i,
				Details: fmt.Sprintf("parameter %d %v, expected parameter %d %v",
					s[i].index, s[i].shape, ref[i].index, ref[i].shape),
			}
		}
	}
	return nil
}
