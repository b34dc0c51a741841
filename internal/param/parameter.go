// Package param holds trainable parameters and the named groups that several
// objectives share.
package param

import (
	"fmt"

	"github.com/born-ml/gradsurgery/internal/grad"
)

// Parameter represents a trainable parameter with a gradient slot.
//
// The slot is nil until a backward pass populates it. A parameter that a loss
// never reaches keeps a nil slot, and the gradient store skips it.
//
// Example:
//
//	w := param.New("feature.conv1.weight", grad.Shape{8, 1, 17}, weights)
//	w.Accumulate(backwardGrad)
//	g := w.Grad()
type Parameter[T grad.Float] struct {
	name  string     // Parameter name (e.g., "feature.conv1.weight")
	shape grad.Shape // Tensor shape
	data  []T        // Parameter values
	grad  []T        // Gradient slot (nil until populated)
}

// New creates a parameter. data must match shape and is used in place.
//
// Panics if len(data) disagrees with shape.
func New[T grad.Float](name string, shape grad.Shape, data []T) *Parameter[T] {
	if len(data) != shape.NumElements() {
		panic(fmt.Sprintf("param: %q has %d values for shape %v", name, len(data), shape))
	}
	return &Parameter[T]{
		name:  name,
		shape: shape.Clone(),
		data:  data,
	}
}

// Zeros creates a zero-initialised parameter.
func Zeros[T grad.Float](name string, shape grad.Shape) *Parameter[T] {
	return New(name, shape, make([]T, shape.NumElements()))
}

// Name returns the parameter name.
func (p *Parameter[T]) Name() string {
	return p.name
}

// Shape returns the parameter shape.
func (p *Parameter[T]) Shape() grad.Shape {
	return p.shape.Clone()
}

// Data returns the parameter values. The slice aliases the parameter.
func (p *Parameter[T]) Data() []T {
	return p.data
}

// Grad returns the gradient slot, or nil before any backward pass.
// The slice aliases the slot.
func (p *Parameter[T]) Grad() []T {
	return p.grad
}

// HasGrad reports whether the gradient slot is populated.
func (p *Parameter[T]) HasGrad() bool {
	return p.grad != nil
}

// SetGrad replaces the gradient slot with a copy of g.
func (p *Parameter[T]) SetGrad(g []T) {
	if g == nil {
		p.grad = nil
		return
	}
	p.grad = make([]T, len(g))
	copy(p.grad, g)
}

// Accumulate adds g into the gradient slot, allocating it on first use.
//
// This is what a backward pass does: successive backward calls sum into the
// same slot until it is captured or cleared.
func (p *Parameter[T]) Accumulate(g []T) error {
	if len(g) != len(p.data) {
		return fmt.Errorf("param %q: %w: gradient has %d values, parameter has %d",
			p.name, grad.ErrShapeMismatch, len(g), len(p.data))
	}
	if p.grad == nil {
		p.grad = make([]T, len(p.data))
	}
	for i, v := range g {
		p.grad[i] += v
	}
	return nil
}

// ZeroGrad zeroes the gradient slot in place. A nil slot stays nil.
func (p *Parameter[T]) ZeroGrad() {
	for i := range p.grad {
		p.grad[i] = 0
	}
}

// ClearGrad drops the gradient slot entirely.
func (p *Parameter[T]) ClearGrad() {
	p.grad = nil
}
