package param

import (
	"sync/atomic"

	"github.com/born-ml/gradsurgery/internal/grad"
)

// Group is a named, ordered set of parameters shared by several objectives,
// e.g. the feature extractor or the target channel-transfer matrix.
//
// A parameter's index in the group is its position in Params().
type Group[T grad.Float] struct {
	name   string
	params []*Parameter[T]
	leased atomic.Bool
}

// NewGroup creates a group over params in the given order.
func NewGroup[T grad.Float](name string, params ...*Parameter[T]) *Group[T] {
	ps := make([]*Parameter[T], len(params))
	copy(ps, params)
	return &Group[T]{name: name, params: ps}
}

// Name returns the group name.
func (g *Group[T]) Name() string {
	return g.name
}

// Params returns the parameters in index order.
func (g *Group[T]) Params() []*Parameter[T] {
	return g.params
}

// Len returns the number of parameters.
func (g *Group[T]) Len() int {
	return len(g.params)
}

// Param returns the parameter at index i, or nil if out of range.
func (g *Group[T]) Param(i int) *Parameter[T] {
	if i < 0 || i >= len(g.params) {
		return nil
	}
	return g.params[i]
}

// TryLease marks the group as exclusively owned. It returns false if the
// group is already leased.
func (g *Group[T]) TryLease() bool {
	return g.leased.CompareAndSwap(false, true)
}

// Unlease releases the ownership mark.
func (g *Group[T]) Unlease() {
	g.leased.Store(false)
}

// Leased reports whether the group is currently owned by a lease.
func (g *Group[T]) Leased() bool {
	return g.leased.Load()
}
