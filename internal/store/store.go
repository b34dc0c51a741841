// Package store captures per-objective gradients from a shared parameter group.
//
// Several losses are back-propagated one after another through the same
// forward pass. After each backward pass the caller captures the group's
// gradient slots and zeroes them, so the next backward pass accumulates on a
// clean slate:
//
//	lease, err := store.Acquire(featureGroup)
//	if err != nil {
//	    return err
//	}
//	defer lease.Release()
//
//	backward(labelLoss)
//	gy, _ := lease.Capture(grad.Label)
//	backward(domainLoss)
//	gd, _ := lease.Capture(grad.Domain)
//
//	combined, _ := combiner.Combine(records(gy, gd))
//	lease.Assign(combined.Gradients)
//	optimizer.Step()
//
// Capturing is destructive: a slot zeroed by an earlier capture cannot be
// recovered, so captures must follow a fixed order within each step. The lease
// records that order and refuses to capture the same objective twice.
package store

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/born-ml/gradsurgery/internal/grad"
	"github.com/born-ml/gradsurgery/internal/param"
)

// Common errors.
var (
	ErrGroupBusy       = errors.New("parameter group already leased")
	ErrLeaseReleased   = errors.New("lease already released")
	ErrAlreadyCaptured = errors.New("objective already captured in this lease")
)

// Lease is exclusive ownership of a parameter group's gradient slots for the
// duration of one training step.
//
// A Lease is not safe for concurrent use; it belongs to the training goroutine.
type Lease[T grad.Float] struct {
	id       uuid.UUID
	group    *param.Group[T]
	order    []grad.Kind
	released bool
}

// Acquire takes exclusive ownership of group.
//
// Returns ErrGroupBusy if another lease on the group has not been released.
func Acquire[T grad.Float](group *param.Group[T]) (*Lease[T], error) {
	if !group.TryLease() {
		return nil, fmt.Errorf("store: group %q: %w", group.Name(), ErrGroupBusy)
	}
	return &Lease[T]{
		id:    uuid.New(),
		group: group,
	}, nil
}

// ID returns the lease identifier.
func (l *Lease[T]) ID() uuid.UUID {
	return l.id
}

// Group returns the leased group.
func (l *Lease[T]) Group() *param.Group[T] {
	return l.group
}

// Order returns the objectives captured so far, in capture order.
func (l *Lease[T]) Order() []grad.Kind {
	out := make([]grad.Kind, len(l.order))
	copy(out, l.order)
	return out
}

// Capture snapshots every populated gradient slot of the group for kind and
// zeroes those slots.
//
// Parameters with no populated slot are skipped: the loss did not reach them.
// A slot whose length disagrees with its parameter fails with ErrShapeMismatch
// before any slot is zeroed.
func (l *Lease[T]) Capture(kind grad.Kind) (grad.Set[T], error) {
	if err := l.check(); err != nil {
		return nil, err
	}
	for _, k := range l.order {
		if k == kind {
			return nil, fmt.Errorf("store: lease %s: %s: %w", l.id, kind, ErrAlreadyCaptured)
		}
	}

	params := l.group.Params()
	set := make(grad.Set[T], 0, len(params))
	for i, p := range params {
		if !p.HasGrad() {
			continue
		}
		v, err := grad.NewVector(i, p.Name(), p.Shape(), p.Grad())
		if err != nil {
			return nil, fmt.Errorf("store: capture %s: %w", kind, err)
		}
		set = append(set, v)
	}

	for _, p := range params {
		p.ZeroGrad()
	}
	l.order = append(l.order, kind)
	return set, nil
}

// Discard zeroes every gradient slot of the group without capturing it.
//
// Used when a loss reaches the group but must not contribute to its update.
func (l *Lease[T]) Discard() error {
	if err := l.check(); err != nil {
		return err
	}
	for _, p := range l.group.Params() {
		p.ZeroGrad()
	}
	return nil
}

// Assign writes combined gradients into the group's slots, keyed by
// parameter index. Parameters without an entry are left untouched.
//
// All entries are validated before any slot is written.
func (l *Lease[T]) Assign(grads map[int]*grad.Vector[T]) error {
	if err := l.check(); err != nil {
		return err
	}
	for idx, v := range grads {
		p := l.group.Param(idx)
		if p == nil {
			return fmt.Errorf("store: assign: %w: no parameter at index %d in group %q",
				grad.ErrShapeMismatch, idx, l.group.Name())
		}
		if !p.Shape().Equal(v.Shape()) {
			return fmt.Errorf("store: assign: %w: parameter %q has shape %v, gradient %v",
				grad.ErrShapeMismatch, p.Name(), p.Shape(), v.Shape())
		}
	}
	for idx, v := range grads {
		l.group.Param(idx).SetGrad(v.Data())
	}
	return nil
}

// Release ends the lease. It is safe to call more than once.
func (l *Lease[T]) Release() {
	if l.released {
		return
	}
	l.released = true
	l.group.Unlease()
}

func (l *Lease[T]) check() error {
	if l.released {
		return fmt.Errorf("store: lease %s: %w", l.id, ErrLeaseReleased)
	}
	return nil
}
