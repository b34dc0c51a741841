// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package surgery

import (
	"fmt"

	"github.com/born-ml/gradsurgery/internal/combine"
	"github.com/born-ml/gradsurgery/internal/grad"
	"github.com/born-ml/gradsurgery/internal/minnorm"
	"github.com/born-ml/gradsurgery/internal/normalize"
	"github.com/born-ml/gradsurgery/internal/param"
	"github.com/born-ml/gradsurgery/internal/store"
)

// Float is the constraint for gradient element types (float32 or float64).
type Float = grad.Float

// Shape represents the dimensions of a parameter tensor.
type Shape = grad.Shape

// Vector is an immutable gradient snapshot for one parameter.
type Vector[T Float] = grad.Vector[T]

// Set is the ordered gradient snapshots of one objective over a parameter group.
type Set[T Float] = grad.Set[T]

// NewVector copies data into a new gradient snapshot for the parameter at index.
func NewVector[T Float](index int, name string, shape Shape, data []T) (*Vector[T], error) {
	return grad.NewVector(index, name, shape, data)
}

// Objectives

// Kind identifies an objective competing for shared parameters.
type Kind = grad.Kind

// Predefined objective kinds.
var (
	Domain     = grad.Domain
	Covariance = grad.Covariance
	Frequency  = grad.Frequency
	Label      = grad.Label
	Magnitude  = grad.Magnitude
)

// CustomKind returns a caller-defined objective kind.
func CustomKind(name string) Kind {
	return grad.CustomKind(name)
}

// Objective pairs an objective kind with its loss value and captured gradients.
type Objective[T Float] = combine.Objective[T]

// Parameters

// Parameter is a trainable parameter with a gradient slot.
type Parameter[T Float] = param.Parameter[T]

// Group is a named, ordered set of parameters shared by several objectives.
type Group[T Float] = param.Group[T]

// NewParameter creates a parameter over data (used in place).
func NewParameter[T Float](name string, shape Shape, data []T) *Parameter[T] {
	return param.New(name, shape, data)
}

// NewGroup creates a parameter group in the given order.
func NewGroup[T Float](name string, params ...*Parameter[T]) *Group[T] {
	return param.NewGroup(name, params...)
}

// Gradient store

// Lease is exclusive ownership of a group's gradient slots for one step.
type Lease[T Float] = store.Lease[T]

// Acquire takes exclusive ownership of group until Release is called.
//
// Example:
//
//	lease, err := surgery.Acquire(group)
//	if err != nil {
//	    return err
//	}
//	defer lease.Release()
func Acquire[T Float](group *Group[T]) (*Lease[T], error) {
	return store.Acquire(group)
}

// Normalization

// Mode selects how each objective's normalization factor is derived.
type Mode = normalize.Mode

// Normalization modes.
const (
	ModeLoss     = normalize.Loss
	ModeLossPlus = normalize.LossPlus
	ModeL2       = normalize.L2
	ModeNone     = normalize.None
)

// ParseMode parses "loss", "loss+", "l2" or "none".
func ParseMode(s string) (Mode, error) {
	return normalize.ParseMode(s)
}

// Solver

// SolverConfig holds min-norm solver parameters.
type SolverConfig = minnorm.Config

// Solution is the result of a min-norm solve.
type Solution = minnorm.Solution

// Solver finds the minimum-norm point in the convex hull of vectors.
type Solver = minnorm.Solver

// NewSolver creates a min-norm solver. Zero fields take their defaults.
func NewSolver(cfg SolverConfig) *Solver {
	return minnorm.NewSolver(cfg)
}

// Combiner

// Config holds combiner configuration.
type Config = combine.Config

// Combination is the result of one combination.
type Combination[T Float] = combine.Combination[T]

// Combiner merges per-objective gradients into one update.
type Combiner[T Float] = combine.Combiner[T]

// NewCombiner creates a combiner.
//
// Example:
//
//	combiner := surgery.NewCombiner[float32](surgery.Config{
//	    Mode:   surgery.ModeLossPlus,
//	    Solver: surgery.SolverConfig{MaxIter: 250, StopCrit: 1e-5},
//	})
func NewCombiner[T Float](cfg Config) *Combiner[T] {
	return combine.New[T](cfg)
}

// CombineInto combines objectives and writes the result into the lease's
// gradient slots, ready for the optimizer step.
func CombineInto[T Float](lease *Lease[T], combiner *Combiner[T], objectives []Objective[T]) (*Combination[T], error) {
	res, err := combiner.Combine(objectives)
	if err != nil {
		return nil, fmt.Errorf("group %q: %w", lease.Group().Name(), err)
	}
	if err := lease.Assign(res.Gradients); err != nil {
		return nil, err
	}
	return res, nil
}

// Errors

// Error values, matched with errors.Is.
var (
	ErrShapeMismatch   = grad.ErrShapeMismatch
	ErrDegenerateInput = grad.ErrDegenerateInput
	ErrNonFinite       = grad.ErrNonFinite
	ErrUnknownMode     = normalize.ErrUnknownMode
	ErrGroupBusy       = store.ErrGroupBusy
	ErrLeaseReleased   = store.ErrLeaseReleased
	ErrAlreadyCaptured = store.ErrAlreadyCaptured
)

// ShapeMismatchError describes gradient sets that disagree in layout.
type ShapeMismatchError = grad.ShapeMismatchError

// DegenerateInputError describes an objective contributing no usable gradient.
type DegenerateInputError = grad.DegenerateInputError

// Warning is a recovered, non-fatal numeric instability.
type Warning = grad.Warning
