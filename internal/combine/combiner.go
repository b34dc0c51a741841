// Package combine merges the gradients of several objectives on a shared
// parameter group into one update.
//
// Steps of Combine:
//  1. Validate that every objective has a non-empty gradient set with the
//     same parameter layout.
//  2. Compute one normalization factor per objective from its loss.
//  3. Solve the min-norm problem on the normalized, flattened gradients.
//  4. Apply the weights to the original (unnormalized) gradients, parameter by
//     parameter.
//
// Normalization only decides the mixing ratio. The applied gradient keeps each
// objective's true scale.
package combine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/born-ml/gradsurgery/internal/grad"
	"github.com/born-ml/gradsurgery/internal/minnorm"
	"github.com/born-ml/gradsurgery/internal/normalize"
	"github.com/born-ml/gradsurgery/internal/parallel"
)

// Objective is one loss competing for the shared parameters: its kind, its
// scalar loss value and the gradient set captured right after its backward pass.
type Objective[T grad.Float] struct {
	Kind  grad.Kind
	Loss  float64
	Grads grad.Set[T]
}

// Config holds combiner configuration.
type Config struct {
	Mode     normalize.Mode  // Normalization mode (default: LossPlus)
	Epsilon  float64         // Near-zero threshold for factors (default: normalize.DefaultEpsilon)
	Solver   minnorm.Config  // Min-norm solver parameters
	Parallel parallel.Config // Element-wise fan-out (default: parallel.DefaultConfig())
	Logger   *slog.Logger    // Receives numeric warnings (default: discard)
}

// Combination is the result of one Combine call.
type Combination[T grad.Float] struct {
	Kinds     []grad.Kind             // Objectives in input order
	Weights   []float64               // Solver weights, aligned with Kinds
	MinNorm   float64                 // Norm of the normalized combination
	Factors   map[grad.Kind]float64   // Normalization factor per objective
	Gradients map[int]*grad.Vector[T] // Combined gradient per parameter index
	Warnings  []grad.Warning          // Recovered numeric problems
}

// Weight returns the weight assigned to kind, or 0 if kind was not combined.
func (c *Combination[T]) Weight(kind grad.Kind) float64 {
	for i, k := range c.Kinds {
		if k == kind {
			return c.Weights[i]
		}
	}
	return 0
}

// MeanAbs returns the mean absolute value of the combined gradient for the
// parameter at index, or 0 if the index was not combined.
func (c *Combination[T]) MeanAbs(index int) float64 {
	v, ok := c.Gradients[index]
	if !ok || v.Len() == 0 {
		return 0
	}
	sum := 0.0
	for i := 0; i < v.Len(); i++ {
		sum += math.Abs(float64(v.At(i)))
	}
	return sum / float64(v.Len())
}

// Combiner computes combined gradients. It keeps no state between calls.
type Combiner[T grad.Float] struct {
	cfg    Config
	solver *minnorm.Solver
	logger *slog.Logger
}

// New creates a combiner. Zero fields of cfg take their defaults.
func New[T grad.Float](cfg Config) *Combiner[T] {
	if cfg.Mode == 0 {
		cfg.Mode = normalize.LossPlus
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = normalize.DefaultEpsilon
	}
	if cfg.Parallel.NumWorkers == 0 {
		cfg.Parallel = parallel.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Combiner[T]{
		cfg:    cfg,
		solver: minnorm.NewSolver(cfg.Solver),
		logger: logger,
	}
}

// Mode returns the normalization mode in use.
func (c *Combiner[T]) Mode() normalize.Mode {
	return c.cfg.Mode
}

// Combine merges the objectives' gradients into one gradient per parameter.
//
// Errors:
//   - *grad.DegenerateInputError: no objectives, a duplicate kind, or an
//     objective with an empty gradient set (not reaching the shared group).
//   - *grad.ShapeMismatchError: the sets disagree in parameter count, index
//     or shape.
//   - grad.ErrNonFinite: a loss or gradient is NaN or Inf.
//
// Degenerate objectives are rejected, never silently given weight 0.
func (c *Combiner[T]) Combine(objectives []Objective[T]) (*Combination[T], error) {
	if err := validate(objectives); err != nil {
		return nil, err
	}

	inputs := make([]normalize.Input, len(objectives))
	for i, o := range objectives {
		inputs[i] = normalize.Input{Kind: o.Kind, Loss: o.Loss, Flat: o.Grads.Flatten()}
	}

	factors, warnings, err := normalize.Factors(inputs, c.cfg.Mode, c.cfg.Epsilon)
	if err != nil {
		return nil, fmt.Errorf("combine: %w", err)
	}

	scaled := make([][]float64, len(inputs))
	for i, in := range inputs {
		scaled[i] = normalize.Apply(in.Flat, factors[in.Kind])
	}

	sol, err := c.solver.FindMinNormElement(scaled)
	if err != nil {
		return nil, fmt.Errorf("combine: %w", err)
	}
	warnings = append(warnings, sol.Warnings...)

	out := &Combination[T]{
		Kinds:     make([]grad.Kind, len(objectives)),
		Weights:   sol.Weights,
		MinNorm:   sol.MinNorm,
		Factors:   factors,
		Gradients: make(map[int]*grad.Vector[T], len(objectives[0].Grads)),
		Warnings:  warnings,
	}
	for i, o := range objectives {
		out.Kinds[i] = o.Kind
	}

	for pos, ref := range objectives[0].Grads {
		v, err := c.weightedSum(objectives, sol.Weights, pos, ref)
		if err != nil {
			return nil, fmt.Errorf("combine: %w", err)
		}
		out.Gradients[ref.Index()] = v
	}

	for _, w := range warnings {
		c.logger.LogAttrs(context.Background(), slog.LevelWarn, "numeric instability recovered",
			slog.String("source", w.Source),
			slog.String("objective", w.Kind.String()),
			slog.String("detail", w.Message))
	}
	c.logger.LogAttrs(context.Background(), slog.LevelDebug, "gradients combined",
		slog.Any("weights", sol.Weights),
		slog.Float64("min_norm", sol.MinNorm),
		slog.Int("iterations", sol.Iterations))

	return out, nil
}

// weightedSum computes Σ_i w_i · g_i[pos] on the unnormalized gradients.
func (c *Combiner[T]) weightedSum(objectives []Objective[T], weights []float64, pos int, ref *grad.Vector[T]) (*grad.Vector[T], error) {
	acc := make([]float64, ref.Len())
	parallel.ForRange(len(acc), func(lo, hi int) {
		for i, o := range objectives {
			w := weights[i]
			if w == 0 {
				continue
			}
			g := o.Grads[pos]
			for j := lo; j < hi; j++ {
				acc[j] += w * float64(g.At(j))
			}
		}
	}, c.cfg.Parallel)

	data := make([]T, len(acc))
	for j, x := range acc {
		data[j] = T(x)
	}
	return grad.NewVector(ref.Index(), ref.Name(), ref.Shape(), data)
}

func validate[T grad.Float](objectives []Objective[T]) error {
	if len(objectives) == 0 {
		return &grad.DegenerateInputError{Details: "no objectives to combine"}
	}

	seen := make(map[grad.Kind]bool, len(objectives))
	for _, o := range objectives {
		if seen[o.Kind] {
			return &grad.DegenerateInputError{Kind: o.Kind, Details: "objective listed twice"}
		}
		seen[o.Kind] = true
		if len(o.Grads) == 0 {
			return &grad.DegenerateInputError{
				Kind:    o.Kind,
				Details: "no gradient reached the shared parameters",
			}
		}
	}

	ref := objectives[0].Grads
	for _, o := range objectives[1:] {
		if err := o.Grads.CheckLayout(o.Kind, ref); err != nil {
			return err
		}
	}

	for _, o := range objectives {
		for _, v := range o.Grads {
			if !v.IsFinite() {
				return fmt.Errorf("combine: objective %s, parameter %q: %w",
					o.Kind, v.Name(), grad.ErrNonFinite)
			}
		}
	}
	return nil
}
