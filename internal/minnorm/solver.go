// Package minnorm finds the minimum-norm point in the convex hull of a set of
// gradient vectors.
//
// Given k flattened vectors v_1..v_k it solves
//
//	minimize ||Σ w_i v_i||²  subject to  w_i >= 0, Σ w_i = 1
//
// and returns the weights w. The combination Σ w_i v_i is a direction along
// which no objective increases to first order (MGDA).
//
// Algorithm:
//  1. Gram matrix G_ij = <v_i, v_j>.
//  2. k = 2: closed form on the segment between the two vectors.
//  3. k >= 3: start at the best pair, then Frank-Wolfe iterations whose line
//     search is the same closed form between the current point and the vertex
//     with the smallest inner product with it. Every accepted step strictly
//     lowers the norm.
package minnorm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/gradsurgery/internal/grad"
)

// Config holds solver parameters.
type Config struct {
	MaxIter   int     // Frank-Wolfe iteration cap (default: 250)
	StopCrit  float64 // Relative decrease / duality gap that ends iteration (default: 1e-5)
	Tolerance float64 // Relative tolerance for treating two costs as equal (default: 1e-9)
	Epsilon   float64 // Relative threshold for a degenerate segment (default: 1e-10)
}

// DefaultConfig returns the solver defaults.
func DefaultConfig() Config {
	return Config{
		MaxIter:   250,
		StopCrit:  1e-5,
		Tolerance: 1e-9,
		Epsilon:   1e-10,
	}
}

// Solution is the result of a min-norm solve.
type Solution struct {
	Weights    []float64      // Convex combination weights, one per vector
	MinNorm    float64        // ||Σ w_i v_i||
	Iterations int            // Frank-Wolfe steps taken
	Trace      []float64      // Norm of every iterate, starting at the initial pair
	Warnings   []grad.Warning // Recovered numeric problems
}

// Solver solves min-norm problems. It holds no state between calls.
type Solver struct {
	cfg Config
}

// NewSolver creates a solver. Zero fields of cfg take their defaults.
func NewSolver(cfg Config) *Solver {
	def := DefaultConfig()
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = def.MaxIter
	}
	if cfg.StopCrit <= 0 {
		cfg.StopCrit = def.StopCrit
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = def.Epsilon
	}
	return &Solver{cfg: cfg}
}

// Config returns the effective configuration.
func (s *Solver) Config() Config {
	return s.cfg
}

// FindMinNormElement returns the convex weights whose combination of vectors
// has minimum Euclidean norm.
//
// Returns a *grad.DegenerateInputError if there are no vectors, any vector is
// empty, lengths differ, or values are not finite.
func (s *Solver) FindMinNormElement(vectors [][]float64) (Solution, error) {
	gram, err := Gram(vectors)
	if err != nil {
		return Solution{}, err
	}
	return s.FindMinNormElementGram(gram)
}

// FindMinNormElementGram solves the problem from a precomputed Gram matrix.
func (s *Solver) FindMinNormElementGram(gram *mat.SymDense) (Solution, error) {
	k := gram.SymmetricDim()
	if k == 0 {
		return Solution{}, &grad.DegenerateInputError{Details: "no objectives"}
	}
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			if x := gram.At(i, j); math.IsNaN(x) || math.IsInf(x, 0) {
				return Solution{}, &grad.DegenerateInputError{
					Details: fmt.Sprintf("non-finite inner product <v%d, v%d> = %v", i, j, x),
				}
			}
		}
	}

	if k == 1 {
		n := math.Sqrt(math.Max(gram.At(0, 0), 0))
		return Solution{Weights: []float64{1}, MinNorm: n, Trace: []float64{n}}, nil
	}

	w, pr := s.bestPair(gram)
	sol := Solution{}
	if pr.degenerate {
		sol.Warnings = append(sol.Warnings, grad.Warning{
			Source:  "minnorm",
			Message: fmt.Sprintf("vectors %d and %d coincide, using midpoint weights", pr.i, pr.j),
		})
	}

	cost := quad(gram, w)
	sol.Trace = append(sol.Trace, math.Sqrt(cost))
	if k > 2 {
		w, cost = s.frankWolfe(gram, w, cost, &sol)
	}

	sol.Weights = simplex(w)
	sol.MinNorm = math.Sqrt(math.Max(quad(gram, sol.Weights), 0))
	return sol, nil
}

// frankWolfe refines w in place and returns the final weights and cost.
func (s *Solver) frankWolfe(gram *mat.SymDense, w []float64, cost float64, sol *Solution) ([]float64, float64) {
	k := len(w)
	gw := mat.NewVecDense(k, nil)
	for sol.Iterations < s.cfg.MaxIter {
		gw.MulVec(gram, mat.NewVecDense(k, w))

		t := 0
		for i := 1; i < k; i++ {
			if gw.AtVec(i) < gw.AtVec(t) {
				t = i
			}
		}

		// Duality gap: wᵀGw - min_i (Gw)_i.
		gap := cost - gw.AtVec(t)
		if gap <= s.cfg.StopCrit*cost {
			break
		}

		step := solvePair(cost, gw.AtVec(t), gram.At(t, t), s.cfg.Epsilon)
		if step.degenerate {
			break
		}

		next := make([]float64, k)
		for i := range w {
			next[i] = step.w1 * w[i]
		}
		next[t] += 1 - step.w1

		nextCost := quad(gram, next)
		if nextCost >= cost {
			break
		}

		decrease := cost - nextCost
		w, cost = next, nextCost
		sol.Iterations++
		sol.Trace = append(sol.Trace, math.Sqrt(math.Max(cost, 0)))
		if decrease <= s.cfg.StopCrit*(cost+decrease) {
			break
		}
	}
	return w, cost
}

// bestPair evaluates the closed form on every pair and returns the full
// weight vector of the best one.
//
// Costs equal within Tolerance are broken by the more balanced (higher
// entropy) weights, then by the lowest pair index.
func (s *Solver) bestPair(gram *mat.SymDense) ([]float64, pairResult) {
	k := gram.SymmetricDim()
	var best pairResult
	found := false
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			r := solvePair(gram.At(i, i), gram.At(i, j), gram.At(j, j), s.cfg.Epsilon)
			r.i, r.j = i, j
			if !found {
				best, found = r, true
				continue
			}
			tol := s.cfg.Tolerance * math.Max(1, best.cost)
			switch {
			case r.cost < best.cost-tol:
				best = r
			case math.Abs(r.cost-best.cost) <= tol && entropy(r.w1) > entropy(best.w1)+s.cfg.Tolerance:
				best = r
			}
		}
	}

	w := make([]float64, k)
	w[best.i] = best.w1
	w[best.j] = 1 - best.w1
	return w, best
}

// Gram computes the matrix of pairwise inner products of vectors.
func Gram(vectors [][]float64) (*mat.SymDense, error) {
	k := len(vectors)
	if k == 0 {
		return nil, &grad.DegenerateInputError{Details: "no objectives"}
	}
	n := len(vectors[0])
	data := make([]float64, 0, k*n)
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, &grad.DegenerateInputError{Details: fmt.Sprintf("vector %d is empty", i)}
		}
		if len(v) != n {
			return nil, &grad.DegenerateInputError{
				Details: fmt.Sprintf("vector %d has length %d, expected %d", i, len(v), n),
			}
		}
		data = append(data, v...)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, mat.NewDense(k, n, data))
	return &gram, nil
}

func quad(gram *mat.SymDense, w []float64) float64 {
	v := mat.NewVecDense(len(w), w)
	return mat.Inner(v, gram, v)
}

// simplex clamps round-off negatives and rescales w to sum to one.
func simplex(w []float64) []float64 {
	out := make([]float64, len(w))
	sum := 0.0
	for i, x := range w {
		if x < 0 {
			x = 0
		}
		out[i] = x
		sum += x
	}
	if sum == 0 {
		for i := range out {
			out[i] = 1 / float64(len(out))
		}
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// entropy of the two-point distribution (w, 1-w).
func entropy(w float64) float64 {
	h := 0.0
	for _, p := range [2]float64{w, 1 - w} {
		if p > 0 {
			h -= p * math.Log(p)
		}
	}
	return h
}
