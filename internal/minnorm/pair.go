package minnorm

import "math"

// pairResult is the minimiser of ||w·v1 + (1-w)·v2||² over w in [0, 1].
type pairResult struct {
	w1         float64 // Weight on the first vector
	cost       float64 // Squared norm at w1
	degenerate bool    // Segment collapsed to a point, w1 is the midpoint
	i, j       int     // Vector indices, set by the caller
}

// solvePair minimises the scalar quadratic
//
//	f(w) = w²·g11 + 2w(1-w)·g12 + (1-w)²·g22
//
// on [0, 1], where g11 = <v1,v1>, g12 = <v1,v2>, g22 = <v2,v2>.
// The unconstrained optimum is w = (g22 - g12) / ||v1 - v2||². When
// ||v1 - v2||² <= eps·(g11 + g22) the segment is a point and the midpoint is used.
func solvePair(g11, g12, g22, eps float64) pairResult {
	denom := g11 + g22 - 2*g12
	if denom <= eps*(g11+g22) {
		cost := 0.25 * (g11 + 2*g12 + g22)
		return pairResult{w1: 0.5, cost: math.Max(cost, 0), degenerate: true}
	}

	w := (g22 - g12) / denom
	w = math.Min(math.Max(w, 0), 1)
	cost := w*w*g11 + 2*w*(1-w)*g12 + (1-w)*(1-w)*g22
	return pairResult{w1: w, cost: math.Max(cost, 0)}
}

// MinNormPair returns the weight on v1 and the squared norm of the min-norm
// point on the segment [v1, v2], given their inner products.
func MinNormPair(v1v1, v1v2, v2v2 float64) (w1, cost float64) {
	r := solvePair(v1v1, v1v2, v2v2, DefaultConfig().Epsilon)
	return r.w1, r.cost
}
