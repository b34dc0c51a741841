// Package normalize computes per-objective scale factors so objectives of
// different magnitude compete fairly in the min-norm solve.
//
// Every vector of an objective's gradient set is divided by that objective's
// single factor. The factor only shapes the mixing weights; the combiner
// applies the weights to the unscaled gradients.
package normalize

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/gradsurgery/internal/grad"
)

// Mode selects how an objective's factor is derived.
type Mode int

// Supported modes.
const (
	Loss     Mode = iota + 1 // factor = loss
	LossPlus                 // factor = loss, or 1 when loss <= epsilon
	L2                       // factor = L2 norm of the flattened set
	None                     // factor = 1
)

// DefaultEpsilon is the threshold below which a factor counts as near zero.
const DefaultEpsilon = 1e-8

// ErrUnknownMode is returned by ParseMode for unrecognised names.
var ErrUnknownMode = errors.New("unknown normalization mode")

// String returns the mode name as accepted by ParseMode.
func (m Mode) String() string {
	switch m {
	case Loss:
		return "loss"
	case LossPlus:
		return "loss+"
	case L2:
		return "l2"
	case None:
		return "none"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "loss", "loss+", "l2" or "none".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "loss":
		return Loss, nil
	case "loss+":
		return LossPlus, nil
	case "l2":
		return L2, nil
	case "none":
		return None, nil
	default:
		return 0, fmt.Errorf("normalize: %w: %q", ErrUnknownMode, s)
	}
}

// Input is one objective's loss value and flattened gradient.
type Input struct {
	Kind grad.Kind
	Loss float64
	Flat []float64
}

// Factor returns the scale factor for a single objective.
//
// Near-zero factors never escape: they are replaced by the documented fallback
// and reported through the returned warning (nil when no fallback was needed).
func Factor(in Input, mode Mode, eps float64) (float64, *grad.Warning, error) {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	if math.IsNaN(in.Loss) || math.IsInf(in.Loss, 0) {
		return 0, nil, fmt.Errorf("normalize: objective %s: %w: loss %v", in.Kind, grad.ErrNonFinite, in.Loss)
	}

	switch mode {
	case Loss:
		if in.Loss < eps {
			return eps, warn(in.Kind, "loss %g below %g, factor floored to epsilon", in.Loss, eps), nil
		}
		return in.Loss, nil, nil

	case LossPlus:
		if in.Loss <= eps {
			return 1, warn(in.Kind, "loss %g below %g, factor set to 1", in.Loss, eps), nil
		}
		return in.Loss, nil, nil

	case L2:
		n := floats.Norm(in.Flat, 2)
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, nil, fmt.Errorf("normalize: objective %s: %w: gradient norm %v", in.Kind, grad.ErrNonFinite, n)
		}
		if n < eps {
			return 1, warn(in.Kind, "gradient norm %g below %g, factor set to 1", n, eps), nil
		}
		return n, nil, nil

	case None:
		return 1, nil, nil

	default:
		return 0, nil, fmt.Errorf("normalize: %w: %v", ErrUnknownMode, mode)
	}
}

// Factors computes one factor per objective, keyed by kind.
func Factors(inputs []Input, mode Mode, eps float64) (map[grad.Kind]float64, []grad.Warning, error) {
	out := make(map[grad.Kind]float64, len(inputs))
	var warnings []grad.Warning
	for _, in := range inputs {
		f, w, err := Factor(in, mode, eps)
		if err != nil {
			return nil, nil, err
		}
		if w != nil {
			warnings = append(warnings, *w)
		}
		out[in.Kind] = f
	}
	return out, warnings, nil
}

// Apply returns flat divided by factor. flat is not modified.
func Apply(flat []float64, factor float64) []float64 {
	out := make([]float64, len(flat))
	copy(out, flat)
	if factor != 1 {
		floats.Scale(1/factor, out)
	}
	return out
}

// Restore multiplies a normalized vector back by factor.
func Restore(normalized []float64, factor float64) []float64 {
	out := make([]float64, len(normalized))
	copy(out, normalized)
	if factor != 1 {
		floats.Scale(factor, out)
	}
	return out
}

func warn(kind grad.Kind, format string, args ...any) *grad.Warning {
	return &grad.Warning{
		Kind:    kind,
		Source:  "normalize",
		Message: fmt.Sprintf(format, args...),
	}
}
