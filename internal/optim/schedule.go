package optim

import "math"

// InverseDecay is the annealing schedule used for adversarial domain
// adaptation:
//
//	p  = step / TotalSteps
//	lr = Mu / (1 + Alpha*p)^Beta
//
// With Alpha = 0 the learning rate stays at Mu.
type InverseDecay struct {
	Mu         float64 // Initial learning rate
	Alpha      float64 // Decay speed
	Beta       float64 // Decay exponent
	TotalSteps int     // Steps in the whole run; p is clamped to [0, 1]
}

// LR returns the learning rate at step.
func (d InverseDecay) LR(step int) float64 {
	p := 0.0
	if d.TotalSteps > 0 {
		p = math.Min(math.Max(float64(step)/float64(d.TotalSteps), 0), 1)
	}
	return d.Mu / math.Pow(1+d.Alpha*p, d.Beta)
}

// Apply sets the optimizer's learning rate for step and returns it.
func (d InverseDecay) Apply(opt Optimizer, step int) float64 {
	lr := d.LR(step)
	opt.SetLR(lr)
	return lr
}
