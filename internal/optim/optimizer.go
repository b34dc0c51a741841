// Package optim implements the parameter update that follows a gradient
// combination.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//   - InverseDecay: learning-rate schedule lr = mu / (1 + alpha*p)^beta
//
// Optimizers read the gradient slots of their parameters directly, so the
// combined gradients written by a store lease are what gets applied.
//
// Example usage:
//
//	optimizer := optim.NewSGD(params, optim.SGDConfig{LR: 0.01, Momentum: 0.9})
//	schedule := optim.InverseDecay{Mu: 0.01, Alpha: 10, Beta: 0.75, TotalSteps: total}
//
//	for step := range total {
//	    optimizer.ZeroGrad()
//	    // backward passes, captures, combination, lease.Assign(...)
//	    optimizer.Step()
//	    schedule.Apply(optimizer, step)
//	}
package optim

import (
	"github.com/born-ml/gradsurgery/internal/grad"
	"github.com/born-ml/gradsurgery/internal/param"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply the gradient slots to the parameters
//   - ZeroGrad: Clear gradient slots before the next iteration
//   - GetLR / SetLR: Current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Parameters whose gradient slot is empty did not take part in the
	// step and are left unchanged.
	Step()

	// ZeroGrad clears all parameter gradient slots.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR updates the learning rate.
	SetLR(lr float64)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// clearGrads drops the gradient slot of every parameter.
func clearGrads[T grad.Float](params []*param.Parameter[T]) {
	for _, p := range params {
		p.ClearGrad()
	}
}
