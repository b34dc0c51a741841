// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides the parameter updates applied after gradient surgery.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - InverseDecay: annealed learning rate for domain-adaptation training
//   - Optimizer interface for custom optimizers
//
// Optimizers read the gradient slots of their parameters, which is where
// surgery.CombineInto writes the combined gradients.
//
// # Training Loop Pattern
//
//	optimizer := optim.NewSGD(params, optim.SGDConfig{LR: 0.01, Momentum: 0.9})
//	schedule := optim.InverseDecay{Mu: 0.01, Alpha: 10, Beta: 0.75, TotalSteps: total}
//
//	for step := range total {
//	    // 1. Zero gradients
//	    optimizer.ZeroGrad()
//
//	    // 2. Backward passes, captures and combination
//	    // ...
//
//	    // 3. Update parameters and anneal the learning rate
//	    optimizer.Step()
//	    schedule.Apply(optimizer, step)
//	}
package optim
