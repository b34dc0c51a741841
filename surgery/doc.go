// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package surgery combines the gradients of several competing losses on shared
// parameters into a single update (multiple-gradient descent).
//
// # Overview
//
// This package contains:
//   - Parameter / Group: trainable parameters with gradient slots
//   - Lease: capture-and-clear of a group's gradients after each backward pass
//   - Combiner: normalization, min-norm solve and weighted sum
//   - Solver: the minimum-norm point in the convex hull of gradient vectors
//
// # Training Step Pattern
//
//	lease, err := surgery.Acquire(feature)
//	if err != nil {
//	    return err
//	}
//	defer lease.Release()
//
//	// 1. One backward pass per objective, each followed by a capture.
//	backward(labelLoss)
//	gy, err := lease.Capture(surgery.Label)
//	backward(domainLoss)
//	gd, err := lease.Capture(surgery.Domain)
//
//	// 2. Combine and write back into the gradient slots.
//	_, err = surgery.CombineInto(lease, combiner, []surgery.Objective[float32]{
//	    {Kind: surgery.Domain, Loss: domainLoss, Grads: gd},
//	    {Kind: surgery.Label, Loss: labelLoss, Grads: gy},
//	})
//
//	// 3. Update parameters.
//	optimizer.Step()
//
// # Normalization
//
// Each objective's gradients are divided by one factor before the solve:
//
//	loss   factor = loss
//	loss+  factor = loss, or 1 when the loss is near zero
//	l2     factor = L2 norm of the objective's gradients
//	none   factor = 1
//
// The weights found on normalized gradients are applied to the original
// gradients, so each objective keeps its true scale in the update.
//
// # Errors
//
// ErrShapeMismatch and ErrDegenerateInput signal wiring bugs in the caller
// (wrong objective set, stale or missing gradients) and should stop training.
// Near-zero denominators and factors are recovered internally and reported as
// Warning values on the Combination.
package surgery
