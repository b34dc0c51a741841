package optim

import (
	"github.com/born-ml/gradsurgery/internal/grad"
	"github.com/born-ml/gradsurgery/internal/param"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
type SGD[T grad.Float] struct {
	params     []*param.Parameter[T]
	lr         float64
	momentum   float64
	velocities map[*param.Parameter[T]][]float64
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float64 // Learning rate (default: 0.01)
	Momentum float64 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer over params.
func NewSGD[T grad.Float](params []*param.Parameter[T], config SGDConfig) *SGD[T] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[T]{
		params:     params,
		lr:         config.LR,
		momentum:   config.Momentum,
		velocities: make(map[*param.Parameter[T]][]float64),
	}
}

// Step performs a single optimization step.
//
// Parameters with no gradient (not reached by any objective) are skipped.
func (s *SGD[T]) Step() {
	for _, p := range s.params {
		g := p.Grad()
		if g == nil {
			continue
		}

		data := p.Data()
		if s.momentum == 0 {
			for i := range data {
				data[i] -= T(s.lr * float64(g[i]))
			}
			continue
		}

		velocity, exists := s.velocities[p]
		if !exists {
			velocity = make([]float64, len(data))
			s.velocities[p] = velocity
		}
		for i := range data {
			velocity[i] = s.momentum*velocity[i] + float64(g[i])
			data[i] -= T(s.lr * velocity[i])
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (s *SGD[T]) ZeroGrad() {
	clearGrads(s.params)
}

// GetLR returns the current learning rate.
func (s *SGD[T]) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD[T]) SetLR(lr float64) {
	s.lr = lr
}
