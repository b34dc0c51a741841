package optim

import (
	"math"

	"github.com/born-ml/gradsurgery/internal/grad"
	"github.com/born-ml/gradsurgery/internal/param"
)

// Adam implements the Adam optimizer with bias correction.
//
//	m = β1*m + (1-β1)*g
//	v = β2*v + (1-β2)*g²
//	param -= lr * m̂ / (sqrt(v̂) + ε)
type Adam[T grad.Float] struct {
	params []*param.Parameter[T]
	lr     float64
	beta1  float64
	beta2  float64
	eps    float64
	t      int                               // Timestep for bias correction
	m      map[*param.Parameter[T]][]float64 // First moment estimates
	v      map[*param.Parameter[T]][]float64 // Second moment estimates
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer over params.
func NewAdam[T grad.Float](params []*param.Parameter[T], config AdamConfig) *Adam[T] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam[T]{
		params: params,
		lr:     config.LR,
		beta1:  config.Betas[0],
		beta2:  config.Betas[1],
		eps:    config.Eps,
		m:      make(map[*param.Parameter[T]][]float64),
		v:      make(map[*param.Parameter[T]][]float64),
	}
}

// Step performs a single optimization step. Parameters without gradient are skipped.
func (a *Adam[T]) Step() {
	a.t++

	biasCorrection1 := 1.0 - math.Pow(a.beta1, float64(a.t))
	biasCorrection2 := 1.0 - math.Pow(a.beta2, float64(a.t))

	for _, p := range a.params {
		g := p.Grad()
		if g == nil {
			continue
		}

		data := p.Data()
		m, ok := a.m[p]
		if !ok {
			m = make([]float64, len(data))
			a.m[p] = m
		}
		v, ok := a.v[p]
		if !ok {
			v = make([]float64, len(data))
			a.v[p] = v
		}

		for i := range data {
			gi := float64(g[i])
			m[i] = a.beta1*m[i] + (1.0-a.beta1)*gi
			v[i] = a.beta2*v[i] + (1.0-a.beta2)*gi*gi

			mHat := m[i] / biasCorrection1
			vHat := v[i] / biasCorrection2
			data[i] -= T(a.lr * mHat / (math.Sqrt(vHat) + a.eps))
		}
	}
}

// ZeroGrad clears gradients for all parameters.
func (a *Adam[T]) ZeroGrad() {
	clearGrads(a.params)
}

// GetLR returns the current learning rate.
func (a *Adam[T]) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam[T]) SetLR(lr float64) {
	a.lr = lr
}

// GetTimestep returns the number of steps taken.
func (a *Adam[T]) GetTimestep() int {
	return a.t
}
