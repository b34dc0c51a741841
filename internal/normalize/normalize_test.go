package normalize

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradsurgery/internal/grad"
)

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{Loss, LossPlus, L2, None} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}

	_, err := ParseMode("l1")
	assert.True(t, errors.Is(err, ErrUnknownMode))
	assert.Equal(t, "mode(0)", Mode(0).String())
}

func TestFactor(t *testing.T) {
	flat := []float64{3, 4} // L2 norm 5

	tests := []struct {
		name     string
		mode     Mode
		loss     float64
		want     float64
		warning  bool
		flatOver []float64
	}{
		{name: "loss", mode: Loss, loss: 0.7, want: 0.7},
		{name: "loss floored", mode: Loss, loss: 0, want: DefaultEpsilon, warning: true},
		{name: "loss negative floored", mode: Loss, loss: -2, want: DefaultEpsilon, warning: true},
		{name: "loss+", mode: LossPlus, loss: 2.5, want: 2.5},
		{name: "loss+ near zero", mode: LossPlus, loss: 1e-12, want: 1, warning: true},
		{name: "l2", mode: L2, loss: 100, want: 5},
		{name: "l2 zero gradient", mode: L2, loss: 1, want: 1, warning: true, flatOver: []float64{0, 0}},
		{name: "none", mode: None, loss: 42, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Input{Kind: grad.Domain, Loss: tt.loss, Flat: flat}
			if tt.flatOver != nil {
				in.Flat = tt.flatOver
			}

			f, w, err := Factor(in, tt.mode, 0)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, f, 1e-15)
			if tt.warning {
				require.NotNil(t, w)
				assert.Equal(t, grad.Domain, w.Kind)
				assert.Equal(t, "normalize", w.Source)
			} else {
				assert.Nil(t, w)
			}
		})
	}
}

func TestFactor_Errors(t *testing.T) {
	_, _, err := Factor(Input{Kind: grad.Label, Loss: math.NaN()}, LossPlus, 0)
	assert.True(t, errors.Is(err, grad.ErrNonFinite))

	_, _, err = Factor(Input{Kind: grad.Label, Loss: math.Inf(1)}, None, 0)
	assert.True(t, errors.Is(err, grad.ErrNonFinite))

	_, _, err = Factor(Input{Kind: grad.Label, Loss: 1}, Mode(0), 0)
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestFactors(t *testing.T) {
	inputs := []Input{
		{Kind: grad.Domain, Loss: 0.5, Flat: []float64{1}},
		{Kind: grad.Covariance, Loss: 0, Flat: []float64{1}},
		{Kind: grad.Frequency, Loss: 0.002, Flat: []float64{1}},
	}

	factors, warnings, err := Factors(inputs, LossPlus, 0)
	require.NoError(t, err)
	assert.Equal(t, map[grad.Kind]float64{
		grad.Domain:     0.5,
		grad.Covariance: 1,
		grad.Frequency:  0.002,
	}, factors)
	require.Len(t, warnings, 1)
	assert.Equal(t, grad.Covariance, warnings[0].Kind)
}

func TestNone_RoundTripIsExact(t *testing.T) {
	flat := []float64{0.1, -3.7, 1e-30, 123456.789}
	inputs := []Input{{Kind: grad.Domain, Loss: 9, Flat: flat}}

	factors, warnings, err := Factors(inputs, None, 0)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 1.0, factors[grad.Domain])

	scaled := Apply(flat, factors[grad.Domain])
	assert.Equal(t, flat, scaled)
	assert.Equal(t, flat, Restore(scaled, factors[grad.Domain]))
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	flat := []float64{2, 4}
	out := Apply(flat, 2)
	assert.Equal(t, []float64{1, 2}, out)
	assert.Equal(t, []float64{2, 4}, flat)
	assert.Equal(t, flat, Restore(out, 2))
}
