package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradsurgery/internal/grad"
	"github.com/born-ml/gradsurgery/internal/param"
)

func newGroup(t *testing.T) (*param.Group[float32], *param.Parameter[float32], *param.Parameter[float32]) {
	t.Helper()
	w := param.Zeros[float32]("conv.weight", grad.Shape{2, 2})
	b := param.Zeros[float32]("conv.bias", grad.Shape{2})
	return param.NewGroup("feature", w, b), w, b
}

func TestCapture_ReadsThenClears(t *testing.T) {
	group, w, b := newGroup(t)
	lease, err := Acquire(group)
	require.NoError(t, err)
	defer lease.Release()

	require.NoError(t, w.Accumulate([]float32{1, 2, 3, 4}))
	require.NoError(t, b.Accumulate([]float32{5, 6}))

	set, err := lease.Capture(grad.Label)
	require.NoError(t, err)
	require.Len(t, set, 2)
	assert.Equal(t, []float32{1, 2, 3, 4}, set[0].Data())
	assert.Equal(t, []float32{5, 6}, set[1].Data())
	assert.Equal(t, 1, set[1].Index())

	// Slots are zeroed, not dropped.
	assert.Equal(t, []float32{0, 0, 0, 0}, w.Grad())
	assert.Equal(t, []float32{0, 0}, b.Grad())

	// The next backward pass accumulates independently.
	require.NoError(t, w.Accumulate([]float32{1, 1, 1, 1}))
	next, err := lease.Capture(grad.Domain)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1, 1, 1}, next[0].Data())
	assert.Equal(t, []float32{0, 0}, next[1].Data())
}

func TestCapture_AgainWithoutBackwardIsZero(t *testing.T) {
	group, w, b := newGroup(t)
	lease, err := Acquire(group)
	require.NoError(t, err)
	defer lease.Release()

	require.NoError(t, w.Accumulate([]float32{1, -2, 3, -4}))
	require.NoError(t, b.Accumulate([]float32{7, 8}))
	_, err = lease.Capture(grad.Domain)
	require.NoError(t, err)

	again, err := lease.Capture(grad.Covariance)
	require.NoError(t, err)
	require.Len(t, again, 2)
	for _, v := range again {
		for i := 0; i < v.Len(); i++ {
			assert.Zero(t, v.At(i))
		}
	}
}

func TestCapture_SkipsUnreachedParameters(t *testing.T) {
	group, _, b := newGroup(t)
	lease, err := Acquire(group)
	require.NoError(t, err)
	defer lease.Release()

	require.NoError(t, b.Accumulate([]float32{1, 2}))

	set, err := lease.Capture(grad.Frequency)
	require.NoError(t, err)
	require.Len(t, set, 1)
	assert.Equal(t, 1, set[0].Index())
	assert.Equal(t, "conv.bias", set[0].Name())
}

func TestCapture_SnapshotIsImmutable(t *testing.T) {
	group, w, _ := newGroup(t)
	lease, err := Acquire(group)
	require.NoError(t, err)
	defer lease.Release()

	require.NoError(t, w.Accumulate([]float32{1, 2, 3, 4}))
	set, err := lease.Capture(grad.Domain)
	require.NoError(t, err)

	require.NoError(t, w.Accumulate([]float32{10, 10, 10, 10}))
	assert.Equal(t, []float32{1, 2, 3, 4}, set[0].Data())
}

func TestCapture_BadSlotFailsBeforeZeroing(t *testing.T) {
	group, w, b := newGroup(t)
	lease, err := Acquire(group)
	require.NoError(t, err)
	defer lease.Release()

	require.NoError(t, w.Accumulate([]float32{1, 2, 3, 4}))
	b.SetGrad([]float32{1, 2, 3}) // wrong length

	_, err = lease.Capture(grad.Domain)
	require.Error(t, err)
	assert.True(t, errors.Is(err, grad.ErrShapeMismatch))
	assert.Equal(t, []float32{1, 2, 3, 4}, w.Grad(), "no slot may be zeroed on failure")
	assert.Empty(t, lease.Order())
}

func TestCapture_OrderAndDuplicates(t *testing.T) {
	group, _, _ := newGroup(t)
	lease, err := Acquire(group)
	require.NoError(t, err)
	defer lease.Release()

	_, err = lease.Capture(grad.Label)
	require.NoError(t, err)
	_, err = lease.Capture(grad.Domain)
	require.NoError(t, err)

	_, err = lease.Capture(grad.Label)
	assert.True(t, errors.Is(err, ErrAlreadyCaptured))
	assert.Equal(t, []grad.Kind{grad.Label, grad.Domain}, lease.Order())
}

func TestDiscard(t *testing.T) {
	group, w, _ := newGroup(t)
	lease, err := Acquire(group)
	require.NoError(t, err)
	defer lease.Release()

	require.NoError(t, w.Accumulate([]float32{1, 2, 3, 4}))
	require.NoError(t, lease.Discard())
	assert.Equal(t, []float32{0, 0, 0, 0}, w.Grad())
	assert.Empty(t, lease.Order())
}

func TestAssign(t *testing.T) {
	group, w, b := newGroup(t)
	lease, err := Acquire(group)
	require.NoError(t, err)
	defer lease.Release()

	v, err := grad.NewVector(0, "conv.weight", grad.Shape{2, 2}, []float32{4, 3, 2, 1})
	require.NoError(t, err)
	require.NoError(t, lease.Assign(map[int]*grad.Vector[float32]{0: v}))

	assert.Equal(t, []float32{4, 3, 2, 1}, w.Grad())
	assert.False(t, b.HasGrad(), "parameters without an entry are untouched")
}

func TestAssign_Mismatch(t *testing.T) {
	group, w, _ := newGroup(t)
	lease, err := Acquire(group)
	require.NoError(t, err)
	defer lease.Release()

	good, _ := grad.NewVector(0, "conv.weight", grad.Shape{2, 2}, []float32{1, 1, 1, 1})
	wrongShape, _ := grad.NewVector(1, "conv.bias", grad.Shape{3}, []float32{1, 2, 3})
	err = lease.Assign(map[int]*grad.Vector[float32]{0: good, 1: wrongShape})
	assert.True(t, errors.Is(err, grad.ErrShapeMismatch))
	assert.False(t, w.HasGrad(), "nothing is written when any entry is invalid")

	err = lease.Assign(map[int]*grad.Vector[float32]{5: good})
	assert.True(t, errors.Is(err, grad.ErrShapeMismatch))
}

func TestAcquire_Exclusive(t *testing.T) {
	group, _, _ := newGroup(t)

	first, err := Acquire(group)
	require.NoError(t, err)

	_, err = Acquire(group)
	assert.True(t, errors.Is(err, ErrGroupBusy))

	first.Release()
	first.Release() // idempotent

	second, err := Acquire(group)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	second.Release()
}

func TestLease_UseAfterRelease(t *testing.T) {
	group, _, _ := newGroup(t)
	lease, err := Acquire(group)
	require.NoError(t, err)
	lease.Release()

	_, err = lease.Capture(grad.Domain)
	assert.True(t, errors.Is(err, ErrLeaseReleased))
	assert.True(t, errors.Is(lease.Discard(), ErrLeaseReleased))
	assert.True(t, errors.Is(lease.Assign(nil), ErrLeaseReleased))
}
