package arena

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocAndAt(t *testing.T) {
	a := New[float64](3)
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 3, a.Cap())

	for i, v := range []float64{1.5, -2, 7} {
		idx, err := a.Alloc(v)
		require.NoError(t, err)
		assert.Equal(t, i, idx)
	}

	assert.Equal(t, 3, a.Len())
	assert.Equal(t, -2.0, *a.At(1))

	*a.At(1) = 4
	assert.Equal(t, 4.0, *a.At(1))
}

func TestAddressesStayStable(t *testing.T) {
	a := New[int](4)
	_, err := a.Alloc(10)
	require.NoError(t, err)
	first := a.At(0)

	for i := 0; i < 3; i++ {
		_, err := a.Alloc(i)
		require.NoError(t, err)
	}

	assert.Same(t, first, a.At(0))
}

func TestExhausted(t *testing.T) {
	a := New[int](1)
	_, err := a.Alloc(1)
	require.NoError(t, err)

	_, err = a.Alloc(2)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 1, a.Len())
}

func TestRelease(t *testing.T) {
	a := New[int](2)
	_, err := a.Alloc(1)
	require.NoError(t, err)

	a.Release()
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, a.Cap())

	_, err = a.Alloc(1)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestNegativeCapacity(t *testing.T) {
	a := New[int](-5)
	assert.Equal(t, 0, a.Cap())
}
