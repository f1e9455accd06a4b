package profile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveVGG19(t *testing.T) {
	p, err := Resolve("vgg19")
	require.NoError(t, err)

	assert.Equal(t, [3]float32{0.485, 0.456, 0.406}, p.Mean)
	assert.Equal(t, [3]float32{0.229, 0.224, 0.225}, p.Std)
	assert.Equal(t, 600, p.TargetSize)
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve("unknown_model")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknown))
	assert.Contains(t, err.Error(), "unknown_model")
}

func TestClampBounds(t *testing.T) {
	p, err := Resolve("vgg19")
	require.NoError(t, err)

	lo, hi := p.ClampBounds()
	for c := 0; c < 3; c++ {
		assert.InDelta(t, -p.Mean[c]/p.Std[c], lo[c], 1e-7)
		assert.InDelta(t, (1-p.Mean[c])/p.Std[c], hi[c], 1e-7)
		assert.Less(t, lo[c], hi[c])
	}

	// Spot-check the red channel against hand-computed values.
	assert.InDelta(t, -2.1179, lo[0], 1e-4)
	assert.InDelta(t, 2.2489, hi[0], 1e-4)
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	assert.Contains(t, names, "vgg19")
	assert.IsIncreasing(t, names)
}
