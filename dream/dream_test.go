package dream_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reverie-ml/reverie/autodiff"
	"github.com/reverie-ml/reverie/backend/cpu"
	"github.com/reverie-ml/reverie/dream"
	"github.com/reverie-ml/reverie/tensor"
)

// TestSynthesisStep walks one full regularized ascent step: resolve the
// vgg19 profile, seed with noise, normalize, jitter, smooth a gradient,
// update, undo the jitter, clip, and render back to pixels.
func TestSynthesisStep(t *testing.T) {
	prof, err := dream.ResolveProfile("vgg19")
	require.NoError(t, err)
	require.Equal(t, 600, prof.TargetSize)

	backend := autodiff.New(cpu.New())
	codec := dream.NewCodec(backend)

	pixels, err := codec.Load("", prof)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{600, 600, 3}, pixels.Shape())

	img, err := codec.Normalize(pixels, prof)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{1, 3, 600, 600}, img.Shape())

	img = img.Detach().RequireGrad()
	backend.Tape().Clear()

	// Jitter in.
	const dy, dx = 17, 31
	img = dream.Shift(img, dy, dx, false)
	require.Zero(t, backend.Tape().NumOps())

	// Forward pass standing in for the feature extractor.
	loss := img.Mul(img).Sum()
	require.NotZero(t, backend.Tape().NumOps())
	require.Empty(t, loss.Shape())

	seed := tensor.Ones[float32](tensor.Shape{}, backend)
	grads := backend.Tape().Backward(seed.Raw(), backend.Inner())
	rawGrad, ok := grads[img.Raw()]
	require.True(t, ok)

	// Smooth the gradient and take an ascent step.
	smoother, err := dream.NewSmoother(backend, 9, 1.0, 3)
	require.NoError(t, err)

	backend.Tape().Clear()
	grad := tensor.New[float32](rawGrad, backend)
	smoothed, err := smoother.Smooth(grad)
	require.NoError(t, err)
	require.Equal(t, img.Shape(), smoothed.Shape())

	img = img.Add(smoothed.MulScalar(float32(0.05)))

	// Jitter out, project back into displayable range.
	img = dream.Shift(img, dy, dx, true)
	img, err = dream.Clip(img, prof)
	require.NoError(t, err)

	lo, hi := prof.ClampBounds()
	data := img.Data()
	plane := 600 * 600
	for c := 0; c < 3; c++ {
		for _, v := range data[c*plane : c*plane+100] {
			assert.GreaterOrEqual(t, v, lo[c])
			assert.LessOrEqual(t, v, hi[c])
		}
	}

	result, err := codec.Denormalize(img, prof)
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{600, 600, 3}, result.Shape())

	// Clipped tensors denormalize into displayable pixels.
	for _, v := range result.Data()[:1000] {
		assert.GreaterOrEqual(t, v, float32(-1e-5))
		assert.LessOrEqual(t, v, float32(1+1e-5))
	}

	dir, err := dream.OutputDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, codec.Save(result, filepath.Join(dir, "step.png")))
}

func TestClipRejectsWrongChannels(t *testing.T) {
	prof, err := dream.ResolveProfile("vgg19")
	require.NoError(t, err)

	_, err = dream.Clip(tensor.Zeros[float32](tensor.Shape{1, 4, 4, 4}, cpu.New()), prof)
	require.ErrorIs(t, err, dream.ErrInvalidShape)
}

func TestUnknownModelFails(t *testing.T) {
	_, err := dream.ResolveProfile("resnet50")
	require.ErrorIs(t, err, dream.ErrUnknownProfile)
}

func TestProfilesListsVGG19(t *testing.T) {
	assert.Contains(t, dream.Profiles(), "vgg19")
}
