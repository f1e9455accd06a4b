package codec

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reverie-ml/reverie/internal/backend/cpu"
	"github.com/reverie-ml/reverie/internal/profile"
	"github.com/reverie-ml/reverie/internal/tensor"
)

var testProfile = profile.Profile{
	Mean:       [3]float32{0.485, 0.456, 0.406},
	Std:        [3]float32{0.229, 0.224, 0.225},
	TargetSize: 8,
}

func TestLoadNoiseSeed(t *testing.T) {
	c := New(cpu.New())

	p, err := profile.Resolve("vgg19")
	require.NoError(t, err)

	pixels, err := c.Load("", p)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{600, 600, 3}, pixels.Shape())
	for _, v := range pixels.Data() {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}
}

func TestLoadMissingPath(t *testing.T) {
	c := New(cpu.New())

	_, err := c.Load(filepath.Join(t.TempDir(), "nope.png"), testProfile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPath))
}

func TestLoadOpenFailure(t *testing.T) {
	c := New(cpu.New())

	// A path routed through a regular file fails to open with ENOTDIR: the
	// path exists up to the file, so this is neither a missing path nor a
	// decode failure.
	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := c.Load(filepath.Join(file, "img.png"), testProfile)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidPath))
	assert.False(t, errors.Is(err, ErrImageDecode))
}

func TestLoadUndecodable(t *testing.T) {
	c := New(cpu.New())

	path := filepath.Join(t.TempDir(), "garbage.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))

	_, err := c.Load(path, testProfile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrImageDecode))
}

func TestLoadResizesShortSide(t *testing.T) {
	c := New(cpu.New())

	// 20x10 source with target 8: the height is the shorter side, so the
	// result is 16x8 with aspect ratio preserved.
	path := writeTestPNG(t, 20, 10)

	pixels, err := c.Load(path, testProfile)
	require.NoError(t, err)

	assert.Equal(t, tensor.Shape{8, 16, 3}, pixels.Shape())
	for _, v := range pixels.Data() {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}
}

func TestLoadTargetSizePassthrough(t *testing.T) {
	c := New(cpu.New())

	path := writeTestPNG(t, 12, 8)

	pixels, err := c.Load(path, testProfile)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{8, 12, 3}, pixels.Shape())
}

func TestNormalizeDenormalizeRoundTrip(t *testing.T) {
	c := New(cpu.New())

	pixels := tensor.Rand[float32](tensor.Shape{8, 10, 3}, cpu.New())

	normalized, err := c.Normalize(pixels, testProfile)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3, 8, 10}, normalized.Shape())

	restored, err := c.Denormalize(normalized, testProfile)
	require.NoError(t, err)
	assert.Equal(t, pixels.Shape(), restored.Shape())

	for i, want := range pixels.Data() {
		assert.InDelta(t, want, restored.Data()[i], 1e-5)
	}
}

func TestNormalizeValues(t *testing.T) {
	c := New(cpu.New())

	// A uniform 0.5 image normalizes to (0.5 - mean) / std per channel.
	pixels := tensor.Full(tensor.Shape{2, 2, 3}, float32(0.5), cpu.New())

	normalized, err := c.Normalize(pixels, testProfile)
	require.NoError(t, err)

	data := normalized.Data()
	for ch := 0; ch < 3; ch++ {
		want := (0.5 - testProfile.Mean[ch]) / testProfile.Std[ch]
		for i := 0; i < 4; i++ {
			assert.InDelta(t, want, data[ch*4+i], 1e-6)
		}
	}
}

func TestNormalizeRejectsShape(t *testing.T) {
	c := New(cpu.New())

	for _, shape := range []tensor.Shape{{8, 10}, {8, 10, 4}, {1, 3, 8, 10}} {
		_, err := c.Normalize(tensor.Zeros[float32](shape, cpu.New()), testProfile)
		assert.True(t, errors.Is(err, ErrInvalidShape), "shape %v", shape)
	}
}

func TestDenormalizeRejectsShape(t *testing.T) {
	c := New(cpu.New())

	for _, shape := range []tensor.Shape{{3, 8, 10}, {2, 3, 8, 10}, {1, 4, 8, 10}} {
		_, err := c.Denormalize(tensor.Zeros[float32](shape, cpu.New()), testProfile)
		assert.True(t, errors.Is(err, ErrInvalidShape), "shape %v", shape)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	c := New(cpu.New())

	pixels := tensor.Rand[float32](tensor.Shape{8, 12, 3}, cpu.New())
	path := filepath.Join(t.TempDir(), "out.png")

	require.NoError(t, c.Save(pixels, path))

	reloaded, err := c.Load(path, testProfile)
	require.NoError(t, err)
	require.Equal(t, pixels.Shape(), reloaded.Shape())

	// PNG stores 8-bit channels, so quantization costs up to half a step.
	for i, want := range pixels.Data() {
		assert.InDelta(t, want, reloaded.Data()[i], 1.0/255+1e-6)
	}
}

func TestSaveClampsOutOfRange(t *testing.T) {
	c := New(cpu.New())

	pixels := tensor.Zeros[float32](tensor.Shape{1, 2, 3}, cpu.New())
	copy(pixels.Data(), []float32{-0.5, 1.5, 0.5, 2, -1, 1})

	path := filepath.Join(t.TempDir(), "clamped.png")
	require.NoError(t, c.Save(pixels, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)

	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(0), r>>8)
	assert.Equal(t, uint32(255), g>>8)
	assert.Equal(t, uint32(128), b>>8)
}

func TestSaveRejectsShape(t *testing.T) {
	c := New(cpu.New())

	err := c.Save(tensor.Zeros[float32](tensor.Shape{1, 3, 8, 10}, cpu.New()), "unused.png")
	assert.True(t, errors.Is(err, ErrInvalidShape))
}

func TestOutputDir(t *testing.T) {
	base := t.TempDir()

	dir, err := OutputDir(base)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, base, filepath.Dir(dir))
}

// writeTestPNG writes a w x h gradient image and returns its path.
func writeTestPNG(t *testing.T, w, h int) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}

	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}
