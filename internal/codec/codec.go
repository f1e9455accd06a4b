// Package codec converts between pixel-domain images and the normalized
// channel-first tensor representation used during gradient-ascent synthesis.
//
// Pixel images are [H, W, 3] float32 tensors with values in [0, 1].
// Normalized tensors are [1, 3, H, W], shifted and scaled per channel by a
// model's normalization profile. Normalize and Denormalize are exact
// inverses up to floating-point rounding.
package codec

import (
	"errors"
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/reverie-ml/reverie/internal/profile"
	"github.com/reverie-ml/reverie/internal/tensor"
)

var (
	// ErrInvalidPath is returned when a source image path does not exist.
	ErrInvalidPath = errors.New("codec: path does not exist")

	// ErrImageDecode is returned when a source image cannot be decoded.
	ErrImageDecode = errors.New("codec: image decode failed")

	// ErrInvalidShape is returned when a tensor does not have the expected
	// batch-of-one, three-channel layout. Shared with the regularizers so
	// callers match one sentinel for the whole taxonomy.
	ErrInvalidShape = tensor.ErrInvalidShape
)

// Codec converts images for one backend. The zero value is not usable; use
// New.
type Codec[B tensor.Backend] struct {
	backend B
}

// New creates a Codec running on the given backend.
func New[B tensor.Backend](b B) *Codec[B] {
	return &Codec[B]{backend: b}
}

// Load produces the source pixel image for a synthesis run.
//
// With an empty path it returns a [targetSize, targetSize, 3] tensor of
// independent uniform-random values in [0, 1), the noise seed for
// dream-from-scratch mode. Otherwise it decodes the image at path and
// resizes it so the shorter side matches the profile's target size,
// preserving aspect ratio.
func (c *Codec[B]) Load(path string, p profile.Profile) (*tensor.Tensor[float32, B], error) {
	if path == "" {
		return tensor.Rand[float32](tensor.Shape{p.TargetSize, p.TargetSize, 3}, c.backend), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
		}
		// Not a decode failure; surface the I/O error itself.
		return nil, fmt.Errorf("codec: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, path, err)
	}

	return c.toPixels(resizeShortSide(img, p.TargetSize)), nil
}

// Normalize converts a [H, W, 3] pixel image into a normalized [1, 3, H, W]
// tensor: out[c] = (pixel[c] - mean[c]) / std[c].
func (c *Codec[B]) Normalize(pixels *tensor.Tensor[float32, B], p profile.Profile) (*tensor.Tensor[float32, B], error) {
	shape := pixels.Shape()
	if len(shape) != 3 || shape[2] != 3 {
		return nil, fmt.Errorf("%w: want [H, W, 3] pixels, got %v", ErrInvalidShape, shape)
	}

	mean, std, err := c.statTensors(p)
	if err != nil {
		return nil, err
	}

	chw := pixels.Transpose(2, 0, 1).Unsqueeze(0)
	return chw.Sub(mean).Div(std), nil
}

// Denormalize inverts Normalize: pixel[c] = tensor[c] * std[c] + mean[c],
// batch dimension removed, axes reordered to channel-last. The batch
// dimension must be exactly 1 and the channel count exactly 3.
func (c *Codec[B]) Denormalize(t *tensor.Tensor[float32, B], p profile.Profile) (*tensor.Tensor[float32, B], error) {
	shape := t.Shape()
	if len(shape) != 4 || shape[0] != 1 || shape[1] != 3 {
		return nil, fmt.Errorf("%w: want [1, 3, H, W] tensor, got %v", ErrInvalidShape, shape)
	}

	mean, std, err := c.statTensors(p)
	if err != nil {
		return nil, err
	}

	return t.Mul(std).Add(mean).Squeeze(0).Transpose(1, 2, 0), nil
}

// statTensors builds [1, 3, 1, 1] mean and std tensors that broadcast
// against a [1, 3, H, W] image in a single backend call.
func (c *Codec[B]) statTensors(p profile.Profile) (mean, std *tensor.Tensor[float32, B], err error) {
	mean, err = tensor.FromSlice(p.Mean[:], tensor.Shape{1, 3, 1, 1}, c.backend)
	if err != nil {
		return nil, nil, err
	}
	std, err = tensor.FromSlice(p.Std[:], tensor.Shape{1, 3, 1, 1}, c.backend)
	if err != nil {
		return nil, nil, err
	}
	return mean, std, nil
}

// toPixels converts a decoded image into a [H, W, 3] float32 tensor in
// [0, 1], dropping alpha.
func (c *Codec[B]) toPixels(img image.Image) *tensor.Tensor[float32, B] {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()

	t := tensor.Zeros[float32](tensor.Shape{h, w, 3}, c.backend)
	data := t.Data()

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			data[i] = float32(r>>8) / 255
			data[i+1] = float32(g>>8) / 255
			data[i+2] = float32(b>>8) / 255
			i += 3
		}
	}
	return t
}

// resizeShortSide scales img so its shorter side equals target, preserving
// aspect ratio. Images already at the target size pass through untouched.
func resizeShortSide(img image.Image, target int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	short := min(w, h)
	if short == target {
		return img
	}

	scale := float64(target) / float64(short)
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
