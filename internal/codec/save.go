package codec

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// OutputDir creates and returns a timestamped directory under base for the
// artifacts of one synthesis run.
func OutputDir(base string) (string, error) {
	dir := filepath.Join(base, time.Now().Format("15_04_05_02_01_2006"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("codec: create output dir: %w", err)
	}
	return dir, nil
}

// Save encodes a [H, W, 3] pixel image in [0, 1] as a PNG file at path.
// Out-of-range values are clamped, not wrapped; a freshly denormalized
// tensor can land epsilon outside [0, 1].
func (c *Codec[B]) Save(pixels *tensor.Tensor[float32, B], path string) error {
	shape := pixels.Shape()
	if len(shape) != 3 || shape[2] != 3 {
		return fmt.Errorf("%w: want [H, W, 3] pixels, got %v", ErrInvalidShape, shape)
	}

	h, w := shape[0], shape[1]
	data := pixels.Data()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: toByte(data[i]),
				G: toByte(data[i+1]),
				B: toByte(data[i+2]),
				A: 255,
			})
			i += 3
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("codec: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("codec: encode %s: %w", path, err)
	}
	return nil
}

func toByte(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}
