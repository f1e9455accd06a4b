package regularize

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// Smoother is the differentiable multi-scale low-pass operator applied to
// gradients between ascent steps. It holds three depthwise gaussian kernel
// banks at sigma multiples of {0.5, 1.0, 2.0}; Smooth returns the sum of the
// three blurred copies. The three-scale sum approximates a wider low-pass
// response than a single gaussian while staying cheap: it suppresses
// per-pixel noise without blurring larger coherent structures.
//
// Banks are immutable after construction and safe to share read-only across
// concurrent synthesis runs.
type Smoother[B tensor.Backend] struct {
	backend    B
	banks      [3]*tensor.RawTensor // each [C, 1, k, k]
	pad        int
	channels   int
	kernelSize int
}

// NewSmoother builds the kernel banks for the given kernel size, base sigma,
// and channel count. kernelSize must be odd and positive so the reflect
// padding of kernelSize/2 preserves spatial dimensions exactly.
func NewSmoother[B tensor.Backend](b B, kernelSize int, baseSigma float64, channels int) (*Smoother[B], error) {
	if kernelSize <= 0 || kernelSize%2 == 0 {
		return nil, fmt.Errorf("regularize: kernel size must be odd and positive, got %d", kernelSize)
	}
	if baseSigma <= 0 {
		return nil, fmt.Errorf("regularize: base sigma must be positive, got %g", baseSigma)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("regularize: channel count must be positive, got %d", channels)
	}

	s := &Smoother[B]{
		backend:    b,
		pad:        kernelSize / 2,
		channels:   channels,
		kernelSize: kernelSize,
	}

	for i, scale := range cascadeScales {
		bank, err := kernelBank(kernelSize, baseSigma*scale, channels, b.Device())
		if err != nil {
			return nil, err
		}
		s.banks[i] = bank
	}
	return s, nil
}

// KernelSize returns the spatial size of each kernel in the bank.
func (s *Smoother[B]) KernelSize() int { return s.kernelSize }

// Channels returns the channel count the banks were built for.
func (s *Smoother[B]) Channels() int { return s.channels }

// Bank returns the raw kernel bank at cascade index i. Read-only.
func (s *Smoother[B]) Bank(i int) *tensor.RawTensor { return s.banks[i] }

// Smooth pads the input with reflect-mode extension, applies the three
// depthwise convolutions, and returns their element-wise sum. The output has
// the input's exact shape. Fails with ErrShapeMismatch when the input is not
// 4D with the bank's channel count.
func (s *Smoother[B]) Smooth(t *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	shape := t.Shape()
	if len(shape) != 4 || shape[1] != s.channels {
		return nil, fmt.Errorf("%w: bank built for %d channels, input %v",
			ErrShapeMismatch, s.channels, shape)
	}

	backend := t.Backend()
	padded := backend.PadReflect(t.Raw(), s.pad)

	var sum *tensor.RawTensor
	for _, bank := range s.banks {
		blurred := backend.Conv2D(padded, bank, 1, 0, s.channels)
		if sum == nil {
			sum = blurred
		} else {
			sum = backend.Add(sum, blurred)
		}
	}

	return tensor.New[float32, B](sum, backend), nil
}

// kernelBank builds one [channels, 1, size, size] depthwise bank: a 2D
// gaussian formed as the outer product of two 1D densities centered at
// (size-1)/2, normalized to sum exactly to 1, replicated across channels.
func kernelBank(size int, sigma float64, channels int, device tensor.Device) (*tensor.RawTensor, error) {
	dist := distuv.Normal{Mu: float64(size-1) / 2, Sigma: sigma}

	oneD := make([]float64, size)
	for i := range oneD {
		oneD[i] = dist.Prob(float64(i))
	}

	kernel := make([]float64, size*size)
	var total float64
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := oneD[y] * oneD[x]
			kernel[y*size+x] = v
			total += v
		}
	}
	for i := range kernel {
		kernel[i] /= total
	}

	raw, err := tensor.NewRaw(tensor.Shape{channels, 1, size, size}, tensor.Float32, device)
	if err != nil {
		return nil, fmt.Errorf("regularize: kernel bank: %w", err)
	}

	data := raw.AsFloat32()
	for c := 0; c < channels; c++ {
		for i, v := range kernel {
			data[c*size*size+i] = float32(v)
		}
	}
	return raw, nil
}
