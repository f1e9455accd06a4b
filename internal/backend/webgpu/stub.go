//go:build !windows

// Package webgpu implements the WebGPU backend for GPU-accelerated tensor
// operations. The native wgpu library ships for windows only; on other
// platforms New returns an error and callers fall back to the CPU backend.
package webgpu

import (
	"errors"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// ErrUnavailable reports that the native wgpu library is not built for this
// platform.
var ErrUnavailable = errors.New("webgpu: not available on this platform")

// Backend is a placeholder so callers can declare the type on any platform.
// New never returns a usable instance here.
type Backend struct{}

// New reports WebGPU as unavailable.
func New() (*Backend, error) {
	return nil, ErrUnavailable
}

// Release is a no-op.
func (b *Backend) Release() {}

// Name returns the backend name.
func (b *Backend) Name() string { return "WebGPU" }

// Device returns the compute device.
func (b *Backend) Device() tensor.Device { return tensor.WebGPU }

// AdapterName returns an empty adapter description.
func (b *Backend) AdapterName() string { return "" }

func (b *Backend) Add(_, _ *tensor.RawTensor) *tensor.RawTensor  { panic(ErrUnavailable) }
func (b *Backend) Sub(_, _ *tensor.RawTensor) *tensor.RawTensor  { panic(ErrUnavailable) }
func (b *Backend) Mul(_, _ *tensor.RawTensor) *tensor.RawTensor  { panic(ErrUnavailable) }
func (b *Backend) Div(_, _ *tensor.RawTensor) *tensor.RawTensor  { panic(ErrUnavailable) }
func (b *Backend) AddScalar(_ *tensor.RawTensor, _ any) *tensor.RawTensor { panic(ErrUnavailable) }
func (b *Backend) SubScalar(_ *tensor.RawTensor, _ any) *tensor.RawTensor { panic(ErrUnavailable) }
func (b *Backend) MulScalar(_ *tensor.RawTensor, _ any) *tensor.RawTensor { panic(ErrUnavailable) }
func (b *Backend) DivScalar(_ *tensor.RawTensor, _ any) *tensor.RawTensor { panic(ErrUnavailable) }

func (b *Backend) Conv2D(_, _ *tensor.RawTensor, _, _, _ int) *tensor.RawTensor {
	panic(ErrUnavailable)
}

func (b *Backend) PadReflect(_ *tensor.RawTensor, _ int) *tensor.RawTensor { panic(ErrUnavailable) }

func (b *Backend) Roll(_ *tensor.RawTensor, _, _ []int) *tensor.RawTensor { panic(ErrUnavailable) }

func (b *Backend) ClampChannels(_ *tensor.RawTensor, _, _ []float32) *tensor.RawTensor {
	panic(ErrUnavailable)
}

func (b *Backend) Reshape(_ *tensor.RawTensor, _ tensor.Shape) *tensor.RawTensor {
	panic(ErrUnavailable)
}

func (b *Backend) Unsqueeze(_ *tensor.RawTensor, _ int) *tensor.RawTensor { panic(ErrUnavailable) }
func (b *Backend) Squeeze(_ *tensor.RawTensor, _ int) *tensor.RawTensor   { panic(ErrUnavailable) }

func (b *Backend) Transpose(_ *tensor.RawTensor, _ ...int) *tensor.RawTensor {
	panic(ErrUnavailable)
}

func (b *Backend) Sum(_ *tensor.RawTensor) *tensor.RawTensor { panic(ErrUnavailable) }
