// Package cpu implements the pure Go CPU backend.
package cpu

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/parallel"
	"github.com/reverie-ml/reverie/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
//
// Shape violations inside backend operations are programmer errors and panic;
// input validation with error returns belongs to the layers above.
type CPUBackend struct {
	device tensor.Device
	par    parallel.Config
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
		par:    parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b,
		func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// binaryOp dispatches an element-wise binary operation by dtype.
func (cpu *CPUBackend) binaryOp(
	name string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		if needsBroadcast {
			binaryBroadcast(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(), f32)
		} else {
			binarySameShape(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), f32)
		}
	case tensor.Float64:
		if needsBroadcast {
			binaryBroadcast(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape(), f64)
		} else {
			binarySameShape(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), f64)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

func binarySameShape[T float32 | float64](dst, a, b []T, f func(x, y T) T) {
	for i := range dst {
		dst[i] = f(a[i], b[i])
	}
}

// binaryBroadcast walks the output index space, mapping each position back to
// the (possibly size-1) source dimensions.
func binaryBroadcast[T float32 | float64](
	dst, a, b []T,
	outShape, aShape, bShape tensor.Shape,
	f func(x, y T) T,
) {
	ndim := len(outShape)
	aStrides := broadcastStrides(aShape, ndim)
	bStrides := broadcastStrides(bShape, ndim)
	outStrides := outShape.ComputeStrides()

	for i := range dst {
		aIdx, bIdx := 0, 0
		rem := i
		for d := 0; d < ndim; d++ {
			pos := rem / outStrides[d]
			rem %= outStrides[d]
			aIdx += pos * aStrides[d]
			bIdx += pos * bStrides[d]
		}
		dst[i] = f(a[aIdx], b[bIdx])
	}
}

// broadcastStrides returns per-output-dimension strides for a source shape,
// with stride 0 for broadcasted (size-1 or missing) dimensions.
func broadcastStrides(shape tensor.Shape, outNdim int) []int {
	strides := make([]int, outNdim)
	srcStrides := shape.ComputeStrides()
	offset := outNdim - len(shape)
	for d := 0; d < len(shape); d++ {
		if shape[d] != 1 {
			strides[offset+d] = srcStrides[d]
		}
	}
	return strides
}
