package cpu

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// Reshape returns a view with a different shape over the same buffer.
// The new shape must describe the same number of elements.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("reshape: shape %v requires %d elements, tensor has %d",
			newShape, newShape.NumElements(), x.NumElements()))
	}
	return x.WithShape(newShape)
}

// Unsqueeze adds a dimension of size 1 at the specified position.
// Supports negative dim indexing. View operation, no data copy.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + 1 + dim
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for %dD tensor", dim, ndim))
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return x.WithShape(newShape)
}

// Squeeze removes a dimension of size 1 at the specified position.
// Panics if the dimension size is not 1. Supports negative dim indexing.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("squeeze: dimension %d out of range for %dD tensor", dim, ndim))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, expected 1", dim, shape[dim]))
	}

	newShape := make(tensor.Shape, 0, ndim-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)

	return x.WithShape(newShape)
}

// Transpose permutes the tensor's dimensions.
// Empty axes reverses all dimensions. The data is materialized in the new
// layout (tensors stay contiguous, so this copies).
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: %d axes for %dD tensor", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	newShape := make(tensor.Shape, ndim)
	for i, a := range axes {
		if a < 0 || a >= ndim || seen[a] {
			panic(fmt.Sprintf("transpose: invalid axes %v", axes))
		}
		seen[a] = true
		newShape[i] = shape[a]
	}

	result, err := tensor.NewRaw(newShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		permuteCopy(result.AsFloat32(), x.AsFloat32(), shape, newShape, axes)
	case tensor.Float64:
		permuteCopy(result.AsFloat64(), x.AsFloat64(), shape, newShape, axes)
	case tensor.Uint8:
		permuteCopy(result.AsUint8(), x.AsUint8(), shape, newShape, axes)
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", x.DType()))
	}

	return result
}

func permuteCopy[T float32 | float64 | uint8](out, in []T, srcShape, dstShape tensor.Shape, axes []int) {
	ndim := len(srcShape)
	srcStrides := srcShape.ComputeStrides()

	idx := make([]int, ndim) // index in destination space
	for i := range out {
		src := 0
		for d := 0; d < ndim; d++ {
			src += idx[d] * srcStrides[axes[d]]
		}
		out[i] = in[src]

		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < dstShape[d] {
				break
			}
			idx[d] = 0
		}
	}
}
