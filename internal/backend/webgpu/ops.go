//go:build windows

package webgpu

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// Add performs element-wise addition on GPU.
func (b *Backend) Add(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes(a, other)
	result, err := b.runBinaryOp(a, other, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction on GPU.
func (b *Backend) Sub(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes(a, other)
	result, err := b.runBinaryOp(a, other, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication on GPU.
func (b *Backend) Mul(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes(a, other)
	result, err := b.runBinaryOp(a, other, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division on GPU.
func (b *Backend) Div(a, other *tensor.RawTensor) *tensor.RawTensor {
	a, other = b.alignShapes(a, other)
	result, err := b.runBinaryOp(a, other, "div", divShader)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// AddScalar adds a scalar value on GPU.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := b.runScalarOp(x, toFloat32("AddScalar", scalar), "add_scalar", addScalarShader)
	if err != nil {
		panic("webgpu: AddScalar: " + err.Error())
	}
	return result
}

// SubScalar subtracts a scalar value on GPU.
func (b *Backend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := b.runScalarOp(x, toFloat32("SubScalar", scalar), "sub_scalar", subScalarShader)
	if err != nil {
		panic("webgpu: SubScalar: " + err.Error())
	}
	return result
}

// MulScalar multiplies by a scalar value on GPU.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := b.runScalarOp(x, toFloat32("MulScalar", scalar), "mul_scalar", mulScalarShader)
	if err != nil {
		panic("webgpu: MulScalar: " + err.Error())
	}
	return result
}

// DivScalar divides by a scalar value on GPU.
func (b *Backend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := b.runScalarOp(x, toFloat32("DivScalar", scalar), "div_scalar", divScalarShader)
	if err != nil {
		panic("webgpu: DivScalar: " + err.Error())
	}
	return result
}

// Conv2D performs grouped 2D cross-correlation on GPU.
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding, groups int) *tensor.RawTensor {
	if len(input.Shape()) != 4 || len(kernel.Shape()) != 4 {
		panic(fmt.Sprintf("webgpu: Conv2D: input and kernel must be 4D, got %v and %v",
			input.Shape(), kernel.Shape()))
	}
	result, err := b.runConv2D(input, kernel, stride, padding, groups)
	if err != nil {
		panic("webgpu: Conv2D: " + err.Error())
	}
	return result
}

// PadReflect pads spatially with reflect-mode extension on GPU.
func (b *Backend) PadReflect(x *tensor.RawTensor, pad int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("webgpu: PadReflect: input must be 4D [N,C,H,W], got %dD", len(shape)))
	}
	if pad < 0 || pad >= shape[2] || pad >= shape[3] {
		panic(fmt.Sprintf("webgpu: PadReflect: pad %d out of range for spatial dims %dx%d",
			pad, shape[2], shape[3]))
	}
	if pad == 0 {
		return x.Clone()
	}
	result, err := b.runPadReflect(x, pad)
	if err != nil {
		panic("webgpu: PadReflect: " + err.Error())
	}
	return result
}

// Roll circularly shifts the tensor on GPU.
func (b *Backend) Roll(x *tensor.RawTensor, shifts, dims []int) *tensor.RawTensor {
	if len(shifts) != len(dims) {
		panic(fmt.Sprintf("webgpu: Roll: %d shifts for %d dims", len(shifts), len(dims)))
	}

	shape := x.Shape()
	ndim := len(shape)

	offset := make([]int, ndim)
	for i, d := range dims {
		if d < 0 {
			d = ndim + d
		}
		if d < 0 || d >= ndim {
			panic(fmt.Sprintf("webgpu: Roll: dimension %d out of range for %dD tensor", dims[i], ndim))
		}
		size := shape[d]
		s := shifts[i] % size
		if s < 0 {
			s += size
		}
		offset[d] = (offset[d] + s) % size
	}

	result, err := b.runRoll(x, offset)
	if err != nil {
		panic("webgpu: Roll: " + err.Error())
	}
	return result
}

// ClampChannels clamps per-channel values on GPU, in place. Returns x.
func (b *Backend) ClampChannels(x *tensor.RawTensor, lo, hi []float32) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("webgpu: ClampChannels: input must be 4D [N,C,H,W], got %dD", len(shape)))
	}
	if len(lo) != shape[1] || len(hi) != shape[1] {
		panic(fmt.Sprintf("webgpu: ClampChannels: %d channels but %d/%d bounds",
			shape[1], len(lo), len(hi)))
	}
	if err := b.runClampChannels(x, lo, hi); err != nil {
		panic("webgpu: ClampChannels: " + err.Error())
	}
	return x
}

// Reshape returns a view with a different shape. Metadata only, stays
// host-side.
func (b *Backend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if newShape.NumElements() != x.NumElements() {
		panic(fmt.Sprintf("webgpu: Reshape: shape %v requires %d elements, tensor has %d",
			newShape, newShape.NumElements(), x.NumElements()))
	}
	return x.WithShape(newShape)
}

// Unsqueeze adds a dimension of size 1. Metadata only.
func (b *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + 1 + dim
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("webgpu: Unsqueeze: dimension %d out of range for %dD tensor", dim, ndim))
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return x.WithShape(newShape)
}

// Squeeze removes a dimension of size 1. Metadata only.
func (b *Backend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("webgpu: Squeeze: dimension %d out of range for %dD tensor", dim, ndim))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("webgpu: Squeeze: dimension %d has size %d, expected 1", dim, shape[dim]))
	}

	newShape := make(tensor.Shape, 0, ndim-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)

	return x.WithShape(newShape)
}

// Transpose permutes dimensions host-side; a GPU round trip for a pure
// memory permutation costs more than it saves.
func (b *Backend) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("webgpu: Transpose: %d axes for %dD tensor", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	newShape := make(tensor.Shape, ndim)
	for i, a := range axes {
		if a < 0 || a >= ndim || seen[a] {
			panic(fmt.Sprintf("webgpu: Transpose: invalid axes %v", axes))
		}
		seen[a] = true
		newShape[i] = shape[a]
	}

	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("webgpu: Transpose: only float32 is supported, got %s", x.DType()))
	}

	result, err := tensor.NewRaw(newShape, x.DType(), tensor.WebGPU)
	if err != nil {
		panic("webgpu: Transpose: " + err.Error())
	}

	in := x.AsFloat32()
	out := result.AsFloat32()
	srcStrides := shape.ComputeStrides()

	idx := make([]int, ndim)
	for i := range out {
		src := 0
		for d := 0; d < ndim; d++ {
			src += idx[d] * srcStrides[axes[d]]
		}
		out[i] = in[src]

		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < newShape[d] {
				break
			}
			idx[d] = 0
		}
	}

	return result
}

// Sum reduces to a scalar host-side; the readback dominates either way.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("webgpu: Sum: only float32 is supported, got %s", x.DType()))
	}

	result, err := tensor.NewRaw(tensor.Shape{}, x.DType(), tensor.WebGPU)
	if err != nil {
		panic("webgpu: Sum: " + err.Error())
	}

	var sum float32
	for _, v := range x.AsFloat32() {
		sum += v
	}
	result.AsFloat32()[0] = sum
	return result
}

// alignShapes materializes NumPy-style broadcasting before an element-wise
// shader, which expects equal shapes. The expanded operand is written out
// host-side; the stat tensors this hits are tiny ([1, C, 1, 1]).
func (b *Backend) alignShapes(a, c *tensor.RawTensor) (*tensor.RawTensor, *tensor.RawTensor) {
	if a.Shape().Equal(c.Shape()) {
		return a, c
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), c.Shape())
	if err != nil {
		panic("webgpu: " + err.Error())
	}

	return b.expandTo(a, outShape), b.expandTo(c, outShape)
}

// expandTo broadcasts x to shape by repeating along size-1 dimensions.
func (b *Backend) expandTo(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	if x.Shape().Equal(shape) {
		return x
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("webgpu: broadcast: only float32 is supported, got %s", x.DType()))
	}

	result, err := tensor.NewRaw(shape, x.DType(), tensor.WebGPU)
	if err != nil {
		panic("webgpu: broadcast: " + err.Error())
	}

	srcShape := x.Shape()
	srcStrides := srcShape.ComputeStrides()
	ndim := len(shape)
	skip := ndim - len(srcShape)

	// Stride 0 along broadcast dimensions.
	strides := make([]int, ndim)
	for d := 0; d < ndim; d++ {
		if d >= skip && srcShape[d-skip] != 1 {
			strides[d] = srcStrides[d-skip]
		}
	}

	in := x.AsFloat32()
	out := result.AsFloat32()
	idx := make([]int, ndim)
	for i := range out {
		src := 0
		for d := 0; d < ndim; d++ {
			src += idx[d] * strides[d]
		}
		out[i] = in[src]

		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}

	return result
}

func toFloat32(name string, scalar any) float32 {
	s, ok := scalar.(float32)
	if !ok {
		panic(fmt.Sprintf("webgpu: %s: scalar type %T does not match tensor dtype float32", name, scalar))
	}
	return s
}
