package cpu

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// Roll circularly shifts the tensor by shifts[i] along dims[i].
// Elements that move past an edge wrap to the opposite edge; no data is lost
// or zero-filled. Shift magnitudes may exceed the dimension size and may be
// negative.
//
// Roll is a pure permutation, so rolling by (dy, dx) and then by (-dy, -dx)
// restores the input bit for bit. The spatial jitter depends on that.
func (cpu *CPUBackend) Roll(x *tensor.RawTensor, shifts, dims []int) *tensor.RawTensor {
	if len(shifts) != len(dims) {
		panic(fmt.Sprintf("roll: %d shifts for %d dims", len(shifts), len(dims)))
	}

	shape := x.Shape()
	ndim := len(shape)

	// Per-dimension effective shift, normalized into [0, size).
	offset := make([]int, ndim)
	for i, d := range dims {
		if d < 0 {
			d = ndim + d
		}
		if d < 0 || d >= ndim {
			panic(fmt.Sprintf("roll: dimension %d out of range for %dD tensor", dims[i], ndim))
		}
		size := shape[d]
		s := shifts[i] % size
		if s < 0 {
			s += size
		}
		offset[d] = (offset[d] + s) % size
	}

	result, err := tensor.NewRaw(shape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("roll: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		rollCopy(result.AsFloat32(), x.AsFloat32(), shape, offset)
	case tensor.Float64:
		rollCopy(result.AsFloat64(), x.AsFloat64(), shape, offset)
	case tensor.Uint8:
		rollCopy(result.AsUint8(), x.AsUint8(), shape, offset)
	default:
		panic(fmt.Sprintf("roll: unsupported dtype %s", x.DType()))
	}

	return result
}

func rollCopy[T float32 | float64 | uint8](out, in []T, shape tensor.Shape, offset []int) {
	strides := shape.ComputeStrides()
	ndim := len(shape)

	idx := make([]int, ndim)
	for i := range in {
		// out[(idx + offset) mod shape] = in[idx]
		dst := 0
		for d := 0; d < ndim; d++ {
			pos := idx[d] + offset[d]
			if pos >= shape[d] {
				pos -= shape[d]
			}
			dst += pos * strides[d]
		}
		out[dst] = in[i]

		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
}
