package cpu

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/parallel"
	"github.com/reverie-ml/reverie/internal/tensor"
)

// PadReflect pads the two spatial dimensions of a [N, C, H, W] tensor by pad
// on every side with reflect-mode boundary extension. The edge pixel itself is
// not repeated: for pad=2 a row [a b c d] extends to [c b|a b c d|c b].
//
// Reflect padding preserves edge values under kernels that sum to one, which
// keeps the cascade smoother from darkening image borders.
func (cpu *CPUBackend) PadReflect(x *tensor.RawTensor, pad int) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("padReflect: input must be 4D [N,C,H,W], got %dD", len(shape)))
	}
	if pad < 0 {
		panic(fmt.Sprintf("padReflect: invalid pad %d", pad))
	}
	if pad == 0 {
		return x.Clone()
	}

	N, C, H, W := shape[0], shape[1], shape[2], shape[3]
	if pad >= H || pad >= W {
		panic(fmt.Sprintf("padReflect: pad %d too large for spatial dims %dx%d", pad, H, W))
	}

	HOut := H + 2*pad
	WOut := W + 2*pad

	result, err := tensor.NewRaw(tensor.Shape{N, C, HOut, WOut}, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("padReflect: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		padReflect(result.AsFloat32(), x.AsFloat32(), N, C, H, W, pad, cpu.par)
	case tensor.Float64:
		padReflect(result.AsFloat64(), x.AsFloat64(), N, C, H, W, pad, cpu.par)
	default:
		panic(fmt.Sprintf("padReflect: unsupported dtype %s", x.DType()))
	}

	return result
}

func padReflect[T float32 | float64](out, in []T, n, c, h, w, pad int, par parallel.Config) {
	hOut := h + 2*pad
	wOut := w + 2*pad

	parallel.ForBatch(n, c, func(ni, ci int) {
		srcBase := (ni*c + ci) * h * w
		dstBase := (ni*c + ci) * hOut * wOut
		for y := 0; y < hOut; y++ {
			sy := reflectIndex(y-pad, h)
			for x := 0; x < wOut; x++ {
				sx := reflectIndex(x-pad, w)
				out[dstBase+y*wOut+x] = in[srcBase+sy*w+sx]
			}
		}
	}, par)
}

// reflectIndex mirrors an out-of-range index back into [0, n) without
// repeating the boundary element: -1 -> 1, n -> n-2.
func reflectIndex(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}
