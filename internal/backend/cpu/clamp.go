package cpu

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// ClampChannels clamps channel c of a [N, C, H, W] tensor into [lo[c], hi[c]],
// in place. Returns x for chaining.
//
// This is the projection step of the ascent loop: with per-channel bounds
// -mean/std and (1-mean)/std the clamped tensor always denormalizes into
// displayable [0,1] pixels. Values are overwritten, not detached.
func (cpu *CPUBackend) ClampChannels(x *tensor.RawTensor, lo, hi []float32) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("clampChannels: input must be 4D [N,C,H,W], got %dD", len(shape)))
	}
	C := shape[1]
	if len(lo) != C || len(hi) != C {
		panic(fmt.Sprintf("clampChannels: %d channels but %d/%d bounds", C, len(lo), len(hi)))
	}

	N := shape[0]
	plane := shape[2] * shape[3]

	switch x.DType() {
	case tensor.Float32:
		data := x.AsFloat32()
		for n := 0; n < N; n++ {
			for c := 0; c < C; c++ {
				clampPlane(data[(n*C+c)*plane:(n*C+c+1)*plane], lo[c], hi[c])
			}
		}
	case tensor.Float64:
		data := x.AsFloat64()
		for n := 0; n < N; n++ {
			for c := 0; c < C; c++ {
				clampPlane(data[(n*C+c)*plane:(n*C+c+1)*plane], float64(lo[c]), float64(hi[c]))
			}
		}
	default:
		panic(fmt.Sprintf("clampChannels: unsupported dtype %s", x.DType()))
	}

	return x
}

func clampPlane[T float32 | float64](data []T, lo, hi T) {
	for i, v := range data {
		if v < lo {
			data[i] = lo
		} else if v > hi {
			data[i] = hi
		}
	}
}
