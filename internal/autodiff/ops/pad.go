package ops

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// PadReflectOp records a reflect-mode spatial padding of a [N, C, H, W]
// tensor. Each padded position aliases an interior source pixel, so the
// backward pass scatter-adds every output gradient back onto the source it
// mirrored. Interior pixels near the border accumulate contributions from
// themselves and their reflections.
type PadReflectOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	pad    int
}

// NewPadReflectOp creates a new PadReflectOp.
func NewPadReflectOp(input, output *tensor.RawTensor, pad int) *PadReflectOp {
	return &PadReflectOp{input: input, output: output, pad: pad}
}

// Inputs returns the padded tensor's source.
func (op *PadReflectOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the padded tensor.
func (op *PadReflectOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward accumulates each padded position's gradient onto the interior
// pixel it reflected.
func (op *PadReflectOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inputGrad, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("padReflect backward: %v", err))
	}

	switch op.input.DType() {
	case tensor.Float32:
		padScatter(inputGrad.AsFloat32(), outputGrad.AsFloat32(), op.input.Shape(), op.pad)
	case tensor.Float64:
		padScatter(inputGrad.AsFloat64(), outputGrad.AsFloat64(), op.input.Shape(), op.pad)
	default:
		panic(fmt.Sprintf("padReflect backward: unsupported dtype %s", op.input.DType()))
	}

	return []*tensor.RawTensor{inputGrad}
}

func padScatter[T float32 | float64](gradIn, gradOut []T, inShape tensor.Shape, pad int) {
	N, C, H, W := inShape[0], inShape[1], inShape[2], inShape[3]
	HP, WP := H+2*pad, W+2*pad

	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			inPlane := gradIn[(n*C+c)*H*W:]
			outPlane := gradOut[(n*C+c)*HP*WP:]
			for oh := 0; oh < HP; oh++ {
				ih := reflectIndex(oh-pad, H)
				for ow := 0; ow < WP; ow++ {
					iw := reflectIndex(ow-pad, W)
					inPlane[ih*W+iw] += outPlane[oh*WP+ow]
				}
			}
		}
	}
}

// reflectIndex mirrors an out-of-range index back into [0, n) without
// repeating the edge element, matching the forward padding.
func reflectIndex(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}
