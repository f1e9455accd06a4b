package ops

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// Conv2DOp records a grouped 2D cross-correlation:
//
//	output = Conv2D(input, kernel, stride, padding, groups)
//
// Backward computes the input gradient only. The kernel here is a fixed
// smoothing bank (gaussian outer products), never a trainable parameter, so
// its gradient slot stays nil and the tape skips it.
//
// The input gradient is the transposed convolution of the output gradient
// with the same kernel, computed in scatter form: every output position
// distributes its gradient back over the kernel window it read from.
type Conv2DOp struct {
	input   *tensor.RawTensor
	kernel  *tensor.RawTensor
	output  *tensor.RawTensor
	stride  int
	padding int
	groups  int
}

// NewConv2DOp creates a new Conv2DOp.
func NewConv2DOp(input, kernel, output *tensor.RawTensor, stride, padding, groups int) *Conv2DOp {
	return &Conv2DOp{
		input:   input,
		kernel:  kernel,
		output:  output,
		stride:  stride,
		padding: padding,
		groups:  groups,
	}
}

// Inputs returns [input, kernel].
func (op *Conv2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.kernel}
}

// Output returns the convolution result.
func (op *Conv2DOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward scatters the output gradient through the kernel back onto the
// input. Returns [inputGrad, nil].
func (op *Conv2DOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inputGrad, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("conv2d backward: %v", err))
	}

	switch op.input.DType() {
	case tensor.Float32:
		convScatter(inputGrad.AsFloat32(), outputGrad.AsFloat32(), op.kernel.AsFloat32(),
			op.input.Shape(), op.output.Shape(), op.kernel.Shape(), op.stride, op.padding, op.groups)
	case tensor.Float64:
		convScatter(inputGrad.AsFloat64(), outputGrad.AsFloat64(), op.kernel.AsFloat64(),
			op.input.Shape(), op.output.Shape(), op.kernel.Shape(), op.stride, op.padding, op.groups)
	default:
		panic(fmt.Sprintf("conv2d backward: unsupported dtype %s", op.input.DType()))
	}

	return []*tensor.RawTensor{inputGrad, nil}
}

// convScatter accumulates gradIn[n, ci, oh*s-p+kh, ow*s-p+kw] +=
// gradOut[n, co, oh, ow] * K[co, ci', kh, kw] over every valid position,
// honoring the group structure (ci' is ci relative to the group's channel
// range).
func convScatter[T float32 | float64](
	gradIn, gradOut, kern []T,
	inShape, outShape, kShape tensor.Shape,
	stride, padding, groups int,
) {
	N, C, H, W := inShape[0], inShape[1], inShape[2], inShape[3]
	COut, HOut, WOut := outShape[1], outShape[2], outShape[3]
	KH, KW := kShape[2], kShape[3]

	cPerGroup := C / groups
	coPerGroup := COut / groups

	for n := 0; n < N; n++ {
		for co := 0; co < COut; co++ {
			g := co / coPerGroup
			cStart := g * cPerGroup
			for oh := 0; oh < HOut; oh++ {
				for ow := 0; ow < WOut; ow++ {
					gv := gradOut[((n*COut+co)*HOut+oh)*WOut+ow]
					if gv == 0 {
						continue
					}
					for ci := 0; ci < cPerGroup; ci++ {
						for kh := 0; kh < KH; kh++ {
							ih := oh*stride - padding + kh
							if ih < 0 || ih >= H {
								continue
							}
							for kw := 0; kw < KW; kw++ {
								iw := ow*stride - padding + kw
								if iw < 0 || iw >= W {
									continue
								}
								k := kern[((co*cPerGroup+ci)*KH+kh)*KW+kw]
								gradIn[((n*C+cStart+ci)*H+ih)*W+iw] += gv * k
							}
						}
					}
				}
			}
		}
	}
}
