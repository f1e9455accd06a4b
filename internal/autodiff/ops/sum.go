package ops

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// SumOp records a full reduction to a scalar. Every input element contributed
// with weight 1, so the backward pass broadcasts the scalar gradient over the
// input's shape.
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor // scalar, shape []
}

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: input, output: output}
}

// Inputs returns the reduced tensor's source.
func (op *SumOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the scalar sum.
func (op *SumOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward fills a tensor of the input's shape with the scalar gradient.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inputGrad, err := tensor.NewRaw(op.input.Shape(), op.input.DType(), op.input.Device())
	if err != nil {
		panic(fmt.Sprintf("sum backward: %v", err))
	}

	switch op.input.DType() {
	case tensor.Float32:
		g := outputGrad.AsFloat32()[0]
		data := inputGrad.AsFloat32()
		for i := range data {
			data[i] = g
		}
	case tensor.Float64:
		g := outputGrad.AsFloat64()[0]
		data := inputGrad.AsFloat64()
		for i := range data {
			data[i] = g
		}
	default:
		panic(fmt.Sprintf("sum backward: unsupported dtype %s", op.input.DType()))
	}

	return []*tensor.RawTensor{inputGrad}
}
