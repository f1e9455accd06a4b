package ops

import "github.com/reverie-ml/reverie/internal/tensor"

// ReshapeOp records any pure shape change: reshape, unsqueeze, squeeze.
// The data is untouched, so the backward pass reshapes the output gradient
// back to the input's shape.
type ReshapeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{input: input, output: output}
}

// Inputs returns the reshaped tensor's source.
func (op *ReshapeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the reshaped tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward views the output gradient with the input's shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}
