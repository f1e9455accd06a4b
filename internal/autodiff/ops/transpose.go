package ops

import "github.com/reverie-ml/reverie/internal/tensor"

// TransposeOp records a dimension permutation. The backward pass applies the
// inverse permutation to the output gradient.
type TransposeOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	axes   []int // normalized: never empty
}

// NewTransposeOp creates a new TransposeOp. Empty axes means the forward
// pass reversed all dimensions; the normalized form is stored.
func NewTransposeOp(input, output *tensor.RawTensor, axes []int) *TransposeOp {
	ndim := len(input.Shape())
	normalized := make([]int, ndim)
	if len(axes) == 0 {
		for i := range normalized {
			normalized[i] = ndim - 1 - i
		}
	} else {
		copy(normalized, axes)
	}
	return &TransposeOp{input: input, output: output, axes: normalized}
}

// Inputs returns the permuted tensor's source.
func (op *TransposeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the permuted tensor.
func (op *TransposeOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward permutes the output gradient by the inverse axes.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, a := range op.axes {
		inverse[a] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}
