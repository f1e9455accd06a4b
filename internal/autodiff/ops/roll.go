package ops

import "github.com/reverie-ml/reverie/internal/tensor"

// RollOp records a circular shift. Roll is a pure permutation of elements,
// so the backward pass rolls the output gradient by the negated shifts to
// put every gradient back where its element came from.
type RollOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	shifts []int
	dims   []int
}

// NewRollOp creates a new RollOp.
func NewRollOp(input, output *tensor.RawTensor, shifts, dims []int) *RollOp {
	s := make([]int, len(shifts))
	copy(s, shifts)
	d := make([]int, len(dims))
	copy(d, dims)
	return &RollOp{input: input, output: output, shifts: s, dims: d}
}

// Inputs returns the rolled tensor's source.
func (op *RollOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the rolled tensor.
func (op *RollOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward applies the inverse roll to the output gradient.
func (op *RollOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.shifts))
	for i, s := range op.shifts {
		inverse[i] = -s
	}
	return []*tensor.RawTensor{backend.Roll(outputGrad, inverse, op.dims)}
}
