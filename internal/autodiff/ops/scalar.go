package ops

import "github.com/reverie-ml/reverie/internal/tensor"

// Scalar operations share one recorded form: the scalar is a constant, so
// only the tensor input receives a gradient.
//
//   - x + s and x - s pass the output gradient through unchanged.
//   - x * s scales it by s.
//   - x / s scales it by 1/s.

// ScalarOp records an element-wise operation between a tensor and a constant
// scalar. kind selects the backward rule.
type ScalarOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	scalar any
	kind   scalarKind
}

type scalarKind int

const (
	scalarAdd scalarKind = iota
	scalarSub
	scalarMul
	scalarDiv
)

// NewAddScalarOp records output = x + scalar.
func NewAddScalarOp(x *tensor.RawTensor, scalar any, output *tensor.RawTensor) *ScalarOp {
	return &ScalarOp{input: x, output: output, scalar: scalar, kind: scalarAdd}
}

// NewSubScalarOp records output = x - scalar.
func NewSubScalarOp(x *tensor.RawTensor, scalar any, output *tensor.RawTensor) *ScalarOp {
	return &ScalarOp{input: x, output: output, scalar: scalar, kind: scalarSub}
}

// NewMulScalarOp records output = x * scalar.
func NewMulScalarOp(x *tensor.RawTensor, scalar any, output *tensor.RawTensor) *ScalarOp {
	return &ScalarOp{input: x, output: output, scalar: scalar, kind: scalarMul}
}

// NewDivScalarOp records output = x / scalar.
func NewDivScalarOp(x *tensor.RawTensor, scalar any, output *tensor.RawTensor) *ScalarOp {
	return &ScalarOp{input: x, output: output, scalar: scalar, kind: scalarDiv}
}

// Backward applies the rule for the recorded kind.
func (op *ScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	var grad *tensor.RawTensor
	switch op.kind {
	case scalarAdd, scalarSub:
		grad = outputGrad.Clone()
	case scalarMul:
		grad = backend.MulScalar(outputGrad, op.scalar)
	case scalarDiv:
		grad = backend.DivScalar(outputGrad, op.scalar)
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns the tensor input.
func (op *ScalarOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ScalarOp) Output() *tensor.RawTensor {
	return op.output
}
