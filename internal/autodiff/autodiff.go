// Package autodiff implements automatic differentiation using the decorator
// pattern.
//
// AutodiffBackend wraps any Backend implementation (CPU, WebGPU) and adds
// gradient tracking through a GradientTape:
//
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - GradientTape: records operations during the forward pass
//   - Operation interface: each op implements its own backward pass
//   - Reverse-mode AD: gradients flow from the loss back to the image
//
// The intended loop clears the tape, runs a forward pass, calls Backward
// with a seed gradient, and reads the image gradient out of the returned
// map:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().Clear()
//	loss := ... // forward pass built from backend ops
//	grads := backend.Tape().Backward(seed, backend.Inner())
//	imageGrad := grads[image.Raw()]
package autodiff

import (
	"github.com/reverie-ml/reverie/internal/autodiff/ops"
	"github.com/reverie-ml/reverie/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds automatic differentiation.
// It implements the tensor.Backend interface and records operations in a
// GradientTape.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates a new AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{
		inner: backend,
		tape:  NewGradientTape(),
	}
}

// Tape returns the gradient tape for manual control: starting and stopping
// recording, clearing between steps, running Backward.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *AutodiffBackend[B]) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	// Prevent in-place reuse that would corrupt the recorded graph: with the
	// refcount pinned above one the inner backend must allocate a fresh
	// result instead of overwriting an input.
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Add(a, c)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(a, c, result))
	}
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Sub(a, c)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubOp(a, c, result))
	}
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Mul(a, c)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulOp(a, c, result))
	}
	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Div(a, c)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivOp(a, c, result))
	}
	return result
}

// AddScalar adds a scalar and records the operation.
func (b *AutodiffBackend[B]) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.AddScalar(x, scalar)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddScalarOp(x, scalar, result))
	}
	return result
}

// SubScalar subtracts a scalar and records the operation.
func (b *AutodiffBackend[B]) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.SubScalar(x, scalar)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubScalarOp(x, scalar, result))
	}
	return result
}

// MulScalar multiplies by a scalar and records the operation.
func (b *AutodiffBackend[B]) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.MulScalar(x, scalar)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulScalarOp(x, scalar, result))
	}
	return result
}

// DivScalar divides by a scalar and records the operation.
func (b *AutodiffBackend[B]) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.DivScalar(x, scalar)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivScalarOp(x, scalar, result))
	}
	return result
}

// Conv2D performs 2D cross-correlation and records the operation. Backward
// produces the input gradient only; the kernel is treated as a constant
// filter bank.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding, groups int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()

	result := b.inner.Conv2D(input, kernel, stride, padding, groups)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewConv2DOp(input, kernel, result, stride, padding, groups))
	}
	return result
}

// PadReflect pads spatially with reflection and records the operation.
func (b *AutodiffBackend[B]) PadReflect(x *tensor.RawTensor, pad int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.PadReflect(x, pad)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewPadReflectOp(x, result, pad))
	}
	return result
}

// Roll circularly shifts the tensor and records the operation.
func (b *AutodiffBackend[B]) Roll(x *tensor.RawTensor, shifts, dims []int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Roll(x, shifts, dims)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewRollOp(x, result, shifts, dims))
	}
	return result
}

// ClampChannels clamps per-channel values in place WITHOUT recording. The
// clamp is a projection applied between ascent steps, outside the
// differentiated forward pass; recording it would alias a mutated buffer
// into the graph. Callers clamp after Clear and before the next forward
// pass.
func (b *AutodiffBackend[B]) ClampChannels(x *tensor.RawTensor, lo, hi []float32) *tensor.RawTensor {
	return b.inner.ClampChannels(x, lo, hi)
}

// Reshape changes the shape and records the operation.
func (b *AutodiffBackend[B]) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Reshape(x, newShape)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(x, result))
	}
	return result
}

// Unsqueeze inserts a size-1 dimension and records the operation.
func (b *AutodiffBackend[B]) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Unsqueeze(x, dim)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(x, result))
	}
	return result
}

// Squeeze removes a size-1 dimension and records the operation.
func (b *AutodiffBackend[B]) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Squeeze(x, dim)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(x, result))
	}
	return result
}

// Transpose permutes dimensions and records the operation.
func (b *AutodiffBackend[B]) Transpose(x *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Transpose(x, axes...)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTransposeOp(x, result, axes))
	}
	return result
}

// Sum reduces to a scalar and records the operation.
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sum(x)

	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumOp(x, result))
	}
	return result
}
