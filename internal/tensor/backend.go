package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - CPU: pure Go reference implementation
//   - WebGPU: GPU compute shaders (transparent performance delegation; callers
//     observe the same program order as on CPU)
//   - Autodiff: decorator recording operations on a gradient tape
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Scalar operations (element-wise with scalar).
	AddScalar(x *RawTensor, scalar any) *RawTensor
	SubScalar(x *RawTensor, scalar any) *RawTensor
	MulScalar(x *RawTensor, scalar any) *RawTensor
	DivScalar(x *RawTensor, scalar any) *RawTensor

	// Conv2D performs 2D cross-correlation.
	// Input [N, C, H, W], kernel [C_out, C/groups, K_h, K_w].
	// groups == C gives the depthwise convolution used by the cascade smoother:
	// each channel is filtered independently, no cross-channel mixing.
	Conv2D(input, kernel *RawTensor, stride, padding, groups int) *RawTensor

	// PadReflect pads the two spatial dimensions of a [N, C, H, W] tensor by
	// pad on every side with reflect-mode boundary extension (edge pixel not
	// repeated).
	PadReflect(x *RawTensor, pad int) *RawTensor

	// Roll circularly shifts the tensor by shifts[i] along dims[i].
	// Elements that move past an edge wrap to the opposite edge.
	Roll(x *RawTensor, shifts, dims []int) *RawTensor

	// ClampChannels clamps channel c of a [N, C, H, W] tensor into
	// [lo[c], hi[c]], in place. Returns x for chaining.
	ClampChannels(x *RawTensor, lo, hi []float32) *RawTensor

	// Shape operations (views, no data copy).
	Reshape(x *RawTensor, newShape Shape) *RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Transpose permutes dimensions. Empty axes reverses all dimensions.
	Transpose(x *RawTensor, axes ...int) *RawTensor

	// Sum reduces to a scalar tensor (shape []).
	Sum(x *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
