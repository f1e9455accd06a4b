package ops

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// Needed when the forward pass broadcast one operand, e.g. subtracting
// [1, 3, 1, 1] channel statistics from a [1, 3, H, W] image: the statistic's
// gradient is the image gradient summed over the broadcast dimensions.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()

	// Clone when shapes already match so in-place ops downstream cannot
	// corrupt a shared gradient buffer.
	if gradShape.Equal(targetShape) {
		return grad.Clone()
	}

	if len(targetShape) == 0 {
		return backend.Sum(grad)
	}

	// Broadcasting aligns shapes from the right: sum away extra leading
	// dimensions first, then every dimension the target holds at size 1.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = sumAlongDim(result, 0)
		result = backend.Squeeze(result, 0)
	}
	for d, size := range targetShape {
		if size == 1 && result.Shape()[d] > 1 {
			result = sumAlongDim(result, d)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// sumAlongDim sums a tensor along one dimension, keeping it at size 1.
func sumAlongDim(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumAlongDim: invalid dimension %d for shape %v", dim, shape))
	}

	outShape := shape.Clone()
	outShape[dim] = 1

	result, err := tensor.NewRaw(outShape, t.DType(), t.Device())
	if err != nil {
		panic(fmt.Sprintf("sumAlongDim: %v", err))
	}

	switch t.DType() {
	case tensor.Float32:
		sumDim(t.AsFloat32(), result.AsFloat32(), shape, dim)
	case tensor.Float64:
		sumDim(t.AsFloat64(), result.AsFloat64(), shape, dim)
	default:
		panic(fmt.Sprintf("sumAlongDim: unsupported dtype %s", t.DType()))
	}
	return result
}

func sumDim[T float32 | float64](data, result []T, shape tensor.Shape, dim int) {
	for i := range result {
		result[i] = 0
	}

	strides := shape.ComputeStrides()
	// Split each flat index into (outer, d, inner); the reduced index drops
	// the d coordinate.
	dimSize := shape[dim]
	dimStride := strides[dim]
	outerStride := dimSize * dimStride

	for i, v := range data {
		outer := i / outerStride
		inner := i % dimStride
		result[outer*dimStride+inner] += v
	}
}

// negate returns -grad without mutating it.
func negate(grad *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	switch grad.DType() {
	case tensor.Float32:
		return backend.MulScalar(grad, float32(-1))
	case tensor.Float64:
		return backend.MulScalar(grad, float64(-1))
	default:
		panic(fmt.Sprintf("negate: unsupported dtype %s", grad.DType()))
	}
}
