package tensor

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	t := tensor.Ones[float32](Shape{1, 3, 4, 4}, backend)
//	mean := tensor.Ones[float32](Shape{1, 3, 1, 1}, backend)
//	out := t.Add(mean) // Shape: [1, 3, 4, 4] (broadcasted)
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	result := t.backend.Add(t.raw, other.raw)
	return New[T, B](result, t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	result := t.backend.Sub(t.raw, other.raw)
	return New[T, B](result, t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	result := t.backend.Mul(t.raw, other.raw)
	return New[T, B](result, t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	result := t.backend.Div(t.raw, other.raw)
	return New[T, B](result, t.backend)
}

// AddScalar adds a scalar to every element.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	result := t.backend.AddScalar(t.raw, scalar)
	return New[T, B](result, t.backend)
}

// SubScalar subtracts a scalar from every element.
func (t *Tensor[T, B]) SubScalar(scalar T) *Tensor[T, B] {
	result := t.backend.SubScalar(t.raw, scalar)
	return New[T, B](result, t.backend)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	result := t.backend.MulScalar(t.raw, scalar)
	return New[T, B](result, t.backend)
}

// DivScalar divides every element by a scalar.
func (t *Tensor[T, B]) DivScalar(scalar T) *Tensor[T, B] {
	result := t.backend.DivScalar(t.raw, scalar)
	return New[T, B](result, t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	result := t.backend.Reshape(t.raw, Shape(newShape))
	return New[T, B](result, t.backend)
}

// Transpose transposes the tensor by permuting its dimensions.
//
// If axes is empty, reverses all dimensions. Otherwise, axes specifies the
// permutation. The codec uses Transpose(2, 0, 1) and Transpose(1, 2, 0) to
// move between channel-last pixels and channel-first tensors.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	result := t.backend.Transpose(t.raw, axes...)
	return New[T, B](result, t.backend)
}

// Unsqueeze adds a dimension of size 1 at the specified position.
// Supports negative dim indexing. This is a view operation (no data copy).
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	result := t.backend.Unsqueeze(t.raw, dim)
	return New[T, B](result, t.backend)
}

// Squeeze removes a dimension of size 1 at the specified position.
// Panics if the dimension size is not 1. Supports negative dim indexing.
// This is a view operation (no data copy).
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	result := t.backend.Squeeze(t.raw, dim)
	return New[T, B](result, t.backend)
}

// Sum reduces the tensor to a scalar.
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	result := t.backend.Sum(t.raw)
	return New[T, B](result, t.backend)
}
