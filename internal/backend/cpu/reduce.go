package cpu

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// Sum reduces the tensor to a scalar (shape []).
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{}, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		var sum float32
		for _, v := range x.AsFloat32() {
			sum += v
		}
		result.AsFloat32()[0] = sum
	case tensor.Float64:
		var sum float64
		for _, v := range x.AsFloat64() {
			sum += v
		}
		result.AsFloat64()[0] = sum
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	return result
}
