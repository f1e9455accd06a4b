package regularize

import (
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/reverie-ml/reverie/internal/tensor"
)

// BlurCPU applies the three-scale gaussian cascade to a dense host-resident
// array and returns the element-wise sum of the blurred copies. It never
// touches the autodiff tape, so the ascent loop uses it to smooth an
// already-computed gradient before the update step.
//
// Each cascade pass is a separable gaussian filter applied along every axis
// of the array in turn, with symmetric boundary extension (edge value
// repeated) and a filter radius of int(4*sigma + 0.5). Numerically close to
// Smoother for the same effective sigma, not bit-identical: the boundary
// handling differs.
func BlurCPU(gradient []float32, shape tensor.Shape, sigma float64) []float32 {
	sum := make([]float32, len(gradient))
	for _, scale := range cascadeScales {
		blurred := gaussianFilter(gradient, shape, sigma*scale)
		for i, v := range blurred {
			sum[i] += v
		}
	}
	return sum
}

// gaussianFilter blurs the array along every axis in sequence with a 1D
// gaussian kernel.
func gaussianFilter(data []float32, shape tensor.Shape, sigma float64) []float32 {
	weights := gaussianWeights(sigma)

	src := make([]float32, len(data))
	copy(src, data)
	dst := make([]float32, len(data))

	for axis := range shape {
		if shape[axis] == 1 && len(shape) > 1 {
			// Symmetric extension of a single element is that element.
			continue
		}
		blurAxis(src, dst, shape, axis, weights)
		src, dst = dst, src
	}
	return src
}

// gaussianWeights builds a normalized 1D gaussian of radius
// int(4*sigma + 0.5).
func gaussianWeights(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	dist := distuv.Normal{Mu: 0, Sigma: sigma}

	w := make([]float64, 2*radius+1)
	var total float64
	for i := range w {
		w[i] = dist.Prob(float64(i - radius))
		total += w[i]
	}
	for i := range w {
		w[i] /= total
	}
	return w
}

// blurAxis correlates the array with the 1D kernel along one axis.
func blurAxis(src, dst []float32, shape tensor.Shape, axis int, w []float64) {
	strides := shape.ComputeStrides()
	n := shape[axis]
	stride := strides[axis]
	radius := (len(w) - 1) / 2
	ndim := len(shape)

	idx := make([]int, ndim)
	for i := range dst {
		base := i - idx[axis]*stride

		var acc float64
		for k, wk := range w {
			p := mirrorIndex(idx[axis]+k-radius, n)
			acc += wk * float64(src[base+p*stride])
		}
		dst[i] = float32(acc)

		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
}

// mirrorIndex folds an out-of-range index back into [0, n) with the edge
// element repeated: (d c b a | a b c d | d c b a).
func mirrorIndex(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - 1 - i
		}
	}
	return i
}
