package cpu

import (
	"fmt"

	"github.com/reverie-ml/reverie/internal/parallel"
	"github.com/reverie-ml/reverie/internal/tensor"
)

// Conv2D performs 2D cross-correlation using the im2col algorithm.
//
// Input shape:  [N, C, H, W]
// Kernel shape: [C_out, C/groups, K_h, K_w]
// Output shape: [N, C_out, H_out, W_out]
//
// groups splits the channels into independent convolution groups. With
// groups == C and a [C, 1, K, K] kernel this is a depthwise convolution:
// every channel is filtered with its own spatial kernel and there is no
// cross-channel mixing. That is the configuration the cascade smoother uses.
//
// Algorithm per (batch, group): transform the group's input patches into
// columns (im2col), then multiply with the group's kernel rows. Converting
// convolution to a matrix product keeps the inner loop cache-friendly.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padding, groups int) *tensor.RawTensor {
	inputShape := input.Shape()
	kernelShape := kernel.Shape()

	if len(inputShape) != 4 {
		panic(fmt.Sprintf("conv2d: input must be 4D [N,C,H,W], got %dD", len(inputShape)))
	}
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [C_out,C_in/groups,K_h,K_w], got %dD", len(kernelShape)))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if groups <= 0 {
		panic(fmt.Sprintf("conv2d: invalid groups %d", groups))
	}

	N := inputShape[0]
	C := inputShape[1]
	H := inputShape[2]
	W := inputShape[3]
	COut := kernelShape[0]
	CInG := kernelShape[1]
	KH := kernelShape[2]
	KW := kernelShape[3]

	if C%groups != 0 || COut%groups != 0 {
		panic(fmt.Sprintf("conv2d: channels %d and out channels %d must be divisible by groups %d", C, COut, groups))
	}
	if CInG != C/groups {
		panic(fmt.Sprintf("conv2d: kernel input channels %d != %d/%d", CInG, C, groups))
	}

	HOut := (H+2*padding-KH)/stride + 1
	WOut := (W+2*padding-KW)/stride + 1
	if HOut <= 0 || WOut <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d (check stride/padding)", HOut, WOut))
	}

	output, err := tensor.NewRaw(tensor.Shape{N, COut, HOut, WOut}, input.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("conv2d: failed to create output tensor: %v", err))
	}

	args := convArgs{
		N: N, C: C, H: H, W: W,
		COut: COut, KH: KH, KW: KW,
		HOut: HOut, WOut: WOut,
		stride: stride, padding: padding, groups: groups,
	}

	switch input.DType() {
	case tensor.Float32:
		conv2dGrouped(output.AsFloat32(), input.AsFloat32(), kernel.AsFloat32(), args, cpu.par)
	case tensor.Float64:
		conv2dGrouped(output.AsFloat64(), input.AsFloat64(), kernel.AsFloat64(), args, cpu.par)
	default:
		panic(fmt.Sprintf("conv2d: unsupported dtype %s", input.DType()))
	}

	return output
}

type convArgs struct {
	N, C, H, W             int
	COut, KH, KW           int
	HOut, WOut             int
	stride, padding, groups int
}

func conv2dGrouped[T float32 | float64](out, in, kernel []T, a convArgs, par parallel.Config) {
	cInG := a.C / a.groups
	cOutG := a.COut / a.groups
	colWidth := cInG * a.KH * a.KW
	colHeight := a.HOut * a.WOut

	parallel.ForBatch(a.N, a.groups, func(n, g int) {
		colBuf := make([]T, colHeight*colWidth)
		im2col(colBuf, in, n, g*cInG, cInG, a)

		for co := 0; co < cOutG; co++ {
			kRow := kernel[(g*cOutG+co)*colWidth : (g*cOutG+co+1)*colWidth]
			outBase := (n*a.COut + g*cOutG + co) * colHeight
			for j := 0; j < colHeight; j++ {
				col := colBuf[j*colWidth : (j+1)*colWidth]
				var sum T
				for k := range kRow {
					sum += kRow[k] * col[k]
				}
				out[outBase+j] = sum
			}
		}
	}, par)
}

// im2col transforms the input patches of cCount channels starting at cStart
// into a [H_out*W_out, cCount*K_h*K_w] column matrix.
// Out-of-bounds positions are zero (the caller applies reflect padding
// beforehand when zero boundaries are not wanted).
func im2col[T float32 | float64](colBuf, in []T, n, cStart, cCount int, a convArgs) {
	colWidth := cCount * a.KH * a.KW
	colIdx := 0

	for outH := 0; outH < a.HOut; outH++ {
		for outW := 0; outW < a.WOut; outW++ {
			hStart := outH*a.stride - a.padding
			wStart := outW*a.stride - a.padding
			bufIdx := colIdx * colWidth

			for c := cStart; c < cStart+cCount; c++ {
				for kh := 0; kh < a.KH; kh++ {
					for kw := 0; kw < a.KW; kw++ {
						h := hStart + kh
						w := wStart + kw

						if h >= 0 && h < a.H && w >= 0 && w < a.W {
							colBuf[bufIdx] = in[((n*a.C+c)*a.H+h)*a.W+w]
						} else {
							colBuf[bufIdx] = 0
						}
						bufIdx++
					}
				}
			}
			colIdx++
		}
	}
}
