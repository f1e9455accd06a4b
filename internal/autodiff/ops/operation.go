// Package ops contains the differentiable operations recorded on the
// gradient tape. Each operation captures its inputs and output during the
// forward pass and knows how to turn an output gradient into input gradients.
package ops

import "github.com/reverie-ml/reverie/internal/tensor"

// Operation is a single recorded forward-pass step.
//
// Backward receives the gradient of the loss with respect to the operation's
// output and returns one gradient per input, aligned with Inputs(). A nil
// entry means the input does not receive a gradient (fixed filter banks, for
// example) and the tape skips it.
type Operation interface {
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor
	Inputs() []*tensor.RawTensor
	Output() *tensor.RawTensor
}
