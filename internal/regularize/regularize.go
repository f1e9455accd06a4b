// Package regularize implements the image-space regularization primitives of
// the gradient-ascent loop: per-channel value clamping, reversible spatial
// jitter, and multi-scale gaussian smoothing in both a differentiable tensor
// form and a host-side array form.
package regularize

import (
	"errors"
	"fmt"

	"github.com/reverie-ml/reverie/internal/autodiff"
	"github.com/reverie-ml/reverie/internal/profile"
	"github.com/reverie-ml/reverie/internal/tensor"
)

// ErrShapeMismatch is returned when an input tensor's channel count does not
// match the kernel bank it is being smoothed with.
var ErrShapeMismatch = errors.New("regularize: input shape does not match kernel bank")

// ErrInvalidShape is returned when a tensor does not have the three-channel
// layout the profile bounds assume. Shared with the codec so callers match
// one sentinel for the whole taxonomy.
var ErrInvalidShape = tensor.ErrInvalidShape

// cascadeScales are the multipliers applied to the base sigma to build the
// three-scale smoothing cascade.
var cascadeScales = [3]float64{0.5, 1.0, 2.0}

// Clip clamps every channel of a normalized [1, 3, H, W] tensor into the
// bounds that denormalize to displayable [0, 1] pixels. In place; returns t
// for chaining. Values are overwritten, not detached, so gradient-tracking
// semantics are unchanged. Fails with ErrInvalidShape when the input is not
// 4D with the profile's three channels.
func Clip[B tensor.Backend](t *tensor.Tensor[float32, B], p profile.Profile) (*tensor.Tensor[float32, B], error) {
	shape := t.Shape()
	if len(shape) != 4 || shape[1] != 3 {
		return nil, fmt.Errorf("%w: want [N, 3, H, W], got %v", ErrInvalidShape, shape)
	}

	lo, hi := p.ClampBounds()
	t.Backend().ClampChannels(t.Raw(), lo[:], hi[:])
	return t, nil
}

// tapeHolder matches the autodiff decorator backend without naming its
// generic instantiation.
type tapeHolder interface {
	Tape() *autodiff.GradientTape
}

// Shift circularly rolls a [N, C, H, W] tensor by (dy, dx) along its spatial
// axes. With undo set, both offsets are negated first, so
// Shift(Shift(t, dy, dx, false), dy, dx, true) restores t bit for bit.
//
// The roll runs outside gradient tracking and the result is re-marked as a
// fresh differentiable leaf: the jitter itself must not be differentiated,
// but the ascent loop still backpropagates through everything downstream of
// it.
func Shift[B tensor.Backend](t *tensor.Tensor[float32, B], dy, dx int, undo bool) *tensor.Tensor[float32, B] {
	if undo {
		dy, dx = -dy, -dx
	}

	backend := t.Backend()
	if h, ok := any(backend).(tapeHolder); ok {
		if tape := h.Tape(); tape.IsRecording() {
			tape.StopRecording()
			defer tape.StartRecording()
		}
	}

	rolled := backend.Roll(t.Raw(), []int{dy, dx}, []int{-2, -1})
	return tensor.New[float32, B](rolled, backend).RequireGrad()
}
