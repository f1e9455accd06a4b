// Copyright 2025 Reverie ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dream is the public API for the image-space regularization
// primitives used during gradient-ascent image synthesis: the normalization
// profile registry, the pixel/tensor codec, per-channel clamping, spatial
// jitter, and multi-scale gaussian smoothing.
//
// A typical ascent step:
//
//	img = dream.Shift(img, dy, dx, false)
//	grad := ...                                  // external network
//	smoothed, _ := smoother.Smooth(grad)
//	img = img.Add(smoothed.MulScalar(lr))
//	img = dream.Shift(img, dy, dx, true)
//	img, _ = dream.Clip(img, prof)
package dream

import (
	"github.com/reverie-ml/reverie/internal/codec"
	"github.com/reverie-ml/reverie/internal/profile"
	"github.com/reverie-ml/reverie/internal/regularize"
	"github.com/reverie-ml/reverie/internal/tensor"
)

// Profile holds a model's per-channel normalization statistics and resize
// target.
type Profile = profile.Profile

// ErrUnknownProfile is returned when a model identifier has no registered
// profile.
var ErrUnknownProfile = profile.ErrUnknown

// ResolveProfile returns the profile registered for modelID.
func ResolveProfile(modelID string) (Profile, error) {
	return profile.Resolve(modelID)
}

// Profiles returns the registered model identifiers in sorted order.
func Profiles() []string {
	return profile.Names()
}

// Codec converts between pixel images and normalized tensors.
type Codec[B tensor.Backend] = codec.Codec[B]

// NewCodec creates a Codec running on the given backend.
func NewCodec[B tensor.Backend](b B) *Codec[B] {
	return codec.New(b)
}

// Codec error taxonomy.
var (
	ErrInvalidPath  = codec.ErrInvalidPath
	ErrImageDecode  = codec.ErrImageDecode
	ErrInvalidShape = codec.ErrInvalidShape
)

// OutputDir creates a timestamped directory under base for the artifacts of
// one synthesis run.
func OutputDir(base string) (string, error) {
	return codec.OutputDir(base)
}

// Clip clamps a normalized tensor into the bounds that denormalize to
// displayable [0, 1] pixels. In place; returns the tensor for chaining.
// Fails with ErrInvalidShape when the tensor is not 4D with three channels.
func Clip[B tensor.Backend](t *tensor.Tensor[float32, B], p Profile) (*tensor.Tensor[float32, B], error) {
	return regularize.Clip(t, p)
}

// Shift circularly rolls a tensor along its spatial axes, outside gradient
// tracking. With undo set, the offsets are negated first.
func Shift[B tensor.Backend](t *tensor.Tensor[float32, B], dy, dx int, undo bool) *tensor.Tensor[float32, B] {
	return regularize.Shift(t, dy, dx, undo)
}

// Smoother is the differentiable three-scale gaussian low-pass operator.
type Smoother[B tensor.Backend] = regularize.Smoother[B]

// NewSmoother builds a smoother's kernel banks for the given kernel size,
// base sigma, and channel count.
func NewSmoother[B tensor.Backend](b B, kernelSize int, baseSigma float64, channels int) (*Smoother[B], error) {
	return regularize.NewSmoother(b, kernelSize, baseSigma, channels)
}

// ErrShapeMismatch is returned when an input tensor does not match the
// kernel bank it is being smoothed with.
var ErrShapeMismatch = regularize.ErrShapeMismatch

// BlurCPU applies the three-scale gaussian cascade to a dense host-resident
// array, outside any gradient tracking.
func BlurCPU(gradient []float32, shape tensor.Shape, sigma float64) []float32 {
	return regularize.BlurCPU(gradient, shape, sigma)
}
