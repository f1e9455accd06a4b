// Copyright 2025 Reverie ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation using a
// gradient tape. It wraps any backend to add gradient tracking.
//
// Example:
//
//	import (
//	    "github.com/reverie-ml/reverie/autodiff"
//	    "github.com/reverie-ml/reverie/backend/cpu"
//	    "github.com/reverie-ml/reverie/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    x := tensor.Rand[float32](tensor.Shape{1, 3, 8, 8}, backend).RequireGrad()
//	    loss := x.Mul(x).Sum() // operations recorded on tape
//
//	    seed := tensor.Ones[float32](tensor.Shape{}, backend)
//	    grads := backend.Tape().Backward(seed.Raw(), backend.Inner())
//	    _ = grads[x.Raw()] // dloss/dx
//	}
package autodiff

import (
	"github.com/reverie-ml/reverie/internal/autodiff"
	"github.com/reverie-ml/reverie/internal/tensor"
)

// Backend is the autodiff-enabled backend decorator.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}
