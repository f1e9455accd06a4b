// Copyright 2025 Reverie ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the Reverie image
// synthesis toolkit.
//
// # Overview
//
// Tensors are the fundamental data structure in Reverie. This package
// provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy views where possible
//   - Device abstraction (CPU, WebGPU)
//
// # Basic Usage
//
//	import (
//	    "github.com/reverie-ml/reverie/tensor"
//	    "github.com/reverie-ml/reverie/backend/cpu"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Rand[float32](tensor.Shape{1, 3, 600, 600}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{1, 3, 1, 1}, backend)
//
//	    // Tensor operations
//	    z := x.Sub(y) // broadcast subtraction
//	    _ = z
//	}
package tensor
