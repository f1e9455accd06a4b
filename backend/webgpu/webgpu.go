// Copyright 2025 Reverie ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu exposes the GPU compute backend. The native wgpu library
// ships for windows; on other platforms New returns an error and callers
// fall back to the CPU backend.
package webgpu

import (
	internalwebgpu "github.com/reverie-ml/reverie/internal/backend/webgpu"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// New creates a new WebGPU backend.
// Returns an error if WebGPU is not available on this platform or
// initialization fails.
func New() (*Backend, error) {
	return internalwebgpu.New()
}
