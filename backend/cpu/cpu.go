// Copyright 2025 Reverie ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/reverie-ml/reverie/internal/backend/cpu"
	"github.com/reverie-ml/reverie/tensor"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend provides pure Go implementations of all tensor operations,
// parallelized across image planes where the work amortizes goroutine
// overhead.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/reverie-ml/reverie/backend/cpu"
//	    "github.com/reverie-ml/reverie/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Rand[float32](tensor.Shape{1, 3, 600, 600}, backend)
//	    _ = x
//	}
func New() *Backend {
	return internalcpu.New()
}
