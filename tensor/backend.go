// Copyright 2025 Reverie ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/reverie-ml/reverie/internal/tensor"
)

// Backend defines the interface that all compute backends must implement.
//
// Implementations:
//   - backend/cpu: pure Go reference implementation
//   - backend/webgpu: GPU compute shaders
//   - autodiff: decorator recording operations on a gradient tape
type Backend = tensor.Backend
