// Copyright 2025 Reverie ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/reverie-ml/reverie/internal/tensor"
)

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Type-safe data access via AsFloat32(), AsFloat64(), AsUint8()
//   - Copy-on-write semantics via Clone()
//   - Reference counting for efficient memory management
//
// Most users should use the high-level Tensor[T, B] type instead.
type RawTensor = tensor.RawTensor
