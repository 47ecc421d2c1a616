/*
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ir

import (
	`fmt`
)

// EncodingKind classifies layout encodings.
type EncodingKind uint8

const (
	EncodingOther EncodingKind = iota
	EncodingBlocked
	EncodingMma
	EncodingDotOperand
	EncodingShared
	EncodingSlice
)

func (self EncodingKind) String() string {
	switch self {
		case EncodingOther      : return "other"
		case EncodingBlocked    : return "blocked"
		case EncodingMma        : return "mma"
		case EncodingDotOperand : return "dot_op"
		case EncodingShared     : return "shared"
		case EncodingSlice      : return "slice"
		default                 : panic("unreachable")
	}
}

// Encoding describes how the elements of a tensor are placed across the
// compute lanes or the memory hierarchy.
//
// Implementations must be comparable, two encodings are the same iff they
// compare equal with the == operator.
type Encoding interface {
	fmt.Stringer
	EncodingKind() EncodingKind
}

// EncodingOf returns the encoding of v, or nil if v is not a tensor.
func EncodingOf(v *Value) Encoding {
	if tt, ok := v.Type().(*TensorType); !ok {
		return nil
	} else {
		return tt.Encoding
	}
}

// KindOf returns the kind of enc, nil encodings are EncodingOther.
func KindOf(enc Encoding) EncodingKind {
	if enc == nil {
		return EncodingOther
	} else {
		return enc.EncodingKind()
	}
}
