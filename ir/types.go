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
	`strings`
)

// ElemType is the element type of a scalar or a tensor.
type ElemType uint8

const (
	I1 ElemType = iota
	I8
	I16
	I32
	I64
	F16
	BF16
	F32
	F64
	Ptr
	Index
)

var _ElemNames = [...]string {
	I1    : "i1",
	I8    : "i8",
	I16   : "i16",
	I32   : "i32",
	I64   : "i64",
	F16   : "f16",
	BF16  : "bf16",
	F32   : "f32",
	F64   : "f64",
	Ptr   : "!tt.ptr",
	Index : "index",
}

var _ElemBits = [...]int {
	I1    : 1,
	I8    : 8,
	I16   : 16,
	I32   : 32,
	I64   : 64,
	F16   : 16,
	BF16  : 16,
	F32   : 32,
	F64   : 64,
	Ptr   : 64,
	Index : 64,
}

func (self ElemType) String() string {
	if int(self) < len(_ElemNames) {
		return _ElemNames[self]
	} else {
		panic(fmt.Sprintf("invalid element type: %d", self))
	}
}

// Bits returns the storage width of the element type.
func (self ElemType) Bits() int {
	return _ElemBits[self]
}

func (self ElemType) IsFloat() bool {
	return self == F16 || self == BF16 || self == F32 || self == F64
}

func (self ElemType) IsInteger() bool {
	return self <= I64 || self == Index
}

// Type is the type of an SSA value.
type Type interface {
	fmt.Stringer
	Equal(other Type) bool
	Elem() ElemType
}

// ScalarType is the type of a non-tensor value.
type ScalarType struct {
	E ElemType
}

// Scalar returns the scalar type of e.
func Scalar(e ElemType) ScalarType {
	return ScalarType{E: e}
}

func (self ScalarType) Elem() ElemType {
	return self.E
}

func (self ScalarType) String() string {
	return self.E.String()
}

func (self ScalarType) Equal(other Type) bool {
	if st, ok := other.(ScalarType); !ok {
		return false
	} else {
		return st.E == self.E
	}
}

// TensorType is a ranked tensor type with a layout encoding.
// TensorType values are immutable once created, derive new ones with the With* methods.
type TensorType struct {
	Shape    []int
	E        ElemType
	Encoding Encoding
}

// Tensor creates a new tensor type.
func Tensor(shape []int, e ElemType, enc Encoding) *TensorType {
	return &TensorType {
		Shape    : append([]int(nil), shape...),
		E        : e,
		Encoding : enc,
	}
}

func (self *TensorType) Elem() ElemType {
	return self.E
}

// NumElements returns the total number of elements of the tensor.
func (self *TensorType) NumElements() int {
	n := 1
	for _, v := range self.Shape { n *= v }
	return n
}

func (self *TensorType) Rank() int {
	return len(self.Shape)
}

// WithEncoding returns a copy of the tensor type with a different encoding.
func (self *TensorType) WithEncoding(enc Encoding) *TensorType {
	return Tensor(self.Shape, self.E, enc)
}

// WithElem returns a copy of the tensor type with a different element type.
func (self *TensorType) WithElem(e ElemType) *TensorType {
	return Tensor(self.Shape, e, self.Encoding)
}

// WithShape returns a copy of the tensor type with a different shape.
func (self *TensorType) WithShape(shape []int) *TensorType {
	return Tensor(shape, self.E, self.Encoding)
}

func (self *TensorType) Equal(other Type) bool {
	tt, ok := other.(*TensorType)

	/* must be both tensors */
	if !ok {
		return false
	}

	/* element types and encodings must match */
	if tt.E != self.E || tt.Encoding != self.Encoding || len(tt.Shape) != len(self.Shape) {
		return false
	}

	/* compare every dimension */
	for i, v := range self.Shape {
		if tt.Shape[i] != v {
			return false
		}
	}

	/* all checked */
	return true
}

func (self *TensorType) String() string {
	dims := make([]string, 0, len(self.Shape) + 1)
	for _, v := range self.Shape { dims = append(dims, fmt.Sprint(v)) }
	dims = append(dims, self.E.String())

	/* tensors without encodings */
	if self.Encoding == nil {
		return fmt.Sprintf("tensor<%s>", strings.Join(dims, "x"))
	} else {
		return fmt.Sprintf("tensor<%s, %s>", strings.Join(dims, "x"), self.Encoding)
	}
}

// AsTensor returns the tensor type of t if it is a tensor.
func AsTensor(t Type) (*TensorType, bool) {
	tt, ok := t.(*TensorType)
	return tt, ok
}

// IsTensor checks whether t is a ranked tensor type.
func IsTensor(t Type) bool {
	_, ok := t.(*TensorType)
	return ok
}
