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

// Package layout provides the layout encodings understood by the layout
// conversion removal pass, and the per-operation layout inference rules.
package layout

import (
	`fmt`

	`github.com/cloudwego/relayout/ir`
)

// Order is the dimension order of a blocked layout.
type Order uint8

const (
	RowMajor Order = iota
	ColMajor
)

func (self Order) String() string {
	switch self {
		case RowMajor : return "row"
		case ColMajor : return "col"
		default       : panic("unreachable")
	}
}

// Blocked distributes contiguous elements across the lanes of a warp, and
// warps across the compute unit.
type Blocked struct {
	SizePerThread  int
	ThreadsPerWarp int
	WarpsPerCTA    int
	Order          Order
}

func (Blocked) EncodingKind() ir.EncodingKind {
	return ir.EncodingBlocked
}

func (self Blocked) String() string {
	return fmt.Sprintf(
		"#blocked<spt = %d, tpw = %d, wpc = %d, %s>",
		self.SizePerThread,
		self.ThreadsPerWarp,
		self.WarpsPerCTA,
		self.Order,
	)
}

// Mma is the native layout of the matrix-multiply units.
type Mma struct {
	VersionMajor int
	VersionMinor int
	WarpsPerCTA  int
}

func (Mma) EncodingKind() ir.EncodingKind {
	return ir.EncodingMma
}

func (self Mma) String() string {
	return fmt.Sprintf("#mma<v%d.%d, wpc = %d>", self.VersionMajor, self.VersionMinor, self.WarpsPerCTA)
}

// DotOperand is the layout of the OpIdx-th operand of a matrix multiplication
// whose accumulator has the Parent layout.
type DotOperand struct {
	OpIdx  int
	Parent ir.Encoding
	KWidth int
}

func (DotOperand) EncodingKind() ir.EncodingKind {
	return ir.EncodingDotOperand
}

func (self DotOperand) String() string {
	return fmt.Sprintf("#dot_op<idx = %d, parent = %s, kwidth = %d>", self.OpIdx, self.Parent, self.KWidth)
}

// Shared is a layout staged in the on-chip shared memory.
type Shared struct {
	Vec      int
	PerPhase int
	MaxPhase int
}

func (Shared) EncodingKind() ir.EncodingKind {
	return ir.EncodingShared
}

func (self Shared) String() string {
	return fmt.Sprintf("#shared<vec = %d, per_phase = %d, max_phase = %d>", self.Vec, self.PerPhase, self.MaxPhase)
}

// Slice is the layout of Parent with the dimension Dim removed.
type Slice struct {
	Dim    int
	Parent ir.Encoding
}

func (Slice) EncodingKind() ir.EncodingKind {
	return ir.EncodingSlice
}

func (self Slice) String() string {
	return fmt.Sprintf("#slice<dim = %d, parent = %s>", self.Dim, self.Parent)
}

// IsBlocked checks for a blocked encoding.
func IsBlocked(enc ir.Encoding) bool {
	return ir.KindOf(enc) == ir.EncodingBlocked
}

// IsMma checks for a matrix-unit-native encoding.
func IsMma(enc ir.Encoding) bool {
	return ir.KindOf(enc) == ir.EncodingMma
}

// IsDotOperand checks for a dot-operand encoding.
func IsDotOperand(enc ir.Encoding) bool {
	return ir.KindOf(enc) == ir.EncodingDotOperand
}

// IsShared checks for a shared memory encoding.
func IsShared(enc ir.Encoding) bool {
	return ir.KindOf(enc) == ir.EncodingShared
}
