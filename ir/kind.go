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

// OpKind identifies the operation of an Op. The set of kinds is closed, every
// kind is described by an entry in the operation table.
type OpKind uint8

const (
	OpConstant OpKind = iota
	OpSplat
	OpMakeRange
	OpAddPtr
	OpAddF
	OpSubF
	OpMulF
	OpDivF
	OpMaxF
	OpNegF
	OpExp
	OpAddI
	OpMulI
	OpCmpF
	OpSelect
	OpExtF
	OpExtSI
	OpExtUI
	OpTruncF
	OpBroadcast
	OpExpandDims
	OpReshape
	OpTrans
	OpReduce
	OpJoin
	OpSplit
	OpLoad
	OpStore
	OpAtomicRMW
	OpAtomicCAS
	OpDot
	OpConvertLayout
	OpExtractSlice
	OpAllocTensor
	OpInsertSliceAsync
	OpFor
	OpWhile
	OpIf
	OpYield
	OpCondition
	OpReturn
	_OpMax
)

// Trait is a capability of an operation kind.
type Trait uint16

const (
	// TraitElementwise marks operations that apply independently to every element.
	TraitElementwise Trait = 1 << iota

	// TraitSameOperandsAndResultEncoding marks operations whose tensor operands
	// and results always share one encoding.
	TraitSameOperandsAndResultEncoding

	// TraitPure marks operations without side effects.
	TraitPure

	// TraitReadOnly marks operations that only read memory.
	TraitReadOnly

	// TraitMemory marks operations that access global memory.
	TraitMemory

	// TraitTerminator marks region terminators.
	TraitTerminator

	// TraitLoop marks loop constructs.
	TraitLoop
)

// OpInfo describes an operation kind.
type OpInfo struct {
	Name   string
	Traits Trait
}

const (
	_T_ew   = TraitElementwise | TraitSameOperandsAndResultEncoding | TraitPure
	_T_cast = TraitElementwise | TraitPure
)

var _OpTab = [_OpMax]OpInfo {
	OpConstant         : { Name: "arith.constant"       , Traits: TraitPure },
	OpSplat            : { Name: "tt.splat"             , Traits: TraitPure },
	OpMakeRange        : { Name: "tt.make_range"        , Traits: TraitPure },
	OpAddPtr           : { Name: "tt.addptr"            , Traits: _T_ew },
	OpAddF             : { Name: "arith.addf"           , Traits: _T_ew },
	OpSubF             : { Name: "arith.subf"           , Traits: _T_ew },
	OpMulF             : { Name: "arith.mulf"           , Traits: _T_ew },
	OpDivF             : { Name: "arith.divf"           , Traits: _T_ew },
	OpMaxF             : { Name: "arith.maximumf"       , Traits: _T_ew },
	OpNegF             : { Name: "arith.negf"           , Traits: _T_ew },
	OpExp              : { Name: "math.exp"             , Traits: _T_ew },
	OpAddI             : { Name: "arith.addi"           , Traits: _T_ew },
	OpMulI             : { Name: "arith.muli"           , Traits: _T_ew },
	OpCmpF             : { Name: "arith.cmpf"           , Traits: _T_cast },
	OpSelect           : { Name: "arith.select"         , Traits: _T_cast },
	OpExtF             : { Name: "arith.extf"           , Traits: _T_cast },
	OpExtSI            : { Name: "arith.extsi"          , Traits: _T_cast },
	OpExtUI            : { Name: "arith.extui"          , Traits: _T_cast },
	OpTruncF           : { Name: "arith.truncf"         , Traits: _T_cast },
	OpBroadcast        : { Name: "tt.broadcast"         , Traits: TraitSameOperandsAndResultEncoding | TraitPure },
	OpExpandDims       : { Name: "tt.expand_dims"       , Traits: TraitPure },
	OpReshape          : { Name: "tt.reshape"           , Traits: TraitPure },
	OpTrans            : { Name: "tt.trans"             , Traits: TraitPure },
	OpReduce           : { Name: "tt.reduce"            , Traits: TraitPure },
	OpJoin             : { Name: "tt.join"              , Traits: TraitPure },
	OpSplit            : { Name: "tt.split"             , Traits: TraitPure },
	OpLoad             : { Name: "tt.load"              , Traits: TraitMemory | TraitReadOnly },
	OpStore            : { Name: "tt.store"             , Traits: TraitMemory },
	OpAtomicRMW        : { Name: "tt.atomic_rmw"        , Traits: TraitMemory },
	OpAtomicCAS        : { Name: "tt.atomic_cas"        , Traits: TraitMemory },
	OpDot              : { Name: "tt.dot"               , Traits: TraitPure },
	OpConvertLayout    : { Name: "ttg.convert_layout"   , Traits: TraitPure },
	OpExtractSlice     : { Name: "tensor.extract_slice" , Traits: TraitPure },
	OpAllocTensor      : { Name: "ttg.alloc_tensor"     , Traits: 0 },
	OpInsertSliceAsync : { Name: "ttg.insert_slice_async", Traits: TraitMemory },
	OpFor              : { Name: "scf.for"              , Traits: TraitLoop },
	OpWhile            : { Name: "scf.while"            , Traits: TraitLoop },
	OpIf               : { Name: "scf.if"               , Traits: 0 },
	OpYield            : { Name: "scf.yield"            , Traits: TraitTerminator | TraitPure },
	OpCondition        : { Name: "scf.condition"        , Traits: TraitTerminator | TraitPure },
	OpReturn           : { Name: "tt.return"            , Traits: TraitTerminator },
}

// Info returns the description of the operation kind.
func (self OpKind) Info() OpInfo {
	if self < _OpMax {
		return _OpTab[self]
	} else {
		panic(fmt.Sprintf("invalid op kind: %d", self))
	}
}

func (self OpKind) String() string {
	return self.Info().Name
}

// Has checks whether the operation kind has all the traits in t.
func (self OpKind) Has(t Trait) bool {
	return self.Info().Traits & t == t
}

// IsElementwise checks for TraitElementwise.
func (self OpKind) IsElementwise() bool {
	return self.Has(TraitElementwise)
}

// IsSameOperandsAndResultEncoding checks for TraitSameOperandsAndResultEncoding.
func (self OpKind) IsSameOperandsAndResultEncoding() bool {
	return self.Has(TraitSameOperandsAndResultEncoding)
}

// IsTerminator checks for TraitTerminator.
func (self OpKind) IsTerminator() bool {
	return self.Has(TraitTerminator)
}

// IsLoadOrStore checks whether the operation is a plain memory load or store.
func (self OpKind) IsLoadOrStore() bool {
	return self == OpLoad || self == OpStore
}

// IsAtomic checks whether the operation is an atomic read-modify-write or compare-and-swap.
func (self OpKind) IsAtomic() bool {
	return self == OpAtomicRMW || self == OpAtomicCAS
}

// IsExtOrBroadcast checks whether the operation widens its operand, either in
// bit-width or in size.
func (self OpKind) IsExtOrBroadcast() bool {
	switch self {
		case OpExtSI, OpExtUI, OpExtF, OpBroadcast, OpExpandDims : return true
		default                                                 : return false
	}
}

// Attrs holds the static attributes of an operation. Only the fields that are
// relevant to the operation kind are meaningful.
type Attrs struct {
	Axis         int
	AllowReorder bool
	Value        float64
	Start        int
	End          int
	Combine      string
	Predicate    string
}
