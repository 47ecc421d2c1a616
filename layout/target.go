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

package layout

import (
	`github.com/cloudwego/relayout/ir`
)

const (
	DefaultNumWarps       = 4
	DefaultThreadsPerWarp = 32
)

// Target is the default layout oracle, parameterized by the shape of the
// compute unit the kernel is launched on.
type Target struct {
	NumWarps       int
	ThreadsPerWarp int
}

// DefaultTarget returns a target of 4 warps with 32 threads each.
func DefaultTarget() Target {
	return Target {
		NumWarps       : DefaultNumWarps,
		ThreadsPerWarp : DefaultThreadsPerWarp,
	}
}

// InferDstEncoding infers the encoding of the results of op, given one of
// its operands has the encoding enc.
func (Target) InferDstEncoding(op *ir.Op, enc ir.Encoding) (ir.Encoding, bool) {
	switch op.Kind {
		case ir.OpReduce: {
			return Slice{Dim: op.Attrs.Axis, Parent: enc}, true
		}

		/* expanding a sliced dimension restores the parent layout */
		case ir.OpExpandDims: {
			if sl, ok := enc.(Slice); ok && sl.Dim == op.Attrs.Axis {
				return sl.Parent, true
			} else {
				return nil, false
			}
		}

		/* blocked layouts survive reshapes that keep the element order */
		case ir.OpReshape, ir.OpJoin, ir.OpSplit: {
			if IsBlocked(enc) && !op.Attrs.AllowReorder {
				return enc, true
			} else {
				return nil, false
			}
		}

		/* control flow carries values through unchanged */
		case ir.OpFor, ir.OpWhile, ir.OpIf, ir.OpYield, ir.OpCondition, ir.OpConvertLayout: {
			return enc, true
		}

		/* everything else must preserve the encoding */
		default: {
			if op.Kind.IsElementwise() || op.Kind.IsSameOperandsAndResultEncoding() {
				return enc, true
			} else {
				return nil, false
			}
		}
	}
}

// InferSrcEncoding infers the encoding of the operands of op, given its
// results have the encoding enc.
func (Target) InferSrcEncoding(op *ir.Op, enc ir.Encoding) (ir.Encoding, bool) {
	switch op.Kind {
		case ir.OpReduce: {
			if sl, ok := enc.(Slice); ok && sl.Dim == op.Attrs.Axis {
				return sl.Parent, true
			} else {
				return nil, false
			}
		}

		/* the operand of an expansion is a slice of the result */
		case ir.OpExpandDims: {
			return Slice{Dim: op.Attrs.Axis, Parent: enc}, true
		}

		/* blocked layouts survive reshapes that keep the element order */
		case ir.OpReshape, ir.OpJoin, ir.OpSplit: {
			if IsBlocked(enc) && !op.Attrs.AllowReorder {
				return enc, true
			} else {
				return nil, false
			}
		}

		/* pointers follow the accessed values, and control flow carries values through */
		case ir.OpLoad, ir.OpStore, ir.OpConvertLayout, ir.OpFor, ir.OpWhile, ir.OpIf, ir.OpYield, ir.OpCondition: {
			return enc, true
		}

		/* everything else must preserve the encoding */
		default: {
			if op.Kind.IsElementwise() || op.Kind.IsSameOperandsAndResultEncoding() {
				return enc, true
			} else {
				return nil, false
			}
		}
	}
}

// IsExpensiveLoadOrStore checks whether a load or a store touches enough
// elements to keep every thread of the compute unit busy. Such accesses are
// assumed to have been laid out for coalescing and should not be changed.
func (self Target) IsExpensiveLoadOrStore(op *ir.Op) bool {
	if !op.Kind.IsLoadOrStore() || op.NumOperands() == 0 {
		return false
	}

	/* scalar accesses are never expensive */
	tt, ok := ir.AsTensor(op.Operand(0).Type())
	if !ok {
		return false
	}

	/* neither are single-element tensors */
	if n := tt.NumElements(); n <= 1 {
		return false
	} else {
		return n >= self.NumWarps * self.ThreadsPerWarp
	}
}

// CanFoldIntoConversion checks whether a conversion of the result of op to
// enc can be folded by recreating op directly with enc.
func (Target) CanFoldIntoConversion(op *ir.Op, enc ir.Encoding) bool {
	if IsShared(enc) {
		return false
	}

	/* only operations that materialize values from scratch */
	switch op.Kind {
		case ir.OpConstant  : return ir.IsTensor(op.Result(0).Type())
		case ir.OpSplat     : return true
		case ir.OpMakeRange : return IsBlocked(enc) || ir.KindOf(enc) == ir.EncodingSlice
		default             : return false
	}
}

// HasSharedEncoding checks whether v is a tensor staged in shared memory.
func (Target) HasSharedEncoding(v *ir.Value) bool {
	return IsShared(ir.EncodingOf(v))
}
