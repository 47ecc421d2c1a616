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

package pass

import (
	`github.com/oleiade/lane`

	`github.com/cloudwego/relayout/ir`
)

type _StopFunc func(op *ir.Op) bool

// getConvertBackwardSlice collects the values root depends on, along with
// the encoding each of them needs to produce root with the encoding enc.
// Producers that can be folded into a conversion, or that stop says so, are
// the leaves of the slice. It fails if the slice cannot be expressed in the
// requested layouts.
func getConvertBackwardSlice(o Oracle, root *ir.Value, enc ir.Encoding, slice *_ValueSet, layouts map[*ir.Value]ir.Encoding, stop _StopFunc) bool {
	st := lane.NewStack()
	seen := make(map[_ValueEncoding]struct{})

	/* each (value, encoding) pair is visited only once */
	enqueue := func(v *ir.Value, enc ir.Encoding) {
		if k := (_ValueEncoding{v, enc}); !isSeen(seen, k) {
			seen[k] = struct{}{}
			st.Push(k)
		}
	}

	/* walk backwards */
	for enqueue(root, enc); !st.Empty(); {
		p := st.Pop().(_ValueEncoding)
		v, e := p.v, p.enc

		/* only tensors have layouts */
		if !ir.IsTensor(v.Type()) {
			continue
		}

		/* loop results are not supported */
		def := v.DefiningOp()
		if def != nil && def.Kind == ir.OpFor {
			return false
		}

		/* a value cannot have two layouts */
		slice.Insert(v)
		if old, ok := layouts[v]; ok && old != e {
			return false
		}

		/* record the layout */
		layouts[v] = e
		if def != nil {
			for _, r := range def.Results() {
				if r != v && ir.IsTensor(r.Type()) {
					enqueue(r, e)
				}
			}

			/* check for leaves */
			if o.CanFoldIntoConversion(def, e) || (stop != nil && stop(def)) || def.NumOperands() == 0 {
				continue
			}

			/* infer the operand layout */
			src, ok := o.InferSrcEncoding(def, e)
			if !ok {
				return false
			}

			/* continue with the operands */
			for _, x := range def.Operands() {
				enqueue(x, src)
			}
			continue
		}

		/* only loop-carried values are supported among the region arguments */
		pp := v.Owner().ParentOp()
		if pp == nil || pp.Kind != ir.OpFor || v.Index() == 0 {
			return false
		}

		/* both the initial value and the yielded value */
		i := v.Index() - 1
		enqueue(pp.Operand(i + 3), e)
		enqueue(pp.Region(0).Terminator().Operand(i), e)
	}
	return true
}

func isSeen(seen map[_ValueEncoding]struct{}, k _ValueEncoding) bool {
	_, ok := seen[k]
	return ok
}

// canBeRemat checks whether op can be duplicated with another layout.
func canBeRemat(o Oracle, op *ir.Op) bool {
	switch op.Kind {
		case ir.OpLoad, ir.OpStore          : return !o.IsExpensiveLoadOrStore(op)
		case ir.OpExtractSlice              : return false
		case ir.OpAllocTensor               : return false
		case ir.OpInsertSliceAsync          : return false
		case ir.OpAtomicRMW, ir.OpAtomicCAS : return false
		case ir.OpDot                       : return false
		case ir.OpIf, ir.OpWhile            : return false
		case ir.OpCondition                 : return false
		default                             : return true
	}
}

func getRematerializableSlice(o Oracle, root *ir.Value, enc ir.Encoding, slice *_ValueSet, layouts map[*ir.Value]ir.Encoding, stop _StopFunc) bool {
	if !getConvertBackwardSlice(o, root, enc, slice, layouts, stop) || slice.Len() == 0 {
		return false
	}

	/* every producer in the slice must be duplicable */
	for _, v := range slice.Values() {
		if def := v.DefiningOp(); def != nil && !canBeRemat(o, def) {
			return false
		}
	}
	return true
}
