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
	`github.com/cloudwego/relayout/layout`
)

func (self *_LayoutPropagation) isLayoutAnchor(op *ir.Op) bool {
	switch op.Kind {
		case ir.OpLoad, ir.OpStore                     : return self.oracle.IsExpensiveLoadOrStore(op)
		case ir.OpDot, ir.OpAtomicRMW, ir.OpAtomicCAS  : return true
		case ir.OpReshape                              : return op.Attrs.AllowReorder
		default                                        : return false
	}
}

func (self *_LayoutPropagation) addAnchor(v *ir.Value) {
	if tt, ok := ir.AsTensor(v.Type()); ok {
		if !layout.IsMma(tt.Encoding) || v.DefiningOp() == nil || hasConvertToMmaTransitiveUse(v.DefiningOp(), tt.Encoding) {
			self.layouts.Insert(v, tt.Encoding)
		}
	}
}

// initAnchorLayout finds every value whose layout must be kept, and seeds
// the candidate sets with their current encodings.
func (self *_LayoutPropagation) initAnchorLayout() {
	for _, v := range self.fn.Args() {
		self.addAnchor(v)
	}

	/* then the results of the anchor operations */
	self.fn.Walk(func(op *ir.Op) {
		if self.isLayoutAnchor(op) {
			for _, v := range op.Results() {
				self.addAnchor(v)
			}
		}
	})
}

// hasConvertToMmaTransitiveUse looks for a conversion back to a compatible
// matrix layout among the transitive users of the result of op, following
// values carried around loops.
func hasConvertToMmaTransitiveUse(op *ir.Op, enc ir.Encoding) bool {
	ver := 0
	st := lane.NewStack()
	seen := make(map[*ir.Value]struct{})
	slice := newOpSet()

	/* the major version of the anchor layout */
	if mma, ok := enc.(layout.Mma); ok {
		ver = mma.VersionMajor
	}

	/* scan the forward slices */
	for st.Push(op.Result(0)); !st.Empty(); {
		addForwardSlice(st.Pop().(*ir.Value), slice)

		/* the first conversion back to a matrix layout decides */
		for _, p := range slice.Ops() {
			if p.Kind == ir.OpConvertLayout {
				dst := ir.EncodingOf(p.Result(0))

				/* conversion back to a matrix layout */
				if mma, ok := dst.(layout.Mma); ok {
					return mma.VersionMajor > 1 || mma == enc
				}

				/* conversion to the operand of another matrix multiplication */
				if layout.IsDotOperand(dst) {
					return ver > 1
				}
			}

			/* follow the values carried around loops */
			if loop := p.ParentOp(); p.Kind == ir.OpYield && loop != nil && loop.Kind == ir.OpFor {
				for i, v := range p.Operands() {
					if def := v.DefiningOp(); def != nil && slice.Contains(def) {
						if _, ok := seen[v]; !ok {
							seen[v] = struct{}{}
							st.Push(loop.Region(0).Arg(i + 1))
						}
					}
				}
			}
		}
	}

	/* no conversion back */
	return false
}

func addForwardSlice(v *ir.Value, slice *_OpSet) {
	q := lane.NewQueue()
	q.Enqueue(v)

	/* breadth-first over the users */
	for !q.Empty() {
		for _, op := range q.Dequeue().(*ir.Value).Users() {
			if slice.Insert(op) {
				for _, r := range op.Results() {
					q.Enqueue(r)
				}
			}
		}
	}
}
