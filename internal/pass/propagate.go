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

// propagateLayout pushes the candidate encodings of the anchors forward to
// every transitive user, until none of the candidate sets grows anymore.
func (self *_LayoutPropagation) propagateLayout() {
	st := lane.NewStack()
	for _, v := range self.layouts.Keys() {
		st.Push(v)
	}

	/* the sets only grow, and values are pushed only when they did */
	for !st.Empty() {
		v := st.Pop().(*ir.Value)
		info, _ := self.layouts.Get(v)

		/* the set of v itself may grow while propagating */
		for _, p := range self.propagateToUsers(v, append([]ir.Encoding(nil), info.Encodings...)) {
			st.Push(p)
		}
	}
}

func (self *_LayoutPropagation) propagateToUsers(v *ir.Value, encs []ir.Encoding) []*ir.Value {
	var changed []*ir.Value
	for _, u := range v.Uses() {
		op := u.Owner()
		idx := u.Index()

		/* check for the user */
		switch op.Kind {
			case ir.OpFor: {
				if i := idx - 3; i >= 0 {
					changed = self.setEncoding(changed, encs, op, op.Region(0).Arg(i + 1), op.Result(i))
				}
			}

			/* while loops take the operands as the "before" region arguments */
			case ir.OpWhile: {
				changed = self.setEncoding(changed, encs, op, op.Region(0).Arg(idx))
			}

			/* yielded values flow to the parent results and back to the loop entry */
			case ir.OpYield: {
				switch pp := op.ParentOp(); {
					case pp == nil             : break
					case pp.Kind == ir.OpFor   : changed = self.setEncoding(changed, encs, op, pp.Result(idx), pp.Region(0).Arg(idx + 1))
					case pp.Kind == ir.OpIf    : changed = self.setEncoding(changed, encs, op, pp.Result(idx))
					case pp.Kind == ir.OpWhile : changed = self.setEncoding(changed, encs, op, pp.Region(0).Arg(idx), pp.Operand(idx))
				}
			}

			/* the first operand of the condition is the boolean guard */
			case ir.OpCondition: {
				if idx != 0 {
					pp := op.ParentOp()
					changed = self.setEncoding(changed, encs, op, pp.Region(1).Arg(idx - 1), pp.Result(idx - 1))
				}
			}

			/* operations where the results follow the operands */
			default: {
				if followsOperands(op) {
					changed = self.setEncoding(changed, encs, op, op.Results()...)
				}
			}
		}
	}
	return changed
}

func followsOperands(op *ir.Op) bool {
	return op.Kind.IsElementwise() ||
		op.Kind.IsSameOperandsAndResultEncoding() ||
		op.Is(ir.OpReduce, ir.OpExpandDims, ir.OpReshape, ir.OpJoin, ir.OpSplit, ir.OpConvertLayout)
}

func (self *_LayoutPropagation) setEncoding(changed []*ir.Value, encs []ir.Encoding, op *ir.Op, vals ...*ir.Value) []*ir.Value {
	for _, v := range vals {
		if ir.IsTensor(v.Type()) {
			grew := false

			/* conversions try to adopt the source encoding */
			for _, enc := range encs {
				dst, ok := enc, true
				if op.Kind != ir.OpConvertLayout {
					dst, ok = self.oracle.InferDstEncoding(op, enc)
				}

				/* add to the candidates */
				if ok && self.layouts.Add(v, dst) {
					grew = true
				}
			}

			/* only propagate further if anything changed */
			if grew {
				changed = append(changed, v)
			}
		}
	}
	return changed
}
