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
	`github.com/cloudwego/relayout/ir`
)

func (self *_LayoutPropagation) operandAs(v *ir.Value, tied *ir.Value) *ir.Value {
	if info, ok := self.layouts.Get(tied); ok {
		return self.getValueAs(v, info.Encoding())
	} else {
		return self.getValueAs(v, ir.EncodingOf(v))
	}
}

func (self *_LayoutPropagation) resultTypes(op *ir.Op) []ir.Type {
	ret := make([]ir.Type, 0, op.NumResults())
	for _, v := range op.Results() {
		if info, ok := self.layouts.Get(v); !ok {
			ret = append(ret, v.Type())
		} else {
			ret = append(ret, v.Type().(*ir.TensorType).WithEncoding(info.Encoding()))
		}
	}
	return ret
}

// rewriteFor creates a new loop with the resolved loop-carried types, and
// moves the body of op into it.
func (self *_LayoutPropagation) rewriteFor(op *ir.Op) *ir.Op {
	b := ir.NewBuilder(self.fn.Module())
	inits := op.Operands()[3:]
	args := make([]*ir.Value, 0, len(inits))

	/* coerce the initial values to the types of the results */
	for i, v := range inits {
		args = append(args, self.operandAs(v, op.Result(i)))
	}

	/* create the new loop */
	b.SetInsertionPoint(op)
	nf := b.For(op.Operand(0), op.Operand(1), op.Operand(2), args...)
	nf.Attrs = op.Attrs

	/* move the body */
	body := nf.Region(0)
	body.SpliceFront(op.Region(0))

	/* remap the results */
	for i, v := range op.Results() {
		self.remapValue(v, nf.Result(i))
	}

	/* remap the region arguments */
	for i, v := range op.Region(0).Args() {
		self.remapValue(v, body.Arg(i))
	}
	return nf
}

// rewriteWhile creates a new while loop with both regions retyped.
func (self *_LayoutPropagation) rewriteWhile(op *ir.Op) *ir.Op {
	b := ir.NewBuilder(self.fn.Module())
	args := make([]*ir.Value, 0, op.NumOperands())

	/* coerce the initial values to the types of the "before" arguments */
	for i, v := range op.Operands() {
		args = append(args, self.operandAs(v, op.Region(0).Arg(i)))
	}

	/* create the new loop */
	b.SetInsertionPoint(op)
	nw := b.While(args, self.resultTypes(op))
	nw.Attrs = op.Attrs

	/* move both regions */
	for i := 0; i < 2; i++ {
		nw.Region(i).SpliceFront(op.Region(i))
	}

	/* remap the results */
	for i, v := range op.Results() {
		self.remapValue(v, nw.Result(i))
	}

	/* remap the arguments of both regions */
	for i := 0; i < 2; i++ {
		for j, v := range op.Region(i).Args() {
			self.remapValue(v, nw.Region(i).Arg(j))
		}
	}
	return nw
}

// rewriteIf creates a new conditional with the resolved result types. The
// branches are moved as-is, mismatching yields are fixed when visited.
func (self *_LayoutPropagation) rewriteIf(op *ir.Op) *ir.Op {
	b := ir.NewBuilder(self.fn.Module())
	b.SetInsertionPoint(op)

	/* create the new conditional */
	ni := b.If(op.Operand(0), self.resultTypes(op))
	ni.Attrs = op.Attrs

	/* move both branches */
	for i := 0; i < 2; i++ {
		ni.Region(i).SpliceFront(op.Region(i))
	}

	/* remap the results */
	for i, v := range op.Results() {
		self.remapValue(v, ni.Result(i))
	}
	return ni
}

func (self *_LayoutPropagation) rewriteYield(op *ir.Op) {
	pp := op.ParentOp()
	if pp == nil {
		return
	}

	/* yielded values must match the parent signature */
	for i, v := range op.Operands() {
		var t ir.Type
		switch pp.Kind {
			case ir.OpFor, ir.OpIf : t = pp.Result(i).Type()
			case ir.OpWhile        : t = pp.Region(0).Arg(i).Type()
			default                : t = v.Type()
		}

		/* only tensors have layouts */
		if tt, ok := ir.AsTensor(t); ok {
			op.SetOperand(i, self.getValueAs(v, tt.Encoding))
		}
	}
}

func (self *_LayoutPropagation) rewriteCondition(op *ir.Op) {
	pp := op.ParentOp()
	for i := 1; i < op.NumOperands(); i++ {
		if tt, ok := ir.AsTensor(pp.Result(i - 1).Type()); ok {
			op.SetOperand(i, self.getValueAs(op.Operand(i), tt.Encoding))
		}
	}
}

func isReduceToScalar(op *ir.Op) bool {
	return op.Kind == ir.OpReduce && !ir.IsTensor(op.Result(0).Type())
}

// rewriteReduceToScalar lets scalar reductions consume their operand in
// whatever layout it was resolved to, the result does not depend on it.
func (self *_LayoutPropagation) rewriteReduceToScalar(op *ir.Op) {
	var enc ir.Encoding
	for _, v := range op.Operands() {
		if info, ok := self.layouts.Get(v); ok {
			enc = info.Encoding()
			break
		}
	}

	/* all the operands use the same layout */
	if enc != nil {
		for i, v := range op.Operands() {
			op.SetOperand(i, self.getValueAs(v, enc))
		}
	}
}
