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

// replaceForWithNewSignature creates a copy of the loop op carrying extra
// values after the existing ones, and moves the body into it. The uses of
// the old results and arguments are redirected to the new loop, the old
// loop is left empty for the caller to erase.
func replaceForWithNewSignature(b *ir.Builder, op *ir.Op, extra []*ir.Value) *ir.Op {
	b.SetInsertionPoint(op)
	inits := append(op.Operands()[3:], extra...)

	/* create the new loop */
	nf := b.For(op.Operand(0), op.Operand(1), op.Operand(2), inits...)
	nf.Attrs = op.Attrs

	/* move the body, and remap the old arguments */
	nf.Region(0).SpliceFront(op.Region(0))
	for i, v := range op.Region(0).Args() {
		v.ReplaceAllUsesWith(nf.Region(0).Arg(i))
	}

	/* remap the old results */
	for i, v := range op.Results() {
		v.ReplaceAllUsesWith(nf.Result(i))
	}
	return nf
}

// removeForArgs rebuilds the loop op without the loop-carried values marked
// in drop. The dropped results and arguments must not be used anymore.
func removeForArgs(b *ir.Builder, op *ir.Op, drop []bool) *ir.Op {
	var inits []*ir.Value
	var index []int

	/* the surviving loop-carried values */
	for i, v := range op.Operands()[3:] {
		if !drop[i] {
			inits = append(inits, v)
			index = append(index, i)
		}
	}

	/* create the new loop */
	b.SetInsertionPoint(op)
	nf := b.For(op.Operand(0), op.Operand(1), op.Operand(2), inits...)
	nf.Attrs = op.Attrs

	/* move the body */
	body := nf.Region(0)
	body.SpliceFront(op.Region(0))
	op.Region(0).Arg(0).ReplaceAllUsesWith(body.Arg(0))

	/* remap the surviving arguments and results */
	for j, i := range index {
		op.Region(0).Arg(i + 1).ReplaceAllUsesWith(body.Arg(j + 1))
		op.Result(i).ReplaceAllUsesWith(nf.Result(j))
	}

	/* rebuild the terminator */
	term := body.Terminator()
	vals := make([]*ir.Value, 0, len(index))

	/* only yield the surviving values */
	for _, i := range index {
		vals = append(vals, term.Operand(i))
	}

	/* replace the terminator */
	b.SetInsertionPoint(term)
	b.Yield(vals...)
	term.Erase()
	op.Erase()

	/* update the statistics */
	LoopArgsEliminated.Add(int64(len(drop) - len(index)))
	return nf
}
