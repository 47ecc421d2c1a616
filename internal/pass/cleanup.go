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
	`go.uber.org/zap`

	`github.com/cloudwego/relayout/ir`
)

// Cleanup removes the loop-carried values nobody needs anymore, along with
// the conversions and the dead code left behind by the previous passes.
type Cleanup struct{}

func (Cleanup) Apply(ctx *Context) {
	n := ctx.greedy(func(op *ir.Op) bool {
		switch op.Kind {
			case ir.OpConvertLayout : return canonicalizeConvert(ctx, op)
			case ir.OpFor           : return eliminateDeadForArgs(op) || foldForIterArgs(ctx.Module, op)
			default                 : return false
		}
	})
	ctx.Logger.Debug("final cleanup", zap.Int("rewrites", n))
}

// eliminateDeadForArgs finds the loop-carried values that do not contribute
// to any used result nor to any side effect, and makes the loop yield the
// region argument back for them, so they can be folded away.
func eliminateDeadForArgs(op *ir.Op) bool {
	body := op.Region(0)
	term := body.Terminator()
	live := make(map[*ir.Value]struct{})

	/* mark a value as live, and propagate it later */
	st := lane.NewStack()
	mark := func(v *ir.Value) {
		if _, ok := live[v]; !ok {
			live[v] = struct{}{}
			st.Push(v)
		}
	}

	/* the yielded values of the used results are live */
	used := 0
	for i, v := range op.Results() {
		if !v.Unused() {
			used++
			mark(term.Operand(i))
		}
	}

	/* every result is used */
	if used == op.NumResults() {
		return false
	}

	/* operations with side effects are always live */
	body.Walk(func(p *ir.Op) {
		if !p.Is(ir.OpYield, ir.OpFor) && !isSideEffectFree(p) {
			for _, v := range p.Operands() {
				mark(v)
			}
		} else if p.Kind == ir.OpFor && !isSideEffectFree(p) {
			mark(p.Operand(0))
			mark(p.Operand(1))
			mark(p.Operand(2))
		}
	})

	/* propagate until nothing changes */
	for !st.Empty() {
		v := st.Pop().(*ir.Value)
		def := v.DefiningOp()

		/* loop-carried values depend on the initial and the yielded values */
		if def == nil {
			if pp := v.Owner().ParentOp(); pp != nil && pp.Kind == ir.OpFor && v.Index() != 0 {
				mark(pp.Operand(v.Index() + 2))
				mark(pp.Region(0).Terminator().Operand(v.Index() - 1))
			}
			continue
		}

		/* the operands of the definition are live */
		for _, x := range def.Operands() {
			mark(x)
		}

		/* so is everything nested in it */
		if def.NumRegions() != 0 {
			for _, r := range def.Regions() {
				r.Walk(func(p *ir.Op) {
					for _, x := range p.Operands() {
						mark(x)
					}
				})
			}
		}
	}

	/* find the dead loop-carried values */
	ret := false
	for i, v := range term.Operands() {
		arg := body.Arg(i + 1)
		if _, ok := live[v]; ok || v == arg {
			continue
		}

		/* a value from outside is only yielded if the loop runs at least once */
		if !body.IsAncestorOf(v.ParentRegion()) && v != op.Operand(i + 3) {
			continue
		}

		/* yield the argument back, the folder removes it later */
		ret = true
		term.SetOperand(i, arg)
	}
	return ret
}

// foldForIterArgs removes the loop-carried values that never change, or
// that nobody uses.
func foldForIterArgs(m *ir.Module, op *ir.Op) bool {
	ok := false
	body := op.Region(0)
	term := body.Terminator()
	drop := make([]bool, op.NumResults())

	/* check every loop-carried value */
	for i, res := range op.Results() {
		arg := body.Arg(i + 1)
		init := op.Operand(i + 3)

		/* the value is forwarded unchanged, or both ends are unused */
		if y := term.Operand(i); y == arg || y == init {
			arg.ReplaceAllUsesWith(init)
			res.ReplaceAllUsesWith(init)
			ok, drop[i] = true, true
		} else if arg.Unused() && res.Unused() {
			ok, drop[i] = true, true
		}
	}

	/* rebuild the loop if needed */
	if ok {
		removeForArgs(ir.NewBuilder(m), op, drop)
	}
	return ok
}
