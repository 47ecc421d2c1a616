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
	`go.uber.org/zap`

	`github.com/cloudwego/relayout/ir`
)

// Canonicalize removes the conversions made redundant by the layout
// rewrite, and the operations left dead by them.
type Canonicalize struct{}

func (Canonicalize) Apply(ctx *Context) {
	n := ctx.greedy(func(op *ir.Op) bool {
		return op.Kind == ir.OpConvertLayout && canonicalizeConvert(ctx, op)
	})
	ctx.Logger.Debug("conversion canonicalization", zap.Int("rewrites", n))
}

func (self *Context) maxIterations() int {
	if self.MaxIterations <= 0 {
		return _DefaultMaxIterations
	} else {
		return self.MaxIterations
	}
}

// greedy applies pattern to every operation of the module, and removes the
// operations that become dead, until nothing changes anymore or the
// iteration limit is reached. Returns how many times pattern applied.
func (self *Context) greedy(pattern func(op *ir.Op) bool) int {
	n := 0
	for i := 0; i < self.maxIterations(); i++ {
		var ops []*ir.Op
		var changed bool

		/* take a snapshot, the patterns may modify the module */
		self.Module.Walk(func(op *ir.Op) {
			ops = append(ops, op)
		})

		/* apply to every operation that survived so far */
		for _, op := range ops {
			if !op.Erased() && pattern(op) {
				n++
				changed = true
			}
		}

		/* remove the dead operations */
		if eraseDeadOps(self.Module) {
			changed = true
		}

		/* no more modifications */
		if !changed {
			break
		}
	}
	return n
}

func canonicalizeConvert(ctx *Context, op *ir.Op) bool {
	src := op.Operand(0)
	dst := op.Result(0)

	/* identity conversion */
	if src.Type().Equal(dst.Type()) {
		dst.ReplaceAllUsesWith(src)
		op.Erase()
		ConvertsFolded.Inc()
		return true
	}

	/* check the producer */
	def := src.DefiningOp()
	if def == nil {
		return false
	}

	/* convert(convert(x)) -> convert(x), unless staged through shared memory */
	if def.Kind == ir.OpConvertLayout && !ctx.Oracle.HasSharedEncoding(src) {
		op.SetOperand(0, def.Operand(0))
		return true
	}

	/* recreate the producer directly with the target layout */
	if ctx.Oracle.CanFoldIntoConversion(def, ir.EncodingOf(dst)) {
		b := ir.NewBuilder(ctx.Module)
		b.SetInsertionPoint(op)
		np := b.Clone(def, nil)
		np.Result(0).SetType(dst.Type())
		dst.ReplaceAllUsesWith(np.Result(0))
		op.Erase()
		ConvertsFolded.Inc()
		return true
	}

	/* nothing to do */
	return false
}

// isSideEffectFree checks whether op can be removed once its results are
// no longer used.
func isSideEffectFree(op *ir.Op) bool {
	if op.Kind.Has(ir.TraitPure) || op.Kind.Has(ir.TraitReadOnly) {
		return true
	}

	/* only loops and conditionals are checked recursively */
	if !op.Is(ir.OpFor, ir.OpIf) {
		return false
	}

	/* every nested operation must be side-effect free as well */
	for _, r := range op.Regions() {
		for _, p := range r.Ops() {
			if !isSideEffectFree(p) {
				return false
			}
		}
	}
	return true
}

func isTriviallyDead(op *ir.Op) bool {
	return !op.Kind.IsTerminator() && !op.HasUses() && isSideEffectFree(op)
}

// eraseDeadOps removes every trivially dead operation of the module.
func eraseDeadOps(m *ir.Module) bool {
	var ops []*ir.Op
	m.Walk(func(op *ir.Op) { ops = append(ops, op) })

	/* users come after their definitions in pre-order */
	ret := false
	for i := len(ops) - 1; i >= 0; i-- {
		if op := ops[i]; !op.Erased() && isTriviallyDead(op) {
			op.Erase()
			ret = true
			DeadOpsEliminated.Inc()
		}
	}
	return ret
}
