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

// DotConvert decomposes
//
//     convert(dot(a, b, convert(load(p))))
//
// into
//
//     addf(convert(dot(a, b, splat(0))), load(p))
//
// when the outer conversion restores the layout of the load, which leaves
// the accumulator to be loaded directly in the layout it is used in.
type DotConvert struct{}

func (DotConvert) Apply(ctx *Context) {
	n := ctx.greedy(func(op *ir.Op) bool {
		return op.Kind == ir.OpConvertLayout && decomposeDotConvert(ctx.Module, op)
	})
	ctx.Logger.Debug("dot conversion decomposition", zap.Int("rewrites", n))
}

func decomposeDotConvert(m *ir.Module, cvt *ir.Op) bool {
	dot := cvt.Operand(0).DefiningOp()
	if dot == nil || dot.Kind != ir.OpDot {
		return false
	}

	/* both must be used exactly once */
	if !cvt.Result(0).HasOneUse() || !dot.Result(0).HasOneUse() {
		return false
	}

	/* the accumulator must be a converted load */
	acc := dot.Operand(2).DefiningOp()
	if acc == nil || acc.Kind != ir.OpConvertLayout {
		return false
	}

	/* check for the load */
	ld := acc.Operand(0)
	if def := ld.DefiningOp(); def == nil || def.Kind != ir.OpLoad {
		return false
	}

	/* the outer conversion must restore the layout of the load */
	dt := cvt.Result(0).Type().(*ir.TensorType)
	if !dt.Equal(ld.Type()) {
		return false
	}

	/* multiply without accumulating */
	b := ir.NewBuilder(m)
	b.SetInsertionPoint(cvt)
	zero := b.Splat(b.Constant(0, ir.Scalar(dt.E)), dot.Result(0).Type().(*ir.TensorType))
	prod := b.Dot(dot.Operand(0), dot.Operand(1), zero)

	/* then accumulate in the layout of the load */
	sum := b.Binary(ir.OpAddF, b.ConvertTo(prod, dt), ld)
	cvt.Result(0).ReplaceAllUsesWith(sum)
	cvt.Erase()

	/* update the statistics */
	DotsDecomposed.Inc()
	return true
}
