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
	`github.com/cloudwego/relayout/layout`
)

// Hoist moves the remaining conversions above the type extensions and
// broadcasts producing their source, so they convert smaller tensors.
type Hoist struct{}

func (Hoist) Apply(ctx *Context) {
	n := 0
	for _, op := range ctx.Module.Collect(ir.OpConvertLayout) {
		if !op.Erased() && hoistConvertOnTopOfExtOrBroadcast(ctx, op) {
			n++
		}
	}
	ctx.Logger.Debug("conversion hoisting", zap.Int("converts", n))
}

func isExtOrBroadcast(op *ir.Op) bool {
	return op.Kind.IsExtOrBroadcast()
}

func hoistConvertOnTopOfExtOrBroadcast(ctx *Context, cvt *ir.Op) bool {
	o := ctx.Oracle
	dst := cvt.Result(0)

	/* conversions from or to shared memory are left alone */
	if o.HasSharedEncoding(dst) || o.HasSharedEncoding(cvt.Operand(0)) {
		return false
	}

	/* so are the conversions to dot operands */
	enc := ir.EncodingOf(dst)
	if layout.IsDotOperand(enc) {
		return false
	}

	/* the slice up to the extensions */
	slice := newValueSet()
	layouts := make(map[*ir.Value]ir.Encoding)
	if !getRematerializableSlice(o, cvt.Operand(0), enc, slice, layouts, isExtOrBroadcast) {
		return false
	}

	/* find the extension to hoist above */
	var ext *ir.Op
	n := slice.Len()

	/* the values appended while scanning do not need to be checked */
	for i := 0; i < n; i++ {
		v := slice.At(i)
		op := v.DefiningOp()

		/* only look at the extensions */
		if op == nil || !isExtOrBroadcast(op) {
			continue
		}

		/* layout of the operand of the extension */
		src, ok := o.InferSrcEncoding(op, layouts[v])
		if !ok {
			return false
		}

		/* no conversion needed if the operand can be recomputed as well */
		sub := newValueSet()
		sl := make(map[*ir.Value]ir.Encoding)

		/* merge it into the slice */
		if getRematerializableSlice(o, op.Operand(0), src, sub, sl, nil) {
			for _, x := range sub.Values() {
				slice.Insert(x)
			}
			for x, e := range sl {
				if _, ok := layouts[x]; !ok {
					layouts[x] = e
				}
			}
			continue
		}

		/* more than one extension would duplicate the conversion */
		if ext != nil {
			return false
		}

		/* hoist above this one */
		ext = op
	}

	/* nothing to hoist above */
	if ext == nil {
		return false
	}

	/* layout of the extension operand */
	denc := layouts[ext.Result(0)]
	senc, ok := o.InferSrcEncoding(ext, denc)
	if !ok {
		return false
	}

	/* convert before the extension */
	b := ir.NewBuilder(ctx.Module)
	b.SetInsertionPoint(ext)
	nc := b.Convert(ext.Operand(0), senc)

	/* then extend the converted value */
	ne := b.Clone(ext, nil)
	ne.SetOperand(0, nc)
	ne.Result(0).SetType(ext.Result(0).Type().(*ir.TensorType).WithEncoding(denc))

	/* rewrite the rest of the slice */
	mapping := ir.NewMapping()
	mapping.Map(ext.Result(0), ne.Result(0))
	slice.Remove(ext.Result(0))
	rewriteSlice(ctx.Module, slice, layouts, cvt, mapping)

	/* update the statistics */
	ConvertsHoisted.Inc()
	return true
}
