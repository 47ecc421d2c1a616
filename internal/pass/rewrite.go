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
	`golang.org/x/sync/errgroup`

	`github.com/cloudwego/relayout/ir`
)

type _ValueEncoding struct {
	v   *ir.Value
	enc ir.Encoding
}

// _LayoutPropagation holds the state of resolving the layouts of a single
// function. It works in four steps:
//
//   1. find the anchors, the values with a layout that must not change
//   2. propagate the anchor layouts forward to every user, a value may end
//      up with more than one candidate layout at this stage
//   3. resolve the conflicts, leaving exactly one layout per value
//   4. rewrite the function in dominance order, inserting conversions only
//      where the layout of a use does not match the layout of the value
//
type _LayoutPropagation struct {
	fn       *ir.Func
	oracle   Oracle
	log      *zap.Logger
	layouts  *_LayoutMap
	mapping  map[_ValueEncoding]*ir.Value
	converts map[_ValueEncoding]*ir.Value
	deleted  *_OpSet
	inserted int
}

func newLayoutPropagation(ctx *Context, fn *ir.Func) *_LayoutPropagation {
	return &_LayoutPropagation {
		fn       : fn,
		oracle   : ctx.Oracle,
		log      : ctx.Logger.With(zap.String("func", fn.Name)),
		layouts  : newLayoutMap(),
		mapping  : make(map[_ValueEncoding]*ir.Value),
		converts : make(map[_ValueEncoding]*ir.Value),
		deleted  : newOpSet(),
	}
}

func (self *_LayoutPropagation) run() {
	self.initAnchorLayout()
	anchors := self.layouts.Len()

	/* propagate and resolve */
	self.propagateLayout()
	self.dump("propagation")
	conflicts := self.resolveConflicts()

	/* rewrite the function with the chosen layouts */
	self.rewrite()
	self.log.Debug("layouts resolved",
		zap.Int("anchors", anchors),
		zap.Int("values", self.layouts.Len()),
		zap.Int("conflicts", conflicts),
		zap.Int("rewritten", len(self.deleted.Ops())),
		zap.Int("converts", self.inserted),
	)
}

// Propagate resolves the layout of every tensor value of every function,
// and rewrites the functions accordingly.
type Propagate struct{}

func (Propagate) Apply(ctx *Context) {
	if !ctx.Parallel || len(ctx.Module.Funcs) <= 1 {
		for _, fn := range ctx.Module.Funcs {
			newLayoutPropagation(ctx, fn).run()
		}
		return
	}

	/* functions are independent from each other */
	var g errgroup.Group
	for _, fn := range ctx.Module.Funcs {
		fn := fn
		g.Go(func() (err error) {
			defer Recover(&err)
			newLayoutPropagation(ctx, fn).run()
			return nil
		})
	}

	/* re-raise the failure on the calling goroutine */
	if err := g.Wait(); err != nil {
		panic(err)
	}
}

func (self *_LayoutPropagation) needRewrite(op *ir.Op) bool {
	for _, v := range op.Results() {
		if info, ok := self.layouts.Get(v); ok && info.Encoding() != ir.EncodingOf(v) {
			return true
		}
	}
	return false
}

func (self *_LayoutPropagation) rewrite() {
	st := lane.NewStack()
	st.Push(self.fn.Body)

	/* regions are visited after the operations enclosing them */
	for !st.Empty() {
		rr := st.Pop().(*ir.Region)
		ops := append([]*ir.Op(nil), rr.Ops()...)

		/* rewrite every operation */
		for _, op := range ops {
			if self.needRewrite(op) {
				for _, r := range self.rewriteOp(op).Regions() {
					st.Push(r)
				}
				continue
			}

			/* the operands still need to be remapped */
			switch {
				case op.Kind == ir.OpYield     : self.rewriteYield(op)
				case op.Kind == ir.OpCondition : self.rewriteCondition(op)
				case isReduceToScalar(op)      : self.rewriteReduceToScalar(op)
				default                        : self.remapOperands(op)
			}

			/* then the nested regions */
			for _, r := range op.Regions() {
				st.Push(r)
			}
		}
	}

	/* users are deleted before their definitions */
	ops := self.deleted.Ops()
	for i := len(ops) - 1; i >= 0; i-- {
		ops[i].Erase()
	}
}

func (self *_LayoutPropagation) remapOperands(op *ir.Op) {
	for i, v := range op.Operands() {
		if _, ok := self.layouts.Get(v); ok {
			op.SetOperand(i, self.getValueAs(v, ir.EncodingOf(v)))
		}
	}
}

func (self *_LayoutPropagation) mapValue(old *ir.Value, v *ir.Value) {
	if ir.IsTensor(v.Type()) {
		self.mapping[_ValueEncoding{old, ir.EncodingOf(v)}] = v
	}
}

func (self *_LayoutPropagation) remapValue(old *ir.Value, v *ir.Value) {
	if old.Type().Equal(v.Type()) {
		old.ReplaceAllUsesWith(v)
	} else {
		self.mapValue(old, v)
	}
}

// getValueAs returns the rewritten version of v with encoding enc, inserting
// a conversion if the rewritten value has another encoding.
func (self *_LayoutPropagation) getValueAs(v *ir.Value, enc ir.Encoding) *ir.Value {
	tt, ok := ir.AsTensor(v.Type())
	if !ok {
		return v
	}

	/* find the rewritten value */
	rv := v
	if info, ok := self.layouts.Get(v); ok {
		if picked := info.Encoding(); picked != tt.Encoding {
			if nv, ok := self.mapping[_ValueEncoding{v, picked}]; ok {
				rv = nv
			}
		}
	}

	/* already in the requested encoding */
	if ir.EncodingOf(rv) == enc {
		return rv
	}

	/* reuse the conversion if we have made one before */
	key := _ValueEncoding{rv, enc}
	if cvt, ok := self.converts[key]; ok {
		return cvt
	}

	/* convert right after the definition, so it dominates every use */
	b := ir.NewBuilder(self.fn.Module())
	b.SetInsertionPointAfterValue(rv)
	cvt := b.Convert(rv, enc)

	/* remember the conversion */
	self.inserted++
	self.converts[key] = cvt
	ConvertsInserted.Inc()
	return cvt
}

func (self *_LayoutPropagation) resultEncoding(op *ir.Op) ir.Encoding {
	for _, v := range op.Results() {
		if info, ok := self.layouts.Get(v); ok {
			return info.Encoding()
		}
	}
	panic("unreachable")
}

func (self *_LayoutPropagation) rewriteOp(op *ir.Op) *ir.Op {
	self.deleted.Insert(op)
	b := ir.NewBuilder(self.fn.Module())

	/* structured control flow */
	switch op.Kind {
		case ir.OpFor   : return self.rewriteFor(op)
		case ir.OpWhile : return self.rewriteWhile(op)
		case ir.OpIf    : return self.rewriteIf(op)
	}

	/* the encoding chosen for the results */
	enc := self.resultEncoding(op)
	tt, _ := ir.AsTensor(op.Result(0).Type())

	/* conversions are rebuilt from the rewritten source */
	if op.Kind == ir.OpConvertLayout {
		src := op.Operand(0)
		senc := ir.EncodingOf(src)

		/* use the source layout if it has been resolved */
		if info, ok := self.layouts.Get(src); ok {
			senc = info.Encoding()
		}

		/* build the new conversion */
		nv := self.getValueAs(src, senc)
		b.SetInsertionPoint(op)
		cvt := b.ConvertTo(nv, tt.WithEncoding(enc))
		self.mapValue(op.Result(0), cvt)
		return cvt.DefiningOp()
	}

	/* operations that can be recreated with any layout */
	if self.oracle.CanFoldIntoConversion(op, enc) {
		b.SetInsertionPoint(op)
		cvt := b.Convert(b.Clone(op, nil).Result(0), enc)
		self.mapValue(op.Result(0), cvt)
		return cvt.DefiningOp()
	}

	/* operations with inferable operand layouts */
	if followsOperands(op) {
		np := self.cloneElementwise(op, enc)
		for i, v := range op.Results() {
			self.mapValue(v, np.Result(i))
		}
		return np
	}

	/* nothing we can do */
	fatal(op, "unexpected operation in layout rewrite")
	return nil
}

func (self *_LayoutPropagation) cloneElementwise(op *ir.Op, enc ir.Encoding) *ir.Op {
	b := ir.NewBuilder(self.fn.Module())
	b.SetInsertionPoint(op)
	np := b.Clone(op, nil)

	/* coerce every operand to the inferred operand layout */
	if op.NumOperands() != 0 {
		src, ok := self.oracle.InferSrcEncoding(op, enc)
		if !ok {
			fatal(op, "cannot infer the operand layout for %s", enc)
		}

		/* remap the operands */
		for i, v := range op.Operands() {
			np.SetOperand(i, self.getValueAs(v, src))
		}
	}

	/* retype the results */
	for _, v := range np.Results() {
		if tt, ok := ir.AsTensor(v.Type()); ok {
			v.SetType(tt.WithEncoding(enc))
		}
	}
	return np
}
