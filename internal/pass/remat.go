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
	`sort`

	`go.uber.org/zap`
	`gonum.org/v1/gonum/graph`
	`gonum.org/v1/gonum/graph/simple`
	`gonum.org/v1/gonum/graph/topo`

	`github.com/cloudwego/relayout/ir`
	`github.com/cloudwego/relayout/layout`
)

// Remat removes the remaining conversions by recomputing the values they
// convert directly in the target layout, whenever that is cheap enough.
type Remat struct{}

func (Remat) Apply(ctx *Context) {
	n := 0
	for _, op := range ctx.Module.Collect(ir.OpConvertLayout) {
		if !op.Erased() && backwardRematerialization(ctx, op) {
			n++
		}
	}
	ctx.Logger.Debug("backward rematerialization", zap.Int("converts", n))
}

func backwardRematerialization(ctx *Context, cvt *ir.Op) bool {
	o := ctx.Oracle
	dst := cvt.Result(0)

	/* conversions from or to shared memory are left alone */
	if o.HasSharedEncoding(dst) || o.HasSharedEncoding(cvt.Operand(0)) {
		return false
	}

	/* so are the conversions to dot operands, to keep the fused matrix multiplications */
	enc := ir.EncodingOf(dst)
	if layout.IsDotOperand(enc) {
		return false
	}

	/* find the slice that can be recomputed */
	slice := newValueSet()
	layouts := make(map[*ir.Value]ir.Encoding)
	if !getRematerializableSlice(o, cvt.Operand(0), enc, slice, layouts, nil) {
		return false
	}

	/* rewrite the slice */
	rewriteSlice(ctx.Module, slice, layouts, cvt, ir.NewMapping())
	ConvertsRematerialized.Inc()
	return true
}

// rewriteSlice duplicates every producer of the slice with the layouts it
// has been assigned, and replaces the conversion cvt with the duplicate of
// its source. Loops carrying values of the slice get extra loop-carried
// values for the duplicates.
func rewriteSlice(m *ir.Module, slice *_ValueSet, layouts map[*ir.Value]ir.Encoding, cvt *ir.Op, mapping *ir.Mapping) {
	b := ir.NewBuilder(m)
	ops := newOpSet()

	/* collect the operations to rewrite */
	for _, v := range slice.Values() {
		if def := v.DefiningOp(); def != nil {
			ops.Insert(def)
		} else {
			ops.Insert(v.Owner().ParentOp())
			ops.Insert(v.Owner().Terminator())
		}
	}

	/* new loops, and the positions of the duplicated loop-carried values */
	var dead []*ir.Op
	loops := make(map[*ir.Op][]int)

	/* rewrite in topological order */
	for _, op := range sortTopologically(ops.Ops()) {
		switch op.Kind {
			case ir.OpFor: {
				var pos []int
				var extra []*ir.Value

				/* duplicate the loop-carried values of the slice */
				for i, v := range op.Region(0).Args()[1:] {
					if slice.Contains(v) {
						pos = append(pos, i)
						extra = append(extra, mapping.Lookup(op.Operand(i + 3)))
					}
				}

				/* create the new loop */
				n := op.NumResults()
				nf := replaceForWithNewSignature(b, op, extra)

				/* map the old loop-carried values to the duplicates */
				for j, i := range pos {
					mapping.Map(nf.Result(i), nf.Result(n + j))
					mapping.Map(nf.Region(0).Arg(i + 1), nf.Region(0).Arg(n + j + 1))
				}

				/* the old loop is erased at last */
				loops[nf] = pos
				dead = append(dead, op)
			}

			/* yield the duplicated values as well */
			case ir.OpYield: {
				vals := op.Operands()
				for _, i := range loops[op.ParentOp()] {
					vals = append(vals, mapping.Lookup(op.Operand(i)))
				}

				/* replace the terminator */
				b.SetInsertionPoint(op)
				b.Yield(vals...)
				op.Erase()
			}

			/* constants are duplicated as-is, the conversion folds later */
			case ir.OpConstant: {
				b.SetInsertionPoint(op)
				mapping.Map(op.Result(0), b.Convert(b.Clone(op, nil).Result(0), layouts[op.Result(0)]))
			}

			/* everything else is duplicated with the new layouts */
			default: {
				b.SetInsertionPoint(op)
				np := b.Clone(op, mapping)

				/* retype the results */
				for i, v := range op.Results() {
					if enc, ok := layouts[v]; ok {
						np.Result(i).SetType(v.Type().(*ir.TensorType).WithEncoding(enc))
					}
				}
			}
		}
	}

	/* the conversion is no longer needed */
	cvt.Result(0).ReplaceAllUsesWith(mapping.Lookup(cvt.Operand(0)))
	cvt.Erase()

	/* neither are the old loops */
	for _, op := range dead {
		op.Erase()
	}
}

// sortTopologically orders ops so that every operation comes after the
// operations producing its operands and after its enclosing operations.
// Independent operations keep their program order.
func sortTopologically(ops []*ir.Op) []*ir.Op {
	if len(ops) == 0 {
		return nil
	}

	/* program order of the operations */
	pos := make(map[*ir.Op]int)
	ops[0].Parent().Func().Walk(func(op *ir.Op) { pos[op] = len(pos) })

	/* sort by program order, so node IDs follow the program order */
	sorted := append([]*ir.Op(nil), ops...)
	sort.Slice(sorted, func(i int, j int) bool { return pos[sorted[i]] < pos[sorted[j]] })

	/* one node per operation */
	g := simple.NewDirectedGraph()
	ids := make(map[*ir.Op]int64, len(sorted))

	/* add all the nodes */
	for i, op := range sorted {
		ids[op] = int64(i)
		g.AddNode(simple.Node(i))
	}

	/* edges from the producers and the enclosing operations */
	edge := func(from *ir.Op, to int64) {
		if id, ok := ids[from]; ok && id != to {
			g.SetEdge(g.NewEdge(simple.Node(id), simple.Node(to)))
		}
	}

	/* add all the edges */
	for i, op := range sorted {
		for _, v := range op.Operands() {
			if def := v.DefiningOp(); def != nil {
				edge(def, int64(i))
			} else {
				edge(v.Owner().ParentOp(), int64(i))
			}
		}

		/* the enclosing operations */
		for pp := op.ParentOp(); pp != nil; pp = pp.ParentOp() {
			edge(pp, int64(i))
		}
	}

	/* ties are broken by program order */
	nodes, err := topo.SortStabilized(g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i int, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})

	/* the slice is acyclic by construction */
	if err != nil {
		fatal(nil, "cannot sort the slice topologically: %v", err)
	}

	/* map back to operations */
	ret := make([]*ir.Op, 0, len(nodes))
	for _, n := range nodes {
		ret = append(ret, sorted[n.ID()])
	}
	return ret
}
