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
	`testing`

	`github.com/stretchr/testify/assert`
	`github.com/stretchr/testify/require`
	`go.uber.org/zap`
	`go.uber.org/zap/zaptest/observer`

	`github.com/cloudwego/relayout/ir`
)

func TestResolve_MemoryPrefersBlocked(t *testing.T) {
	for _, order := range [][]ir.Encoding{{blocked, mma}, {mma, blocked}} {
		m := ir.NewModule()
		b, fn := newFunc(m, "load", ir.Tensor([]int{64}, ir.Ptr, blocked), ir.Tensor([]int{64}, ir.F32, blocked))
		ld := b.Load(fn.Args()[0], ir.F32)
		add := b.Binary(ir.OpAddF, ld, fn.Args()[1])
		b.Return(add)

		/* both values have the same candidates */
		lp := newLayoutPropagation(NewContext(m), fn)
		for _, enc := range order {
			lp.layouts.Add(ld, enc)
			lp.layouts.Add(add, enc)
		}

		/* loads pick the blocked layout, the others pick the matrix layout */
		require.Equal(t, 2, lp.resolveConflicts())
		info, _ := lp.layouts.Get(ld)
		assert.Equal(t, ir.Encoding(blocked), info.Encoding())
		info, _ = lp.layouts.Get(add)
		assert.Equal(t, ir.Encoding(mma), info.Encoding())
	}
}

func TestResolve_FirstCandidate(t *testing.T) {
	m := ir.NewModule()
	b, fn := newFunc(m, "first", ir.Tensor([]int{64}, ir.F32, blocked))
	v := b.Unary(ir.OpNegF, fn.Args()[0])
	b.Return(v)

	/* no preferred layout among the candidates */
	lp := newLayoutPropagation(NewContext(m), fn)
	lp.layouts.Add(v, blocked2)
	lp.layouts.Add(v, blocked)
	require.Equal(t, 1, lp.resolveConflicts())

	/* the first one wins */
	info, _ := lp.layouts.Get(v)
	assert.Equal(t, ir.Encoding(blocked2), info.Encoding())
}

func TestResolve_Totality(t *testing.T) {
	m := ir.NewModule()
	fn := buildLoop(m, "loop")
	lp := newLayoutPropagation(NewContext(m), fn)
	lp.initAnchorLayout()
	lp.propagateLayout()

	/* the loop-carried value has conflicting candidates */
	loop := m.Collect(ir.OpFor)[0]
	info, ok := lp.layouts.Get(loop.Result(0))
	require.True(t, ok)
	require.ElementsMatch(t, []ir.Encoding{blocked, mma}, info.Encodings)
	assert.Panics(t, func() { info.Encoding() })

	/* exactly one layout after resolution */
	lp.resolveConflicts()
	for _, v := range lp.layouts.Keys() {
		info, _ := lp.layouts.Get(v)
		require.Len(t, info.Encodings, 1, describeValue(v))
	}

	/* the matrix layout wins */
	info, _ = lp.layouts.Get(loop.Result(0))
	assert.Equal(t, ir.Encoding(mma), info.Encoding())
}

func TestAnchor_MmaNeedsConversionBack(t *testing.T) {
	at := ir.Tensor([]int{16, 16}, ir.F16, blocked)
	ct := ir.Tensor([]int{16, 16}, ir.F32, mma)

	/* the dot result is only converted to blocked */
	m := ir.NewModule()
	b, fn := newFunc(m, "dot", at, at, ct)
	d := b.Dot(fn.Args()[0], fn.Args()[1], fn.Args()[2])
	b.Return(b.Convert(d, blocked))
	assert.False(t, hasConvertToMmaTransitiveUse(d.DefiningOp(), mma))

	/* converted back to the matrix layout through the loop-carried value */
	b, fn = newFunc(m, "loop", at, at, ct.WithEncoding(blocked), index)
	iv := fn.Args()[3]
	loop := b.For(iv, iv, iv, fn.Args()[2])
	body := loop.Region(0)
	b.SetInsertionPointToEnd(body)
	d = b.Dot(fn.Args()[0], fn.Args()[1], b.Convert(body.Arg(1), mma))
	b.Yield(b.Convert(d, blocked))
	b.SetInsertionPointAfter(loop)
	b.Return(loop.Result(0))
	assert.True(t, hasConvertToMmaTransitiveUse(d.DefiningOp(), mma))
}

func TestResolve_DumpLayouts(t *testing.T) {
	m := ir.NewModule()
	buildLoop(m, "loop")

	/* capture the debug logs */
	core, logs := observer.New(zap.DebugLevel)
	ctx := NewContext(m)
	ctx.Logger = zap.New(core)
	runPipeline(t, ctx)

	/* the candidates are dumped once per function */
	dumps := logs.FilterMessage("candidate layouts after propagation").All()
	require.Len(t, dumps, 1)
	assert.Equal(t, "loop", dumps[0].ContextMap()["func"])
	assert.Contains(t, dumps[0].ContextMap()["layouts"], "#mma<v2.0, wpc = 4>")

	/* and the module after every stage */
	assert.Equal(t, len(Passes), logs.FilterMessageSnippet("module after").Len())
}
