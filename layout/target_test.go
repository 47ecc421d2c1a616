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

package layout

import (
	`testing`

	`github.com/stretchr/testify/assert`
	`github.com/stretchr/testify/require`

	`github.com/cloudwego/relayout/ir`
)

var (
	blocked = Blocked{SizePerThread: 1, ThreadsPerWarp: 32, WarpsPerCTA: 4}
	mma     = Mma{VersionMajor: 2, WarpsPerCTA: 4}
	shared  = Shared{Vec: 8, PerPhase: 1, MaxPhase: 8}
)

func newBuilder(args ...ir.Type) (*ir.Builder, *ir.Func) {
	m := ir.NewModule()
	fn := m.NewFunc("test", args...)
	b := ir.NewBuilder(m)
	b.SetInsertionPointToEnd(fn.Body)
	return b, fn
}

func TestEncoding_Comparable(t *testing.T) {
	var a ir.Encoding = Slice{Dim: 1, Parent: blocked}
	var b ir.Encoding = Slice{Dim: 1, Parent: Blocked{SizePerThread: 1, ThreadsPerWarp: 32, WarpsPerCTA: 4}}
	assert.True(t, a == b)
	assert.False(t, a == ir.Encoding(Slice{Dim: 0, Parent: blocked}))
	assert.False(t, ir.Encoding(blocked) == ir.Encoding(mma))
	assert.True(t, IsBlocked(blocked))
	assert.True(t, IsMma(mma))
	assert.True(t, IsShared(shared))
	assert.True(t, IsDotOperand(DotOperand{OpIdx: 0, Parent: mma, KWidth: 2}))
	assert.False(t, IsBlocked(nil))
}

func TestTarget_InferReduce(t *testing.T) {
	tg := DefaultTarget()
	b, fn := newBuilder(ir.Tensor([]int{64, 64}, ir.F32, blocked))
	r := b.Reduce(fn.Args()[0], 1, "add", ir.Tensor([]int{64}, ir.F32, Slice{Dim: 1, Parent: blocked}))

	/* forward */
	enc, ok := tg.InferDstEncoding(r.DefiningOp(), mma)
	require.True(t, ok)
	assert.Equal(t, ir.Encoding(Slice{Dim: 1, Parent: mma}), enc)

	/* backward */
	enc, ok = tg.InferSrcEncoding(r.DefiningOp(), Slice{Dim: 1, Parent: mma})
	require.True(t, ok)
	assert.Equal(t, ir.Encoding(mma), enc)

	/* the slice dimension must match the axis */
	_, ok = tg.InferSrcEncoding(r.DefiningOp(), Slice{Dim: 0, Parent: mma})
	assert.False(t, ok)
}

func TestTarget_InferExpandDims(t *testing.T) {
	tg := DefaultTarget()
	src := Slice{Dim: 0, Parent: blocked}
	b, fn := newBuilder(ir.Tensor([]int{64}, ir.F32, src))
	x := b.ExpandDims(fn.Args()[0], 0, blocked)

	/* forward */
	enc, ok := tg.InferDstEncoding(x.DefiningOp(), Slice{Dim: 0, Parent: mma})
	require.True(t, ok)
	assert.Equal(t, ir.Encoding(mma), enc)
	_, ok = tg.InferDstEncoding(x.DefiningOp(), blocked)
	assert.False(t, ok)

	/* backward */
	enc, ok = tg.InferSrcEncoding(x.DefiningOp(), mma)
	require.True(t, ok)
	assert.Equal(t, ir.Encoding(Slice{Dim: 0, Parent: mma}), enc)
}

func TestTarget_InferReshape(t *testing.T) {
	tg := DefaultTarget()
	b, fn := newBuilder(ir.Tensor([]int{64, 64}, ir.F32, blocked))
	keep := b.Reshape(fn.Args()[0], []int{4096}, false, blocked)
	reorder := b.Reshape(fn.Args()[0], []int{4096}, true, blocked)

	/* element order preserved */
	enc, ok := tg.InferDstEncoding(keep.DefiningOp(), blocked)
	require.True(t, ok)
	assert.Equal(t, ir.Encoding(blocked), enc)
	_, ok = tg.InferDstEncoding(keep.DefiningOp(), mma)
	assert.False(t, ok)

	/* element order not preserved */
	_, ok = tg.InferDstEncoding(reorder.DefiningOp(), blocked)
	assert.False(t, ok)
	_, ok = tg.InferSrcEncoding(reorder.DefiningOp(), blocked)
	assert.False(t, ok)
}

func TestTarget_InferElementwise(t *testing.T) {
	tg := DefaultTarget()
	tt := ir.Tensor([]int{128}, ir.F32, blocked)
	b, fn := newBuilder(tt, tt)
	v := b.Binary(ir.OpAddF, fn.Args()[0], fn.Args()[1])
	e := b.Cast(ir.OpTruncF, v, ir.F16)
	d := b.Dot(fn.Args()[0], fn.Args()[1], v)

	/* elementwise operations keep the encoding both ways */
	for _, op := range []*ir.Op{v.DefiningOp(), e.DefiningOp()} {
		enc, ok := tg.InferDstEncoding(op, mma)
		require.True(t, ok)
		assert.Equal(t, ir.Encoding(mma), enc)
		enc, ok = tg.InferSrcEncoding(op, mma)
		require.True(t, ok)
		assert.Equal(t, ir.Encoding(mma), enc)
	}

	/* dots have no inference rule */
	_, ok := tg.InferDstEncoding(d.DefiningOp(), mma)
	assert.False(t, ok)
	_, ok = tg.InferSrcEncoding(d.DefiningOp(), mma)
	assert.False(t, ok)
}

func TestTarget_IsExpensiveLoadOrStore(t *testing.T) {
	tg := Target{NumWarps: 4, ThreadsPerWarp: 32}
	big := ir.Tensor([]int{128}, ir.Ptr, blocked)
	small := ir.Tensor([]int{64}, ir.Ptr, blocked)
	b, fn := newBuilder(big, small, ir.Tensor([]int{1}, ir.Ptr, blocked), ir.Scalar(ir.Ptr))

	/* tensor sizes relative to the number of threads */
	assert.True(t, tg.IsExpensiveLoadOrStore(b.Load(fn.Args()[0], ir.F32).DefiningOp()))
	assert.False(t, tg.IsExpensiveLoadOrStore(b.Load(fn.Args()[1], ir.F32).DefiningOp()))
	assert.False(t, tg.IsExpensiveLoadOrStore(b.Load(fn.Args()[2], ir.F32).DefiningOp()))

	/* scalars and non-memory operations */
	x := b.Load(fn.Args()[0], ir.F32)
	assert.False(t, tg.IsExpensiveLoadOrStore(b.Unary(ir.OpNegF, x).DefiningOp()))
	assert.False(t, tg.IsExpensiveLoadOrStore(b.Store(fn.Args()[3], b.Constant(0, ir.Scalar(ir.F32)))))

	/* stores are checked through their pointer */
	assert.True(t, tg.IsExpensiveLoadOrStore(b.Store(fn.Args()[0], x)))

	/* smaller targets make smaller accesses expensive */
	assert.True(t, Target{NumWarps: 1, ThreadsPerWarp: 32}.IsExpensiveLoadOrStore(b.Load(fn.Args()[1], ir.F32).DefiningOp()))
}

func TestTarget_CanFoldIntoConversion(t *testing.T) {
	tg := DefaultTarget()
	b, _ := newBuilder()
	tt := ir.Tensor([]int{128}, ir.F32, blocked)
	cst := b.Constant(1, tt).DefiningOp()
	scalar := b.Constant(1, ir.Scalar(ir.F32))
	splat := b.Splat(scalar, tt).DefiningOp()
	rng := b.MakeRange(0, 128, blocked).DefiningOp()

	/* constants */
	assert.True(t, tg.CanFoldIntoConversion(cst, mma))
	assert.False(t, tg.CanFoldIntoConversion(scalar.DefiningOp(), mma))
	assert.False(t, tg.CanFoldIntoConversion(cst, shared))

	/* splats */
	assert.True(t, tg.CanFoldIntoConversion(splat, mma))
	assert.False(t, tg.CanFoldIntoConversion(splat, shared))

	/* ranges */
	assert.True(t, tg.CanFoldIntoConversion(rng, blocked))
	assert.True(t, tg.CanFoldIntoConversion(rng, Slice{Dim: 0, Parent: mma}))
	assert.False(t, tg.CanFoldIntoConversion(rng, mma))
}

func TestTarget_HasSharedEncoding(t *testing.T) {
	tg := DefaultTarget()
	_, fn := newBuilder(ir.Tensor([]int{16}, ir.F16, shared), ir.Tensor([]int{16}, ir.F16, blocked), ir.Scalar(ir.F16))
	assert.True(t, tg.HasSharedEncoding(fn.Args()[0]))
	assert.False(t, tg.HasSharedEncoding(fn.Args()[1]))
	assert.False(t, tg.HasSharedEncoding(fn.Args()[2]))
}
