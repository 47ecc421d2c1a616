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

	`github.com/cloudwego/relayout/ir`
)

func TestCleanup_DeadLoopArgs(t *testing.T) {
	m := ir.NewModule()
	tt := ir.Tensor([]int{64}, ir.F32, blocked)
	b, fn := newFunc(m, "dead", tt, tt, index)
	x, y, iv := fn.Args()[0], fn.Args()[1], fn.Args()[2]

	/* the second loop-carried value is never used */
	loop := b.For(iv, iv, iv, x, y)
	body := loop.Region(0)
	b.SetInsertionPointToEnd(body)
	s0 := b.Binary(ir.OpAddF, body.Arg(1), x)
	s1 := b.Binary(ir.OpMulF, body.Arg(2), body.Arg(2))
	b.Yield(s0, s1)
	b.SetInsertionPointAfter(loop)
	b.Return(loop.Result(0))

	/* clean up */
	Cleanup{}.Apply(NewContext(m))
	require.NoError(t, ir.Verify(m))

	/* the loop only carries the first value */
	loops := m.Collect(ir.OpFor)
	require.Len(t, loops, 1)
	require.Equal(t, 1, loops[0].NumResults())
	assert.Equal(t, x, loops[0].Operand(3))
	assert.Equal(t, loops[0].Result(0), fn.Body.Terminator().Operand(0))
	assert.Zero(t, countOps(m, ir.OpMulF))
	assert.True(t, s1.DefiningOp().Erased())
	assert.False(t, s0.DefiningOp().Erased())
}

func TestCleanup_ForwardedLoopArgs(t *testing.T) {
	m := ir.NewModule()
	tt := ir.Tensor([]int{64}, ir.F32, blocked)
	b, fn := newFunc(m, "forward", tt, tt, ir.Tensor([]int{64}, ir.Ptr, blocked), index)
	x, y, p, iv := fn.Args()[0], fn.Args()[1], fn.Args()[2], fn.Args()[3]

	/* the second value is forwarded unchanged */
	loop := b.For(iv, iv, iv, x, y)
	body := loop.Region(0)
	b.SetInsertionPointToEnd(body)
	b.Store(p, body.Arg(2))
	b.Yield(b.Binary(ir.OpAddF, body.Arg(1), body.Arg(2)), body.Arg(2))
	b.SetInsertionPointAfter(loop)
	b.Return(loop.Result(0), loop.Result(1))

	/* clean up */
	Cleanup{}.Apply(NewContext(m))
	require.NoError(t, ir.Verify(m))

	/* uses of the forwarded value refer to the initial value */
	loops := m.Collect(ir.OpFor)
	require.Len(t, loops, 1)
	require.Equal(t, 1, loops[0].NumResults())
	assert.Equal(t, y, fn.Body.Terminator().Operand(1))
	assert.Equal(t, y, m.Collect(ir.OpStore)[0].Operand(1))
	assert.Equal(t, y, m.Collect(ir.OpAddF)[0].Operand(1))
}

func TestCleanup_KeepsSideEffects(t *testing.T) {
	m := ir.NewModule()
	tt := ir.Tensor([]int{64}, ir.F32, blocked)
	b, fn := newFunc(m, "effects", tt, ir.Tensor([]int{64}, ir.Ptr, blocked), index)
	x, p, iv := fn.Args()[0], fn.Args()[1], fn.Args()[2]

	/* the result is unused, but the value is stored every iteration */
	loop := b.For(iv, iv, iv, x)
	body := loop.Region(0)
	b.SetInsertionPointToEnd(body)
	v := b.Unary(ir.OpNegF, body.Arg(1))
	b.Store(p, v)
	b.Yield(v)
	b.SetInsertionPointAfter(loop)
	b.Return()

	/* nothing to remove */
	Cleanup{}.Apply(NewContext(m))
	require.NoError(t, ir.Verify(m))
	assert.False(t, loop.Erased())
	assert.Equal(t, 1, loop.NumResults())
	assert.Equal(t, v, body.Terminator().Operand(0))
}
