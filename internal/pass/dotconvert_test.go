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
	`github.com/cloudwego/relayout/layout`
)

func TestDotConvert_SingleUse(t *testing.T) {
	pt := ir.Tensor([]int{64, 64}, ir.Ptr, blocked)
	at := ir.Tensor([]int{64, 64}, ir.F16, layout.DotOperand{OpIdx: 0, Parent: mma, KWidth: 2})
	bt := ir.Tensor([]int{64, 64}, ir.F16, layout.DotOperand{OpIdx: 1, Parent: mma, KWidth: 2})

	/* the converted result is used twice by the same operation */
	m := ir.NewModule()
	b, fn := newFunc(m, "twice", pt, at, bt)
	acc := b.Convert(b.Load(fn.Args()[0], ir.F32), mma)
	cvt := b.Convert(b.Dot(fn.Args()[1], fn.Args()[2], acc), blocked)
	b.Store(fn.Args()[0], b.Binary(ir.OpAddF, cvt, cvt))
	b.Return()

	/* not decomposed */
	require.Equal(t, 2, cvt.NumUses())
	assert.False(t, decomposeDotConvert(m, cvt.DefiningOp()))
	assert.False(t, cvt.DefiningOp().Erased())
	assert.Len(t, m.Collect(ir.OpDot), 1)

	/* a single use is decomposed */
	m = ir.NewModule()
	buildDot(m)
	cvts := m.Collect(ir.OpConvertLayout)
	require.Len(t, cvts, 2)
	assert.True(t, decomposeDotConvert(m, cvts[1]))
	assert.True(t, cvts[1].Erased())
	require.NoError(t, ir.Verify(m))
}
