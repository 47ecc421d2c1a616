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


package debug

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/relayout"
	"github.com/cloudwego/relayout/ir"
	"github.com/cloudwego/relayout/layout"
)

func buildDot(m *ir.Module) {
	mma := layout.Mma{VersionMajor: 2, WarpsPerCTA: 4}
	blocked := layout.Blocked{SizePerThread: 1, ThreadsPerWarp: 32, WarpsPerCTA: 4}
	pt := ir.Tensor([]int{64, 64}, ir.Ptr, blocked)
	at := ir.Tensor([]int{64, 64}, ir.F16, layout.DotOperand{OpIdx: 0, Parent: mma, KWidth: 2})
	bt := ir.Tensor([]int{64, 64}, ir.F16, layout.DotOperand{OpIdx: 1, Parent: mma, KWidth: 2})

	/* store(ptr, convert(dot(a, b, convert(load(ptr))))) */
	fn := m.NewFunc("dot", pt, at, bt)
	b := ir.NewBuilder(m)
	b.SetInsertionPointToEnd(fn.Body)
	acc := b.Convert(b.Load(fn.Args()[0], ir.F32), mma)
	dot := b.Dot(fn.Args()[1], fn.Args()[2], acc)
	b.Store(fn.Args()[0], b.Convert(dot, blocked))
	b.Return()
}

func TestStats_Dots(t *testing.T) {
	old := GetStats()
	m := ir.NewModule()
	buildDot(m)
	relayout.Optimize(m, relayout.WithVerify(true))

	/* the accumulator is split out of the dot */
	now := GetStats()
	require.Equal(t, old.Dots + 1, now.Dots)
	assert.GreaterOrEqual(t, now.Converts.Inserted, old.Converts.Inserted)
	assert.GreaterOrEqual(t, now.Loops.DeadOps, old.Loops.DeadOps)
}
