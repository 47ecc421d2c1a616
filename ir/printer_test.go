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

package ir

import (
	`testing`

	`github.com/stretchr/testify/assert`
)

func TestPrinter_Func(t *testing.T) {
	tt := Tensor([]int{16}, F32, encA)
	idx := Scalar(Index)
	b, fn := newTestFunc(tt, idx)
	iv := fn.Args()[1]

	/* a loop with a conversion in its body */
	loop := b.For(iv, iv, iv, fn.Args()[0])
	b.SetInsertionPointToEnd(loop.Region(0))
	b.Yield(b.Convert(b.Convert(loop.Region(0).Arg(1), encB), encA))
	b.SetInsertionPointAfter(loop)
	b.Return(loop.Result(0))

	/* check the text form */
	assert.Equal(t, `func @test(%arg0: tensor<16xf32, #a>, %arg1: index) {
  %0 = scf.for %arg1, %arg1, %arg1, %arg0 : (index, index, index, tensor<16xf32, #a>) -> (tensor<16xf32, #a>) {
  ^bb(%1: index, %2: tensor<16xf32, #a>):
    %3 = ttg.convert_layout %2 : (tensor<16xf32, #a>) -> (tensor<16xf32, #b>)
    %4 = ttg.convert_layout %3 : (tensor<16xf32, #b>) -> (tensor<16xf32, #a>)
    scf.yield %4 : (tensor<16xf32, #a>) -> ()
  }
  tt.return %0 : (tensor<16xf32, #a>) -> ()
}
`, fn.String())
}

func TestPrinter_Attrs(t *testing.T) {
	b, _ := newTestFunc()
	rng := b.MakeRange(0, 16, encA)
	cst := b.Constant(1.5, Scalar(F32))
	exp := b.ExpandDims(rng, 0, encB)
	assert.Equal(t, "%0 = tt.make_range {start = 0, end = 16} : () -> (tensor<16xi32, #a>)", rng.DefiningOp().String())
	assert.Equal(t, "%0 = arith.constant {value = 1.5} : () -> (f32)", cst.DefiningOp().String())
	assert.Equal(t, "%0 = tt.expand_dims %<unknown> {axis = 0} : (tensor<16xi32, #a>) -> (tensor<1x16xi32, #b>)", exp.DefiningOp().String())
}
