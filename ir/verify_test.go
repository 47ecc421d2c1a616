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
	`strings`
	`testing`

	`github.com/pkg/errors`
	`github.com/stretchr/testify/assert`
	`github.com/stretchr/testify/require`
	`go.uber.org/multierr`
)

func TestVerify_Valid(t *testing.T) {
	tt := Tensor([]int{16}, F32, encA)
	idx := Scalar(Index)
	b, fn := newTestFunc(tt, idx, Scalar(I1))

	/* while loop */
	w := b.While([]*Value{fn.Args()[0]}, []Type{tt})
	b.SetInsertionPointToEnd(w.Region(0))
	b.Condition(fn.Args()[2], w.Region(0).Arg(0))
	b.SetInsertionPointToEnd(w.Region(1))
	b.Yield(b.Unary(OpNegF, w.Region(1).Arg(0)))

	/* conditional */
	b.SetInsertionPointAfter(w)
	c := b.If(fn.Args()[2], []Type{tt})
	b.SetInsertionPointToEnd(c.Region(0))
	b.Yield(w.Result(0))
	b.SetInsertionPointToEnd(c.Region(1))
	b.Yield(b.Convert(b.Convert(w.Result(0), encB), encA))

	/* return the result */
	b.SetInsertionPointAfter(c)
	b.Return(c.Result(0))
	require.NoError(t, Verify(fn.Module()))
}

func TestVerify_Dominance(t *testing.T) {
	tt := Tensor([]int{16}, F32, encA)
	b, fn := newTestFunc(tt)
	x := b.Unary(OpNegF, fn.Args()[0])
	r := b.Return(x)

	/* use a value before its definition */
	b.SetInsertionPoint(x.DefiningOp())
	b.Unary(OpExp, x)
	_ = r

	/* must be reported */
	err := Verify(fn.Module())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not dominate")
}

func TestVerify_Encodings(t *testing.T) {
	b, fn := newTestFunc(Tensor([]int{16}, F32, encA), Tensor([]int{16}, F32, encB))
	b.Binary(OpAddF, fn.Args()[0], fn.Args()[1])
	b.ConvertTo(fn.Args()[0], Tensor([]int{16}, F16, encB))
	b.Return()

	/* every problem is reported */
	err := Verify(fn.Module())
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 2)
	assert.True(t, strings.Contains(err.Error(), "encoding mismatch"))
	assert.True(t, strings.Contains(err.Error(), "changes more than the encoding"))

	/* each one names the function and carries a stack */
	for _, e := range multierr.Errors(err) {
		assert.True(t, strings.HasPrefix(e.Error(), "@test: "), e.Error())
		assert.Implements(t, (*interface{ StackTrace() errors.StackTrace })(nil), e)
	}
}

func TestVerify_LoopSignature(t *testing.T) {
	tt := Tensor([]int{16}, F32, encA)
	idx := Scalar(Index)
	b, fn := newTestFunc(tt, idx)
	iv := fn.Args()[1]

	/* the loop yields a value of another encoding */
	loop := b.For(iv, iv, iv, fn.Args()[0])
	b.SetInsertionPointToEnd(loop.Region(0))
	b.Yield(b.Convert(loop.Region(0).Arg(1), encB))
	b.SetInsertionPointAfter(loop)
	b.Return()

	/* must be reported */
	err := Verify(fn.Module())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yielded values vs results")
}

func TestVerify_Terminators(t *testing.T) {
	tt := Tensor([]int{16}, F32, encA)
	b, fn := newTestFunc(tt)
	b.Unary(OpNegF, fn.Args()[0])

	/* missing return */
	err := Verify(fn.Module())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must end with a return")
}
