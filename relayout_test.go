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


package relayout

import (
	`os`
	`path/filepath`
	`testing`

	`github.com/pkg/errors`
	`github.com/stretchr/testify/assert`
	`github.com/stretchr/testify/require`
	`go.uber.org/zap`

	`github.com/cloudwego/relayout/internal/opts`
	`github.com/cloudwego/relayout/ir`
	`github.com/cloudwego/relayout/layout`
)

var (
	blocked = layout.Blocked{SizePerThread: 1, ThreadsPerWarp: 32, WarpsPerCTA: 4}
	mma     = layout.Mma{VersionMajor: 2, WarpsPerCTA: 4}
)

type _NoSourceOracle struct {
	layout.Target
}

func (_NoSourceOracle) InferSrcEncoding(*ir.Op, ir.Encoding) (ir.Encoding, bool) {
	return nil, false
}

func newFunc(m *ir.Module, name string, args ...ir.Type) (*ir.Builder, *ir.Func) {
	fn := m.NewFunc(name, args...)
	b := ir.NewBuilder(m)
	b.SetInsertionPointToEnd(fn.Body)
	return b, fn
}

// buildConflict adds a blocked value to a matrix one converted to blocked.
func buildConflict(m *ir.Module) {
	tt := ir.Tensor([]int{64}, ir.F32, blocked)
	b, fn := newFunc(m, "conflict", tt, tt.WithEncoding(mma))
	b.Return(b.Binary(ir.OpAddF, fn.Args()[0], b.Convert(fn.Args()[1], blocked)))
}

// buildRoundTrip converts a value to the matrix layout and back.
func buildRoundTrip(m *ir.Module) {
	b, fn := newFunc(m, "roundtrip", ir.Tensor([]int{64}, ir.F32, blocked))
	v := b.Convert(b.Unary(ir.OpNegF, fn.Args()[0]), mma)
	b.Return(b.Convert(v, blocked))
}

func TestRemoveLayoutConversions_RoundTrip(t *testing.T) {
	m := ir.NewModule()
	buildRoundTrip(m)
	require.NoError(t, RemoveLayoutConversions(m, WithVerify(true)))
	assert.Empty(t, m.Collect(ir.OpConvertLayout), m.String())
}

func TestRemoveLayoutConversions_InvalidInput(t *testing.T) {
	m := ir.NewModule()
	b, fn := newFunc(m, "broken", ir.Tensor([]int{64}, ir.F32, blocked))
	b.Unary(ir.OpNegF, fn.Args()[0])

	/* rejected before any stage */
	err := RemoveLayoutConversions(m, WithVerify(true))
	require.Error(t, err)
	var e VerifyError
	require.True(t, errors.As(err, &e))
	assert.Empty(t, e.Stage)
	assert.Contains(t, err.Error(), "invalid input module")
	assert.Contains(t, err.Error(), "must end with a return")
}

func TestRemoveLayoutConversions_InternalError(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		m := ir.NewModule()
		buildConflict(m)

		/* operand layouts cannot be inferred */
		err := RemoveLayoutConversions(m,
			WithParallel(parallel),
			WithOracle(_NoSourceOracle{layout.DefaultTarget()}),
		)
		require.Error(t, err)
		assert.IsType(t, InternalError{}, errors.Cause(err))
	}

	/* Optimize panics instead */
	m := ir.NewModule()
	buildConflict(m)
	assert.Panics(t, func() { Optimize(m, WithOracle(_NoSourceOracle{layout.DefaultTarget()})) })
}

func TestVerifyError_Message(t *testing.T) {
	err := errors.New("boom")
	assert.EqualError(t, VerifyError{Err: err}, "invalid input module: boom")
	assert.EqualError(t, VerifyError{Stage: "Loop Cleanup", Err: err}, "invalid module after Loop Cleanup: boom")
	assert.Equal(t, err, errors.Unwrap(VerifyError{Err: err}))
}

func TestOptions_Panics(t *testing.T) {
	assert.Panics(t, func() { WithNumWarps(0) })
	assert.Panics(t, func() { WithThreadsPerWarp(-1) })
	assert.Panics(t, func() { WithMaxIterations(0) })
	assert.Panics(t, func() { WithLogger(nil) })
	assert.Panics(t, func() { WithOracle(nil) })
}

func TestOptions_Apply(t *testing.T) {
	o := opts.GetDefaultOptions()
	log := zap.NewExample()
	for _, fn := range []Option {
		WithNumWarps(8),
		WithThreadsPerWarp(64),
		WithMaxIterations(2),
		WithVerify(true),
		WithParallel(true),
		WithLogger(log),
	} {
		fn(&o)
	}

	/* every field is set */
	assert.Equal(t, layout.Target{NumWarps: 8, ThreadsPerWarp: 64}, o.Target())
	assert.Equal(t, 2, o.MaxIterations)
	assert.True(t, o.Verify)
	assert.True(t, o.Parallel)
	assert.Same(t, log, o.Logger)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relayout.toml")
	require.NoError(t, os.WriteFile(path, []byte("[target]\nnum_warps = 2\n\n[pass]\nverify = true\n"), 0644))

	/* applies the values in the file */
	opt, err := LoadConfig(path)
	require.NoError(t, err)
	o := opts.GetDefaultOptions()
	opt(&o)
	assert.Equal(t, 2, o.NumWarps)
	assert.True(t, o.Verify)

	/* usable as an option directly */
	m := ir.NewModule()
	buildRoundTrip(m)
	require.NoError(t, RemoveLayoutConversions(m, opt))
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[pass]\nunknown = 1\n"), 0644))

	/* unknown keys */
	_, err := LoadConfig(path)
	require.Error(t, err)
	var e ConfigError
	require.True(t, errors.As(err, &e))
	assert.Equal(t, path, e.Path)
	assert.Contains(t, err.Error(), "parse config")

	/* missing files */
	_, err = LoadConfig(filepath.Join(dir, "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist), err.Error())
	assert.Contains(t, err.Error(), "read config")
}
