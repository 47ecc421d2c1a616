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
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/cloudwego/relayout/internal/opts"
	"github.com/cloudwego/relayout/internal/pass"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// Oracle answers the target-specific layout questions of the pass. The
// default oracle is a layout.Target built from the warp options.
type Oracle = pass.Oracle

// WithNumWarps sets the number of warps of the target.
//
// The default value of this option is "4", or the value of the
// RELAYOUT_NUM_WARPS environment variable.
func WithNumWarps(n int) Option {
	if n <= 0 {
		panic(fmt.Sprintf("relayout: invalid warp count: %d", n))
	} else {
		return func(o *opts.Options) { o.NumWarps = n }
	}
}

// WithThreadsPerWarp sets the number of threads in a warp of the target.
//
// The default value of this option is "32", or the value of the
// RELAYOUT_THREADS_PER_WARP environment variable.
func WithThreadsPerWarp(n int) Option {
	if n <= 0 {
		panic(fmt.Sprintf("relayout: invalid threads per warp: %d", n))
	} else {
		return func(o *opts.Options) { o.ThreadsPerWarp = n }
	}
}

// WithMaxIterations limits the number of sweeps of the greedy rewrite
// stages before they give up on reaching a fixed point.
//
// The default value of this option is "10".
func WithMaxIterations(n int) Option {
	if n <= 0 {
		panic(fmt.Sprintf("relayout: invalid iteration limit: %d", n))
	} else {
		return func(o *opts.Options) { o.MaxIterations = n }
	}
}

// WithVerify enables structural verification of the module before the pass
// and after every stage of it.
func WithVerify(v bool) Option {
	return func(o *opts.Options) { o.Verify = v }
}

// WithParallel makes the layout propagation stage process the functions of
// the module concurrently.
func WithParallel(v bool) Option {
	return func(o *opts.Options) { o.Parallel = v }
}

// WithLogger sets the logger for pass tracing. Layout maps and the module
// after every stage are logged at debug level.
func WithLogger(log *zap.Logger) Option {
	if log == nil {
		panic("relayout: nil logger")
	} else {
		return func(o *opts.Options) { o.Logger = log }
	}
}

// WithOracle replaces the default layout oracle.
func WithOracle(oracle Oracle) Option {
	if oracle == nil {
		panic("relayout: nil oracle")
	} else {
		return func(o *opts.Options) { o.Oracle = oracle }
	}
}

// LoadConfig reads a TOML configuration file and returns an option that
// applies it. Keys absent from the file keep their current values.
func LoadConfig(path string) (Option, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, ConfigError{Path: path, Err: errors.Wrap(err, "read config")}
	}

	/* parse and validate the config */
	cfg, err := opts.ParseConfig(buf)
	if err != nil {
		return nil, ConfigError{Path: path, Err: errors.Wrap(err, "parse config")}
	}

	/* apply everything in the config */
	return cfg.Apply, nil
}
