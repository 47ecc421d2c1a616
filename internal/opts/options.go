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

package opts

import (
	`go.uber.org/zap`

	`github.com/cloudwego/relayout/internal/pass`
	`github.com/cloudwego/relayout/ir`
	`github.com/cloudwego/relayout/layout`
)

type Options struct {
	NumWarps       int
	ThreadsPerWarp int
	MaxIterations  int
	Verify         bool
	Parallel       bool
	Logger         *zap.Logger
	Oracle         pass.Oracle
}

// Target returns the layout target described by the options.
func (self *Options) Target() layout.Target {
	return layout.Target {
		NumWarps       : self.NumWarps,
		ThreadsPerWarp : self.ThreadsPerWarp,
	}
}

// Context creates the pass context for transforming m.
func (self *Options) Context(m *ir.Module) *pass.Context {
	ctx := pass.NewContext(m)
	ctx.Parallel = self.Parallel
	ctx.MaxIterations = self.MaxIterations

	/* use the target unless an oracle is given explicitly */
	if self.Oracle != nil {
		ctx.Oracle = self.Oracle
	} else {
		ctx.Oracle = self.Target()
	}

	/* logging is disabled by default */
	if self.Logger != nil {
		ctx.Logger = self.Logger
	}
	return ctx
}

func newLogger() *zap.Logger {
	if !Debug {
		return zap.NewNop()
	} else if log, err := zap.NewDevelopment(); err != nil {
		panic("relayout: cannot create the debug logger: " + err.Error())
	} else {
		return log
	}
}

func GetDefaultOptions() Options {
	return Options {
		NumWarps       : NumWarps,
		ThreadsPerWarp : ThreadsPerWarp,
		MaxIterations  : MaxIterations,
		Logger         : newLogger(),
	}
}
