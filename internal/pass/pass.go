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

// Package pass implements the layout conversion removal pipeline.
package pass

import (
	`github.com/pkg/errors`
	`go.uber.org/zap`

	`github.com/cloudwego/relayout/ir`
	`github.com/cloudwego/relayout/layout`
)

// Oracle answers the per-operation layout questions the pass cannot decide
// by itself.
type Oracle interface {
	InferDstEncoding(op *ir.Op, enc ir.Encoding) (ir.Encoding, bool)
	InferSrcEncoding(op *ir.Op, enc ir.Encoding) (ir.Encoding, bool)
	IsExpensiveLoadOrStore(op *ir.Op) bool
	CanFoldIntoConversion(op *ir.Op, enc ir.Encoding) bool
	HasSharedEncoding(v *ir.Value) bool
}

const (
	_DefaultMaxIterations = 10
)

// Context carries the module being transformed and everything the passes
// are configured with.
type Context struct {
	Module        *ir.Module
	Oracle        Oracle
	Logger        *zap.Logger
	Parallel      bool
	MaxIterations int
	Check         func(stage string) error
}

// NewContext creates a context with the default target and no logging.
func NewContext(m *ir.Module) *Context {
	return &Context {
		Module        : m,
		Oracle        : layout.DefaultTarget(),
		Logger        : zap.NewNop(),
		MaxIterations : _DefaultMaxIterations,
	}
}

type Pass interface {
	Apply(*Context)
}

type PassDescriptor struct {
	Pass Pass
	Name string
}

var Passes = [...]PassDescriptor {
	{ Name: "Layout Propagation"           , Pass: new(Propagate) },
	{ Name: "Conversion Canonicalization"  , Pass: new(Canonicalize) },
	{ Name: "Backward Rematerialization"   , Pass: new(Remat) },
	{ Name: "Conversion Hoisting"          , Pass: new(Hoist) },
	{ Name: "Dot Conversion Decomposition" , Pass: new(DotConvert) },
	{ Name: "Final Cleanup"                , Pass: new(Cleanup) },
}

// Run applies every pass of the pipeline to the module, in order. Internal
// errors are returned with the name of the failing pass, and Check (if set)
// is called after every pass.
func Run(ctx *Context) error {
	for _, p := range Passes {
		if err := apply(ctx, p.Pass); err != nil {
			return errors.Wrap(err, p.Name)
		}

		/* dump and check the module */
		ctx.dumpModule(p.Name)
		if ctx.Check != nil {
			if err := ctx.Check(p.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func apply(ctx *Context, p Pass) (err error) {
	defer Recover(&err)
	p.Apply(ctx)
	return nil
}

func (self *Context) dumpModule(stage string) {
	if ce := self.Logger.Check(zap.DebugLevel, "module after "+stage); ce != nil {
		ce.Write(zap.Stringer("module", self.Module))
	}
}
