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

// Package relayout removes redundant tensor layout conversions from a module.
//
// Every function of the module is processed independently: layouts are
// propagated forward from anchor operations (loads, stores, dots and the
// conversions feeding them), conflicts are resolved to a single layout per
// value, and the function is rewritten so that conversions only remain where
// they are required. The remaining conversions are then rematerialized,
// hoisted or decomposed when that makes them cheaper.
package relayout

import (
	`go.uber.org/zap`

	`github.com/cloudwego/relayout/internal/opts`
	`github.com/cloudwego/relayout/internal/pass`
	`github.com/cloudwego/relayout/ir`
)

// RemoveLayoutConversions transforms the module in-place.
//
// If the pass fails with an InternalError, the module may be partially
// transformed and should be discarded.
func RemoveLayoutConversions(m *ir.Module, options ...Option) error {
	o := opts.GetDefaultOptions()
	for _, fn := range options {
		fn(&o)
	}

	/* check the input module if needed */
	if o.Verify {
		if err := ir.Verify(m); err != nil {
			return VerifyError{Err: err}
		}
	}

	/* create the pass context */
	ctx := o.Context(m)
	ctx.Logger.Debug("remove layout conversions", zap.Int("funcs", len(m.Funcs)))

	/* check the module after every stage */
	if o.Verify {
		ctx.Check = func(stage string) error {
			if err := ir.Verify(m); err != nil {
				return VerifyError{Stage: stage, Err: err}
			} else {
				return nil
			}
		}
	}

	/* run the whole pipeline */
	return pass.Run(ctx)
}

// Optimize is like RemoveLayoutConversions but panics on error.
func Optimize(m *ir.Module, options ...Option) {
	if err := RemoveLayoutConversions(m, options...); err != nil {
		panic("relayout: " + err.Error())
	}
}
