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
	`go.uber.org/atomic`
)

// Module is a collection of functions.
type Module struct {
	Funcs []*Func
	ids   atomic.Int64
}

// NewModule creates an empty module.
func NewModule() *Module {
	return new(Module)
}

// NewFunc appends a new function with the given argument types to the module.
func (self *Module) NewFunc(name string, args ...Type) *Func {
	fn := &Func {
		Name   : name,
		Body   : new(Region),
		module : self,
	}

	/* create the arguments */
	for _, t := range args {
		fn.Body.AddArg(t)
	}

	/* add to module */
	fn.Body.fn = fn
	self.Funcs = append(self.Funcs, fn)
	return fn
}

// Lookup finds a function by name.
func (self *Module) Lookup(name string) *Func {
	for _, fn := range self.Funcs {
		if fn.Name == name {
			return fn
		}
	}
	return nil
}

// Walk visits every operation of every function in pre-order.
func (self *Module) Walk(fn func(op *Op)) {
	for _, f := range self.Funcs {
		f.Body.Walk(fn)
	}
}

// Collect returns every operation of the given kind, in pre-order.
func (self *Module) Collect(kind OpKind) []*Op {
	var ret []*Op
	self.Walk(func(op *Op) {
		if op.Kind == kind {
			ret = append(ret, op)
		}
	})
	return ret
}

func (self *Module) nextID() int64 {
	return self.ids.Inc()
}

// Func is a function, its arguments are the arguments of the body region.
type Func struct {
	Name   string
	Body   *Region
	module *Module
}

// Args returns the function arguments.
func (self *Func) Args() []*Value {
	return self.Body.args
}

// Module returns the module containing the function.
func (self *Func) Module() *Module {
	return self.module
}

// Walk visits every operation of the function in pre-order.
func (self *Func) Walk(fn func(op *Op)) {
	self.Body.Walk(fn)
}
