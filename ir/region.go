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

// Region is a single-block region: an ordered list of arguments and an ordered
// list of operations, usually ending with a terminator.
type Region struct {
	args   []*Value
	ops    []*Op
	parent *Op
	fn     *Func
}

// Args returns the region arguments, the slice must not be modified.
func (self *Region) Args() []*Value {
	return self.args
}

// Arg returns the i-th region argument.
func (self *Region) Arg(i int) *Value {
	return self.args[i]
}

func (self *Region) NumArgs() int {
	return len(self.args)
}

// AddArg appends a new argument of type t.
func (self *Region) AddArg(t Type) *Value {
	v := &Value {
		typ   : t,
		owner : self,
		index : len(self.args),
	}
	self.args = append(self.args, v)
	return v
}

// EraseArg removes the i-th argument, which must not be used anymore.
func (self *Region) EraseArg(i int) {
	if !self.args[i].Unused() {
		invariant("erase: region argument #%d still has uses", i)
	}

	/* remove the argument and renumber the following ones */
	self.args = append(self.args[:i], self.args[i + 1:]...)
	for j := i; j < len(self.args); j++ {
		self.args[j].index = j
	}
}

// Ops returns the operations in program order, the slice must not be modified.
func (self *Region) Ops() []*Op {
	return self.ops
}

// Empty checks whether the region has no operations.
func (self *Region) Empty() bool {
	return len(self.ops) == 0
}

// Front returns the first operation, or nil if the region is empty.
func (self *Region) Front() *Op {
	if len(self.ops) == 0 {
		return nil
	} else {
		return self.ops[0]
	}
}

// Terminator returns the terminator of the region, or nil if there is none.
func (self *Region) Terminator() *Op {
	if n := len(self.ops); n == 0 || !self.ops[n - 1].Kind.IsTerminator() {
		return nil
	} else {
		return self.ops[n - 1]
	}
}

// ParentOp returns the operation owning the region, nil for function bodies.
func (self *Region) ParentOp() *Op {
	return self.parent
}

// Func returns the function that contains the region.
func (self *Region) Func() *Func {
	r := self
	for r.parent != nil {
		if r = r.parent.parent; r == nil {
			return nil
		}
	}
	return r.fn
}

// IsAncestorOf checks whether other is nested within the region, or is the region itself.
func (self *Region) IsAncestorOf(other *Region) bool {
	for r := other; r != nil; {
		if r == self {
			return true
		} else if r.parent == nil {
			return false
		} else {
			r = r.parent.parent
		}
	}
	return false
}

// SpliceFront moves every operation of src to the beginning of the region.
func (self *Region) SpliceFront(src *Region) {
	ops := src.ops
	src.ops = nil

	/* re-parent the moved operations */
	for _, op := range ops {
		op.parent = self
	}

	/* prepend to the current operations */
	self.ops = append(ops, self.ops...)
}

// Walk visits every operation in the region in pre-order. Operations added
// to the region while walking are not visited.
func (self *Region) Walk(fn func(op *Op)) {
	for _, op := range append([]*Op(nil), self.ops...) {
		if !op.erased {
			op.Walk(fn)
		}
	}
}

func (self *Region) indexOf(op *Op) int {
	for i, p := range self.ops {
		if p == op {
			return i
		}
	}
	invariant("%s is not in this region", op.Kind)
	return -1
}

func (self *Region) insert(i int, op *Op) {
	op.parent = self
	self.ops = append(self.ops, nil)
	copy(self.ops[i + 1:], self.ops[i:])
	self.ops[i] = op
}

func (self *Region) remove(op *Op) {
	i := self.indexOf(op)
	self.ops = append(self.ops[:i], self.ops[i + 1:]...)
	op.parent = nil
}
