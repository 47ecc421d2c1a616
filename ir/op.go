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

// Op is an operation of the IR.
type Op struct {
	id       int64
	Kind     OpKind
	Attrs    Attrs
	operands []*Operand
	results  []*Value
	regions  []*Region
	parent   *Region
	erased   bool
}

// ID returns the module-wide unique identifier of the operation, identifiers
// grow in creation order.
func (self *Op) ID() int64 {
	return self.id
}

// Info returns the description of the operation kind.
func (self *Op) Info() OpInfo {
	return self.Kind.Info()
}

// Is checks whether the operation is one of the given kinds.
func (self *Op) Is(kinds ...OpKind) bool {
	for _, k := range kinds {
		if self.Kind == k {
			return true
		}
	}
	return false
}

// Operands returns the values used by the operation.
func (self *Op) Operands() []*Value {
	ret := make([]*Value, len(self.operands))
	for i, u := range self.operands { ret[i] = u.value }
	return ret
}

// Operand returns the i-th operand value.
func (self *Op) Operand(i int) *Value {
	return self.operands[i].value
}

// OpOperand returns the i-th use edge.
func (self *Op) OpOperand(i int) *Operand {
	return self.operands[i]
}

// OpOperands returns a snapshot of all the use edges.
func (self *Op) OpOperands() []*Operand {
	return append([]*Operand(nil), self.operands...)
}

func (self *Op) NumOperands() int {
	return len(self.operands)
}

// SetOperand replaces the i-th operand with v.
func (self *Op) SetOperand(i int, v *Value) {
	self.operands[i].Set(v)
}

// SetOperands replaces the whole operand list.
func (self *Op) SetOperands(vals []*Value) {
	for _, u := range self.operands {
		u.drop()
	}

	/* rebuild the operand list */
	self.operands = self.operands[:0]
	for _, v := range vals {
		self.AddOperand(v)
	}
}

// AddOperand appends v to the operand list.
func (self *Op) AddOperand(v *Value) {
	if v == nil {
		invariant("%s: nil operand", self.Kind)
	}

	/* create the use edge */
	u := &Operand {
		owner : self,
		index : len(self.operands),
		value : v,
	}

	/* register the use */
	v.addUse(u)
	self.operands = append(self.operands, u)
}

// Results returns the values produced by the operation.
func (self *Op) Results() []*Value {
	return self.results
}

// Result returns the i-th result.
func (self *Op) Result(i int) *Value {
	return self.results[i]
}

func (self *Op) NumResults() int {
	return len(self.results)
}

// HasUses checks whether any of the results is used.
func (self *Op) HasUses() bool {
	for _, r := range self.results {
		if len(r.uses) != 0 {
			return true
		}
	}
	return false
}

// Users returns the distinct operations using any of the results.
func (self *Op) Users() []*Op {
	var ret []*Op
	vis := make(map[*Op]struct{})

	/* collect users of every result */
	for _, r := range self.results {
		for _, u := range r.Users() {
			if _, ok := vis[u]; !ok {
				vis[u] = struct{}{}
				ret = append(ret, u)
			}
		}
	}

	/* all done */
	return ret
}

// Regions returns the nested regions.
func (self *Op) Regions() []*Region {
	return self.regions
}

// Region returns the i-th nested region.
func (self *Op) Region(i int) *Region {
	return self.regions[i]
}

func (self *Op) NumRegions() int {
	return len(self.regions)
}

// Parent returns the region that contains the operation.
func (self *Op) Parent() *Region {
	return self.parent
}

// ParentOp returns the operation that owns the containing region, nil at
// the function level.
func (self *Op) ParentOp() *Op {
	if self.parent == nil {
		return nil
	} else {
		return self.parent.parent
	}
}

// Erased checks whether the operation has been removed from the IR.
func (self *Op) Erased() bool {
	return self.erased
}

// Next returns the operation after this one in the same region.
func (self *Op) Next() *Op {
	if self.parent == nil {
		return nil
	} else if i := self.parent.indexOf(self); i + 1 < len(self.parent.ops) {
		return self.parent.ops[i + 1]
	} else {
		return nil
	}
}

// IsBeforeInRegion checks whether the operation is before other in the same region.
func (self *Op) IsBeforeInRegion(other *Op) bool {
	if self.parent != other.parent {
		invariant("IsBeforeInRegion: operations are in different regions")
		panic("unreachable")
	} else {
		return self.parent.indexOf(self) < self.parent.indexOf(other)
	}
}

// IsAncestor checks whether the operation contains other, or is other itself.
func (self *Op) IsAncestor(other *Op) bool {
	for p := other; p != nil; p = p.ParentOp() {
		if p == self {
			return true
		}
	}
	return false
}

// Erase removes the operation from the IR. The results must not be used anymore.
func (self *Op) Erase() {
	for i, r := range self.results {
		if len(r.uses) != 0 {
			invariant("erase: result #%d of %s still has %d use(s)", i, self.Kind, len(r.uses))
		}
	}

	/* detach from the containing region */
	if self.parent != nil {
		self.parent.remove(self)
	}

	/* release all the operands, including the nested ones */
	self.dropAllReferences()
}

// Walk visits the operation and every nested operation in pre-order.
func (self *Op) Walk(fn func(op *Op)) {
	fn(self)
	for _, r := range self.regions {
		r.Walk(fn)
	}
}

func (self *Op) dropAllReferences() {
	for _, u := range self.operands {
		u.drop()
	}

	/* drop nested operations */
	for _, r := range self.regions {
		for _, p := range r.ops {
			p.parent = nil
			p.dropAllReferences()
		}
		r.ops = nil
	}

	/* mark as erased */
	self.erased = true
}

func (self *Op) String() string {
	return newPrinter().op(self)
}
