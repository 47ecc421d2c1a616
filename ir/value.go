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

// Value is an SSA value, either the result of an operation or an argument of a region.
type Value struct {
	typ   Type
	def   *Op
	owner *Region
	index int
	uses  []*Operand
}

// Type returns the type of the value.
func (self *Value) Type() Type {
	return self.typ
}

// SetType changes the type of the value in-place.
func (self *Value) SetType(t Type) {
	self.typ = t
}

// DefiningOp returns the operation that produces the value, nil for region arguments.
func (self *Value) DefiningOp() *Op {
	return self.def
}

// Owner returns the region that owns the value if it is a region argument.
func (self *Value) Owner() *Region {
	return self.owner
}

// Index is the result number or the argument number of the value.
func (self *Value) Index() int {
	return self.index
}

// IsArgument checks whether the value is a region argument.
func (self *Value) IsArgument() bool {
	return self.def == nil
}

// ParentRegion returns the region the value is defined in.
func (self *Value) ParentRegion() *Region {
	if self.def == nil {
		return self.owner
	} else {
		return self.def.parent
	}
}

// Uses returns a snapshot of all the uses of the value.
func (self *Value) Uses() []*Operand {
	return append([]*Operand(nil), self.uses...)
}

// NumUses returns the number of uses of the value.
func (self *Value) NumUses() int {
	return len(self.uses)
}

// HasOneUse checks whether the value is used exactly once.
func (self *Value) HasOneUse() bool {
	return len(self.uses) == 1
}

// Unused checks whether the value has no uses at all.
func (self *Value) Unused() bool {
	return len(self.uses) == 0
}

// Users returns the distinct operations that use the value, in use order.
func (self *Value) Users() []*Op {
	ret := make([]*Op, 0, len(self.uses))
	vis := make(map[*Op]struct{}, len(self.uses))

	/* deduplicate the users */
	for _, u := range self.uses {
		if _, ok := vis[u.owner]; !ok {
			vis[u.owner] = struct{}{}
			ret = append(ret, u.owner)
		}
	}

	/* all done */
	return ret
}

// ReplaceAllUsesWith redirects every use of the value to v.
func (self *Value) ReplaceAllUsesWith(v *Value) {
	if v != self {
		for _, u := range self.Uses() {
			u.Set(v)
		}
	}
}

// ReplaceUsesIf redirects the uses of the value that satisfy pred to v.
func (self *Value) ReplaceUsesIf(v *Value, pred func(u *Operand) bool) {
	if v != self {
		for _, u := range self.Uses() {
			if pred(u) {
				u.Set(v)
			}
		}
	}
}

func (self *Value) addUse(u *Operand) {
	self.uses = append(self.uses, u)
}

func (self *Value) removeUse(u *Operand) {
	for i, p := range self.uses {
		if p == u {
			self.uses = append(self.uses[:i], self.uses[i + 1:]...)
			return
		}
	}
	invariant("removeUse: operand is not a use of this value")
}

// Operand is a use of a value by an operation.
type Operand struct {
	owner *Op
	index int
	value *Value
}

// Get returns the used value.
func (self *Operand) Get() *Value {
	return self.value
}

// Owner returns the operation that holds this operand.
func (self *Operand) Owner() *Op {
	return self.owner
}

// Index returns the operand number within the owner.
func (self *Operand) Index() int {
	return self.index
}

// Set makes the operand use v instead.
func (self *Operand) Set(v *Value) {
	if self.value != v {
		self.value.removeUse(self)
		self.value = v
		v.addUse(self)
	}
}

func (self *Operand) drop() {
	if self.value != nil {
		self.value.removeUse(self)
		self.value = nil
	}
}
