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

package pass

import (
	`github.com/cloudwego/relayout/ir`
)

// LayoutInfo is the insertion-ordered set of candidate encodings of a value.
type LayoutInfo struct {
	Encodings []ir.Encoding
}

func newLayoutInfo(enc ir.Encoding) *LayoutInfo {
	return &LayoutInfo{Encodings: []ir.Encoding{enc}}
}

// Add inserts enc into the set, and reports whether the set grew.
func (self *LayoutInfo) Add(enc ir.Encoding) bool {
	for _, e := range self.Encodings {
		if e == enc {
			return false
		}
	}
	self.Encodings = append(self.Encodings, enc)
	return true
}

// Encoding returns the resolved encoding.
func (self *LayoutInfo) Encoding() ir.Encoding {
	if len(self.Encodings) != 1 {
		fatal(nil, "layout resolved to %d encodings", len(self.Encodings))
	}
	return self.Encodings[0]
}

// _LayoutMap maps values to their candidate encodings, remembering the order
// in which the values were first seen.
type _LayoutMap struct {
	keys []*ir.Value
	vals map[*ir.Value]*LayoutInfo
}

func newLayoutMap() *_LayoutMap {
	return &_LayoutMap{vals: make(map[*ir.Value]*LayoutInfo)}
}

func (self *_LayoutMap) Len() int {
	return len(self.keys)
}

func (self *_LayoutMap) Keys() []*ir.Value {
	return self.keys
}

func (self *_LayoutMap) Get(v *ir.Value) (*LayoutInfo, bool) {
	p, ok := self.vals[v]
	return p, ok
}

// Insert adds v with a singleton set, unless v is already present.
func (self *_LayoutMap) Insert(v *ir.Value, enc ir.Encoding) {
	if _, ok := self.vals[v]; !ok {
		self.keys = append(self.keys, v)
		self.vals[v] = newLayoutInfo(enc)
	}
}

// Add adds enc to the candidates of v, and reports whether they grew.
func (self *_LayoutMap) Add(v *ir.Value, enc ir.Encoding) bool {
	if p, ok := self.vals[v]; ok {
		return p.Add(enc)
	} else {
		self.Insert(v, enc)
		return true
	}
}

// _ValueSet is an insertion-ordered set of values.
type _ValueSet struct {
	list []*ir.Value
	set  map[*ir.Value]struct{}
}

func newValueSet() *_ValueSet {
	return &_ValueSet{set: make(map[*ir.Value]struct{})}
}

func (self *_ValueSet) Len() int {
	return len(self.list)
}

func (self *_ValueSet) At(i int) *ir.Value {
	return self.list[i]
}

func (self *_ValueSet) Values() []*ir.Value {
	return self.list
}

func (self *_ValueSet) Contains(v *ir.Value) bool {
	_, ok := self.set[v]
	return ok
}

func (self *_ValueSet) Insert(v *ir.Value) bool {
	if _, ok := self.set[v]; ok {
		return false
	} else {
		self.set[v] = struct{}{}
		self.list = append(self.list, v)
		return true
	}
}

func (self *_ValueSet) Remove(v *ir.Value) {
	if _, ok := self.set[v]; ok {
		delete(self.set, v)
		for i, p := range self.list {
			if p == v {
				self.list = append(self.list[:i], self.list[i + 1:]...)
				break
			}
		}
	}
}

// _OpSet is an insertion-ordered set of operations.
type _OpSet struct {
	list []*ir.Op
	set  map[*ir.Op]struct{}
}

func newOpSet() *_OpSet {
	return &_OpSet{set: make(map[*ir.Op]struct{})}
}

func (self *_OpSet) Ops() []*ir.Op {
	return self.list
}

func (self *_OpSet) Contains(op *ir.Op) bool {
	_, ok := self.set[op]
	return ok
}

func (self *_OpSet) Insert(op *ir.Op) bool {
	if _, ok := self.set[op]; ok {
		return false
	} else {
		self.set[op] = struct{}{}
		self.list = append(self.list, op)
		return true
	}
}
