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

// Mapping maps values to their replacements.
type Mapping struct {
	m map[*Value]*Value
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{m: make(map[*Value]*Value)}
}

// Map maps from to to.
func (self *Mapping) Map(from *Value, to *Value) {
	self.m[from] = to
}

// Contains checks whether v is mapped.
func (self *Mapping) Contains(v *Value) bool {
	_, ok := self.m[v]
	return ok
}

// Lookup returns the value v maps to, v must be mapped.
func (self *Mapping) Lookup(v *Value) *Value {
	r, ok := self.m[v]
	if !ok {
		invariant("mapping: value of type %s is not mapped", v.typ)
	}
	return r
}

// LookupOrDefault returns the value v maps to, or v itself if it is not mapped.
func (self *Mapping) LookupOrDefault(v *Value) *Value {
	if r, ok := self.m[v]; ok {
		return r
	} else {
		return v
	}
}
