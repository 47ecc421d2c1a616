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

// Builder creates operations at an insertion point.
type Builder struct {
	m      *Module
	region *Region
	before *Op
}

// NewBuilder creates a builder for the module, the insertion point is unset.
func NewBuilder(m *Module) *Builder {
	return &Builder{m: m}
}

// Module returns the module the builder allocates operations for.
func (self *Builder) Module() *Module {
	return self.m
}

// Region returns the region of the current insertion point.
func (self *Builder) Region() *Region {
	return self.region
}

// SetInsertionPoint makes new operations to be inserted right before op.
func (self *Builder) SetInsertionPoint(op *Op) {
	self.region, self.before = op.parent, op
}

// SetInsertionPointAfter makes new operations to be inserted right after op.
func (self *Builder) SetInsertionPointAfter(op *Op) {
	self.region, self.before = op.parent, op.Next()
}

// SetInsertionPointToStart makes new operations to be inserted at the beginning of r.
func (self *Builder) SetInsertionPointToStart(r *Region) {
	self.region, self.before = r, r.Front()
}

// SetInsertionPointToEnd makes new operations to be appended to r.
func (self *Builder) SetInsertionPointToEnd(r *Region) {
	self.region, self.before = r, nil
}

// SetInsertionPointAfterValue makes new operations to be inserted right after
// the definition of v.
func (self *Builder) SetInsertionPointAfterValue(v *Value) {
	if v.def != nil {
		self.SetInsertionPointAfter(v.def)
	} else {
		self.SetInsertionPointToStart(v.owner)
	}
}

func (self *Builder) insert(op *Op) {
	if self.region == nil {
		invariant("builder: insertion point is not set")
	} else if self.before == nil {
		self.region.insert(len(self.region.ops), op)
	} else {
		self.region.insert(self.region.indexOf(self.before), op)
	}
}

// Create builds a new operation with nregions empty regions at the insertion point.
func (self *Builder) Create(kind OpKind, operands []*Value, results []Type, attrs Attrs, nregions int) *Op {
	op := &Op {
		id    : self.m.nextID(),
		Kind  : kind,
		Attrs : attrs,
	}

	/* add the operands */
	for _, v := range operands {
		op.AddOperand(v)
	}

	/* create the results */
	for i, t := range results {
		op.results = append(op.results, &Value {
			typ   : t,
			def   : op,
			index : i,
		})
	}

	/* create the regions */
	for i := 0; i < nregions; i++ {
		op.regions = append(op.regions, &Region{parent: op})
	}

	/* insert into the region */
	self.insert(op)
	return op
}

// Clone copies op, along with its nested regions, to the insertion point.
// Operands are remapped through mapping, which also receives the mapping of
// the old results (and nested values) to the new ones.
func (self *Builder) Clone(op *Op, mapping *Mapping) *Op {
	if mapping == nil {
		mapping = NewMapping()
	}

	/* remap the operands */
	ops := make([]*Value, 0, len(op.operands))
	for _, u := range op.operands {
		ops = append(ops, mapping.LookupOrDefault(u.value))
	}

	/* result types */
	ret := make([]Type, 0, len(op.results))
	for _, r := range op.results {
		ret = append(ret, r.typ)
	}

	/* create the new operation */
	p := self.Create(op.Kind, ops, ret, op.Attrs, len(op.regions))
	for i, r := range op.results {
		mapping.Map(r, p.results[i])
	}

	/* clone all the nested regions */
	for i, r := range op.regions {
		nr := p.regions[i]
		sub := NewBuilder(self.m)

		/* clone region arguments */
		for _, a := range r.args {
			mapping.Map(a, nr.AddArg(a.typ))
		}

		/* clone the operations */
		sub.SetInsertionPointToEnd(nr)
		for _, q := range r.ops {
			sub.Clone(q, mapping)
		}
	}

	/* all done */
	return p
}

func (self *Builder) one(kind OpKind, operands []*Value, t Type, attrs Attrs) *Value {
	return self.Create(kind, operands, []Type{t}, attrs, 0).results[0]
}

func tensorOf(kind OpKind, v *Value) *TensorType {
	if tt, ok := v.typ.(*TensorType); !ok {
		invariant("%s: expected a tensor operand, got %s", kind, v.typ)
		return nil
	} else {
		return tt
	}
}

// Constant creates a constant of type t. Tensor constants are splats of v.
func (self *Builder) Constant(v float64, t Type) *Value {
	return self.one(OpConstant, nil, t, Attrs{Value: v})
}

// Splat broadcasts the scalar x into a tensor of type t.
func (self *Builder) Splat(x *Value, t *TensorType) *Value {
	return self.one(OpSplat, []*Value{x}, t, Attrs{})
}

// MakeRange creates the 1-D i32 tensor [start, end).
func (self *Builder) MakeRange(start int, end int, enc Encoding) *Value {
	return self.one(OpMakeRange, nil, Tensor([]int{end - start}, I32, enc), Attrs{Start: start, End: end})
}

// AddPtr offsets the tensor of pointers p by off.
func (self *Builder) AddPtr(p *Value, off *Value) *Value {
	return self.one(OpAddPtr, []*Value{p, off}, p.typ, Attrs{})
}

// Binary creates a binary elementwise operation, the result has the type of x.
func (self *Builder) Binary(kind OpKind, x *Value, y *Value) *Value {
	if !kind.Has(TraitElementwise) {
		invariant("%s is not an elementwise operation", kind)
	}
	return self.one(kind, []*Value{x, y}, x.typ, Attrs{})
}

// Unary creates a unary elementwise operation, the result has the type of x.
func (self *Builder) Unary(kind OpKind, x *Value) *Value {
	if !kind.Has(TraitElementwise) {
		invariant("%s is not an elementwise operation", kind)
	}
	return self.one(kind, []*Value{x}, x.typ, Attrs{})
}

// CmpF compares x and y with the predicate pred, producing booleans.
func (self *Builder) CmpF(pred string, x *Value, y *Value) *Value {
	var t Type
	if tt, ok := x.typ.(*TensorType); ok {
		t = tt.WithElem(I1)
	} else {
		t = Scalar(I1)
	}
	return self.one(OpCmpF, []*Value{x, y}, t, Attrs{Predicate: pred})
}

// Select picks elements from x where c is true, and from y otherwise.
func (self *Builder) Select(c *Value, x *Value, y *Value) *Value {
	return self.one(OpSelect, []*Value{c, x, y}, x.typ, Attrs{})
}

// Cast creates an extension or truncation of x to the element type e.
func (self *Builder) Cast(kind OpKind, x *Value, e ElemType) *Value {
	var t Type
	if tt, ok := x.typ.(*TensorType); ok {
		t = tt.WithElem(e)
	} else {
		t = Scalar(e)
	}
	return self.one(kind, []*Value{x}, t, Attrs{})
}

// Broadcast broadcasts x to the type t.
func (self *Builder) Broadcast(x *Value, t *TensorType) *Value {
	return self.one(OpBroadcast, []*Value{x}, t, Attrs{})
}

// ExpandDims inserts a unit dimension at axis, the result has encoding enc.
func (self *Builder) ExpandDims(x *Value, axis int, enc Encoding) *Value {
	tt := tensorOf(OpExpandDims, x)
	shape := make([]int, 0, tt.Rank() + 1)
	shape = append(shape, tt.Shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, tt.Shape[axis:]...)
	return self.one(OpExpandDims, []*Value{x}, Tensor(shape, tt.E, enc), Attrs{Axis: axis})
}

// Reshape changes the shape of x, allowReorder permits any element order in the result.
func (self *Builder) Reshape(x *Value, shape []int, allowReorder bool, enc Encoding) *Value {
	tt := tensorOf(OpReshape, x)
	return self.one(OpReshape, []*Value{x}, Tensor(shape, tt.E, enc), Attrs{AllowReorder: allowReorder})
}

// Trans transposes x into the type t.
func (self *Builder) Trans(x *Value, t *TensorType) *Value {
	return self.one(OpTrans, []*Value{x}, t, Attrs{})
}

// Reduce reduces x along axis with the combining operation combine.
func (self *Builder) Reduce(x *Value, axis int, combine string, t Type) *Value {
	return self.one(OpReduce, []*Value{x}, t, Attrs{Axis: axis, Combine: combine})
}

// Join stacks a and b along a new minor dimension.
func (self *Builder) Join(a *Value, b *Value, t *TensorType) *Value {
	return self.one(OpJoin, []*Value{a, b}, t, Attrs{})
}

// Split splits x along its minor dimension into two halves of type t.
func (self *Builder) Split(x *Value, t *TensorType) (*Value, *Value) {
	op := self.Create(OpSplit, []*Value{x}, []Type{t, t}, Attrs{}, 0)
	return op.results[0], op.results[1]
}

// Load loads elements of type e through the tensor of pointers ptr.
func (self *Builder) Load(ptr *Value, e ElemType) *Value {
	return self.one(OpLoad, []*Value{ptr}, tensorOf(OpLoad, ptr).WithElem(e), Attrs{})
}

// Store stores v through the tensor of pointers ptr.
func (self *Builder) Store(ptr *Value, v *Value) *Op {
	return self.Create(OpStore, []*Value{ptr, v}, nil, Attrs{}, 0)
}

// AtomicRMW atomically combines v into the memory pointed to by ptr, returning the old values.
func (self *Builder) AtomicRMW(combine string, ptr *Value, v *Value) *Value {
	return self.one(OpAtomicRMW, []*Value{ptr, v}, v.typ, Attrs{Combine: combine})
}

// AtomicCAS atomically compares and swaps the memory pointed to by ptr.
func (self *Builder) AtomicCAS(ptr *Value, cmp *Value, v *Value) *Value {
	return self.one(OpAtomicCAS, []*Value{ptr, cmp, v}, v.typ, Attrs{})
}

// Dot computes a * b + c.
func (self *Builder) Dot(a *Value, b *Value, c *Value) *Value {
	return self.one(OpDot, []*Value{a, b, c}, c.typ, Attrs{})
}

// Convert changes the layout encoding of x to enc.
func (self *Builder) Convert(x *Value, enc Encoding) *Value {
	return self.one(OpConvertLayout, []*Value{x}, tensorOf(OpConvertLayout, x).WithEncoding(enc), Attrs{})
}

// ConvertTo converts x to the type t, which must only differ in encoding.
func (self *Builder) ConvertTo(x *Value, t *TensorType) *Value {
	return self.one(OpConvertLayout, []*Value{x}, t, Attrs{})
}

// ExtractSlice extracts a sub-tensor of type t from x.
func (self *Builder) ExtractSlice(x *Value, t *TensorType) *Value {
	return self.one(OpExtractSlice, []*Value{x}, t, Attrs{})
}

// AllocTensor allocates an uninitialized tensor of type t.
func (self *Builder) AllocTensor(t *TensorType) *Value {
	return self.one(OpAllocTensor, nil, t, Attrs{})
}

// InsertSliceAsync asynchronously copies the memory pointed to by ptr into dst.
func (self *Builder) InsertSliceAsync(ptr *Value, dst *Value) *Value {
	return self.one(OpInsertSliceAsync, []*Value{ptr, dst}, dst.typ, Attrs{})
}

// For creates a counted loop carrying inits. The body region receives the
// induction variable followed by one argument per init, the caller is
// responsible for filling it and terminating it with a yield.
func (self *Builder) For(lb *Value, ub *Value, step *Value, inits ...*Value) *Op {
	ops := append([]*Value{lb, ub, step}, inits...)
	ret := make([]Type, 0, len(inits))

	/* loop results have the types of the initial values */
	for _, v := range inits {
		ret = append(ret, v.typ)
	}

	/* create the loop and the body arguments */
	op := self.Create(OpFor, ops, ret, Attrs{}, 1)
	op.regions[0].AddArg(lb.typ)

	/* one argument per loop-carried value */
	for _, v := range inits {
		op.regions[0].AddArg(v.typ)
	}

	/* all done */
	return op
}

// While creates a while loop. The "before" region receives arguments typed
// like inits and must end with a condition, the "after" region receives
// arguments typed like the results and must end with a yield.
func (self *Builder) While(inits []*Value, results []Type) *Op {
	op := self.Create(OpWhile, inits, results, Attrs{}, 2)

	/* arguments of the "before" region */
	for _, v := range inits {
		op.regions[0].AddArg(v.typ)
	}

	/* arguments of the "after" region */
	for _, t := range results {
		op.regions[1].AddArg(t)
	}

	/* all done */
	return op
}

// If creates a conditional with a "then" and an "else" region.
func (self *Builder) If(cond *Value, results []Type) *Op {
	return self.Create(OpIf, []*Value{cond}, results, Attrs{}, 2)
}

// Yield terminates a loop body or a conditional branch.
func (self *Builder) Yield(vals ...*Value) *Op {
	return self.Create(OpYield, vals, nil, Attrs{}, 0)
}

// Condition terminates the "before" region of a while loop.
func (self *Builder) Condition(cond *Value, vals ...*Value) *Op {
	return self.Create(OpCondition, append([]*Value{cond}, vals...), nil, Attrs{}, 0)
}

// Return terminates a function.
func (self *Builder) Return(vals ...*Value) *Op {
	return self.Create(OpReturn, vals, nil, Attrs{}, 0)
}
