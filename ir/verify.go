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
	`fmt`

	`github.com/pkg/errors`
	`go.uber.org/multierr`
)

type _Verifier struct {
	fn  *Func
	err error
}

func (self *_Verifier) fail(op *Op, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if op == nil {
		self.err = multierr.Append(self.err, errors.Errorf("@%s: %s", self.fn.Name, msg))
	} else {
		self.err = multierr.Append(self.err, errors.Errorf("@%s: %s: %s", self.fn.Name, op.Kind, msg))
	}
}

func (self *_Verifier) region(r *Region, scope map[*Value]struct{}, term bool) {
	vis := make(map[*Value]struct{}, len(scope) + len(r.args) + len(r.ops))
	for v := range scope { vis[v] = struct{}{} }

	/* region arguments are visible to everything in the region */
	for i, a := range r.args {
		if a.owner != r || a.index != i {
			self.fail(r.parent, "region argument #%d is not owned by its region", i)
		}
		vis[a] = struct{}{}
	}

	/* check every operation */
	for i, op := range r.ops {
		if op.erased {
			self.fail(op, "erased operation is still in a region")
			continue
		}

		/* the operation must be linked to this region */
		if op.parent != r {
			self.fail(op, "operation is not linked to its region")
		}

		/* terminators must be the last operation of a region */
		if op.Kind.IsTerminator() && i != len(r.ops) - 1 {
			self.fail(op, "terminator is not the last operation of the region")
		}

		/* every operand must be defined and visible here */
		for j, u := range op.operands {
			if u.owner != op || u.index != j {
				self.fail(op, "operand #%d is corrupted", j)
			} else if u.value == nil {
				self.fail(op, "operand #%d is null", j)
			} else if u.value.def != nil && u.value.def.erased {
				self.fail(op, "operand #%d refers to a result of an erased %s", j, u.value.def.Kind)
			} else if _, ok := vis[u.value]; !ok {
				self.fail(op, "operand #%d does not dominate its use", j)
			} else if !self.hasUse(u) {
				self.fail(op, "operand #%d is missing from the use list of its value", j)
			}
		}

		/* check the operation itself, then the nested regions */
		self.op(op)
		for _, sub := range op.regions {
			self.region(sub, vis, true)
		}

		/* results are visible to the following operations */
		for _, v := range op.results {
			vis[v] = struct{}{}
		}
	}

	/* nested regions must end with a terminator */
	if term && r.Terminator() == nil {
		self.fail(r.parent, "region is not terminated")
	}
}

func (self *_Verifier) hasUse(u *Operand) bool {
	for _, p := range u.value.uses {
		if p == u {
			return true
		}
	}
	return false
}

func (self *_Verifier) types(op *Op, what string, a []Type, b []Type) {
	if len(a) != len(b) {
		self.fail(op, "%s: count mismatch, %d != %d", what, len(a), len(b))
		return
	}

	/* check each type pair */
	for i := range a {
		if !a[i].Equal(b[i]) {
			self.fail(op, "%s: type mismatch at #%d, %s != %s", what, i, a[i], b[i])
		}
	}
}

func valueTypes(vals []*Value) []Type {
	ret := make([]Type, len(vals))
	for i, v := range vals { ret[i] = v.typ }
	return ret
}

func resultTypes(op *Op) []Type {
	return valueTypes(op.results)
}

func terminatorOperands(r *Region, kind OpKind) ([]*Value, bool) {
	if t := r.Terminator(); t == nil || t.Kind != kind {
		return nil, false
	} else {
		return t.Operands(), true
	}
}

func (self *_Verifier) op(op *Op) {
	switch op.Kind {
		case OpFor       : self.forOp(op)
		case OpWhile     : self.whileOp(op)
		case OpIf        : self.ifOp(op)
		case OpYield     : self.parentIs(op, OpFor, OpIf, OpWhile)
		case OpCondition : self.parentIs(op, OpWhile)
		case OpReturn    : self.parentIs(op)
		default          : self.encodings(op)
	}
}

func (self *_Verifier) parentIs(op *Op, kinds ...OpKind) {
	if p := op.ParentOp(); p == nil && len(kinds) != 0 {
		self.fail(op, "terminator outside of a structured control flow operation")
	} else if p != nil && !p.Is(kinds...) {
		self.fail(op, "unexpected parent %s", p.Kind)
	}
}

func (self *_Verifier) forOp(op *Op) {
	if len(op.operands) < 3 || len(op.regions) != 1 {
		self.fail(op, "malformed loop")
		return
	}

	/* loop signature */
	body := op.regions[0]
	inits := op.Operands()[3:]

	/* induction variable + loop-carried values */
	if len(body.args) != len(inits) + 1 {
		self.fail(op, "loop has %d initial values but %d loop-carried arguments", len(inits), len(body.args) - 1)
		return
	}

	/* types must be coherent */
	self.types(op, "initial values vs results", valueTypes(inits), resultTypes(op))
	self.types(op, "loop-carried arguments vs results", valueTypes(body.args[1:]), resultTypes(op))

	/* check the yield */
	if ys, ok := terminatorOperands(body, OpYield); !ok {
		self.fail(op, "loop body must end with a yield")
	} else {
		self.types(op, "yielded values vs results", valueTypes(ys), resultTypes(op))
	}
}

func (self *_Verifier) whileOp(op *Op) {
	if len(op.regions) != 2 {
		self.fail(op, "malformed while loop")
		return
	}

	/* the "before" region */
	before, after := op.regions[0], op.regions[1]
	self.types(op, "operands vs before arguments", valueTypes(op.Operands()), valueTypes(before.args))

	/* the condition forwards values to the "after" region */
	if cs, ok := terminatorOperands(before, OpCondition); !ok || len(cs) == 0 {
		self.fail(op, "before region must end with a condition")
	} else {
		self.types(op, "condition values vs results", valueTypes(cs[1:]), resultTypes(op))
	}

	/* the "after" region */
	self.types(op, "after arguments vs results", valueTypes(after.args), resultTypes(op))
	if ys, ok := terminatorOperands(after, OpYield); !ok {
		self.fail(op, "after region must end with a yield")
	} else {
		self.types(op, "yielded values vs before arguments", valueTypes(ys), valueTypes(before.args))
	}
}

func (self *_Verifier) ifOp(op *Op) {
	if len(op.regions) != 2 || len(op.operands) != 1 {
		self.fail(op, "malformed conditional")
		return
	}

	/* both branches must yield the results */
	for i, r := range op.regions {
		if ys, ok := terminatorOperands(r, OpYield); !ok {
			self.fail(op, "branch #%d must end with a yield", i)
		} else {
			self.types(op, fmt.Sprintf("branch #%d yielded values vs results", i), valueTypes(ys), resultTypes(op))
		}
	}
}

func (self *_Verifier) encodings(op *Op) {
	var enc Encoding
	var set bool

	/* only for operations that preserve the encoding */
	if !op.Kind.Has(TraitElementwise) && !op.Kind.Has(TraitSameOperandsAndResultEncoding) {
		if op.Kind == OpConvertLayout {
			self.convert(op)
		}
		return
	}

	/* every tensor must share one encoding */
	for _, v := range append(op.Operands(), op.results...) {
		if tt, ok := v.typ.(*TensorType); ok {
			if !set {
				enc, set = tt.Encoding, true
			} else if tt.Encoding != enc {
				self.fail(op, "encoding mismatch: %v != %v", tt.Encoding, enc)
				return
			}
		}
	}
}

func (self *_Verifier) convert(op *Op) {
	src, ok1 := op.Operand(0).typ.(*TensorType)
	dst, ok2 := op.results[0].typ.(*TensorType)

	/* conversions only change the encoding */
	if !ok1 || !ok2 {
		self.fail(op, "conversion between non-tensor types")
	} else if !src.WithEncoding(dst.Encoding).Equal(dst) {
		self.fail(op, "conversion changes more than the encoding: %s -> %s", src, dst)
	}
}

// VerifyFunc checks the structural invariants of a function.
func VerifyFunc(fn *Func) error {
	v := &_Verifier{fn: fn}
	v.region(fn.Body, nil, false)

	/* functions must end with a return */
	if t := fn.Body.Terminator(); t == nil || t.Kind != OpReturn {
		v.fail(nil, "function body must end with a return")
	}

	/* all done */
	return v.err
}

// Verify checks the structural invariants of every function of the module:
// dominance of definitions over uses, absence of references to erased
// operations, terminator placement, the signatures of structured control flow
// and the encodings of elementwise operations. Every violation is reported.
func Verify(m *Module) error {
	var err error
	for _, fn := range m.Funcs {
		err = multierr.Append(err, VerifyFunc(fn))
	}
	return err
}
