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
	`strings`
)

type _Printer struct {
	buf   strings.Builder
	next  int
	names map[*Value]string
}

func newPrinter() *_Printer {
	return &_Printer{names: make(map[*Value]string)}
}

func (self *_Printer) name(v *Value) string {
	if s, ok := self.names[v]; ok {
		return s
	} else {
		return "%<unknown>"
	}
}

func (self *_Printer) define(v *Value) string {
	s := fmt.Sprintf("%%%d", self.next)
	self.next++
	self.names[v] = s
	return s
}

func (self *_Printer) attrs(op *Op) string {
	switch op.Kind {
		case OpConstant   : return fmt.Sprintf(" {value = %g}", op.Attrs.Value)
		case OpMakeRange  : return fmt.Sprintf(" {start = %d, end = %d}", op.Attrs.Start, op.Attrs.End)
		case OpExpandDims : return fmt.Sprintf(" {axis = %d}", op.Attrs.Axis)
		case OpReshape    : return fmt.Sprintf(" {allow_reorder = %t}", op.Attrs.AllowReorder)
		case OpCmpF       : return fmt.Sprintf(" {predicate = %q}", op.Attrs.Predicate)
		case OpReduce     : return fmt.Sprintf(" {axis = %d, combine = %q}", op.Attrs.Axis, op.Attrs.Combine)
		case OpAtomicRMW  : return fmt.Sprintf(" {combine = %q}", op.Attrs.Combine)
		default           : return ""
	}
}

func (self *_Printer) op(op *Op) string {
	self.buf.Reset()
	self.emitOp(op, 0)
	return strings.TrimRight(self.buf.String(), "\n")
}

func (self *_Printer) emitOp(op *Op, depth int) {
	var defs []string
	var uses []string
	var tins []string
	var touts []string

	/* operand names and types */
	for _, u := range op.operands {
		uses = append(uses, self.name(u.value))
		tins = append(tins, u.value.typ.String())
	}

	/* define the results */
	for _, r := range op.results {
		defs = append(defs, self.define(r))
		touts = append(touts, r.typ.String())
	}

	/* indentation */
	ind := strings.Repeat("  ", depth)
	self.buf.WriteString(ind)

	/* result names */
	if len(defs) != 0 {
		self.buf.WriteString(strings.Join(defs, ", "))
		self.buf.WriteString(" = ")
	}

	/* operation name, operands and types */
	self.buf.WriteString(op.Kind.String())
	if len(uses) != 0 {
		self.buf.WriteString(" ")
		self.buf.WriteString(strings.Join(uses, ", "))
	}
	fmt.Fprintf(&self.buf, "%s : (%s) -> (%s)", self.attrs(op), strings.Join(tins, ", "), strings.Join(touts, ", "))

	/* no nested regions */
	if len(op.regions) == 0 {
		self.buf.WriteString("\n")
		return
	}

	/* dump every region */
	for i, r := range op.regions {
		if i == 0 {
			self.buf.WriteString(" {\n")
		} else {
			self.buf.WriteString(ind + "} {\n")
		}
		self.emitRegion(r, depth + 1)
	}

	/* close the last region */
	self.buf.WriteString(ind + "}\n")
}

func (self *_Printer) emitRegion(r *Region, depth int) {
	if len(r.args) != 0 {
		args := make([]string, 0, len(r.args))
		for _, a := range r.args {
			args = append(args, fmt.Sprintf("%s: %s", self.define(a), a.typ))
		}
		fmt.Fprintf(&self.buf, "%s^bb(%s):\n", strings.Repeat("  ", depth - 1), strings.Join(args, ", "))
	}

	/* dump all the operations */
	for _, op := range r.ops {
		self.emitOp(op, depth)
	}
}

func (self *_Printer) emitFunc(fn *Func) {
	args := make([]string, 0, len(fn.Body.args))
	for i, a := range fn.Body.args {
		self.names[a] = fmt.Sprintf("%%arg%d", i)
		args = append(args, fmt.Sprintf("%%arg%d: %s", i, a.typ))
	}

	/* function header */
	fmt.Fprintf(&self.buf, "func @%s(%s) {\n", fn.Name, strings.Join(args, ", "))
	for _, op := range fn.Body.ops {
		self.emitOp(op, 1)
	}

	/* function footer */
	self.buf.WriteString("}\n")
}

// String prints the function, values are numbered in program order.
func (self *Func) String() string {
	p := newPrinter()
	p.emitFunc(self)
	return p.buf.String()
}

// String prints every function of the module.
func (self *Module) String() string {
	p := newPrinter()
	for i, fn := range self.Funcs {
		if i != 0 {
			p.buf.WriteString("\n")
		}
		p.next = 0
		p.emitFunc(fn)
	}
	return p.buf.String()
}
