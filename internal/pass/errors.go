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
	`fmt`

	`github.com/cloudwego/relayout/ir`
)

// InternalError is raised (as a panic) when the pass reaches a state it
// cannot make progress from, such as an operation it does not know how to
// rewrite with a new layout.
type InternalError struct {
	Op     string
	Reason string
}

func (self InternalError) Error() string {
	if self.Op == "" {
		return "internal error: " + self.Reason
	} else {
		return fmt.Sprintf("internal error at %s: %s", self.Op, self.Reason)
	}
}

func fatal(op *ir.Op, format string, args ...interface{}) {
	if op == nil {
		panic(InternalError{Reason: fmt.Sprintf(format, args...)})
	} else {
		panic(InternalError{Op: op.String(), Reason: fmt.Sprintf(format, args...)})
	}
}

// Recover converts an InternalError panic into an error, as well as the
// structural violations raised by the IR itself. Any other panic is
// propagated.
func Recover(err *error) {
	if v := recover(); v != nil {
		switch e := v.(type) {
			case InternalError     : *err = e
			case ir.InvariantError : *err = InternalError{Reason: e.Reason}
			default                : panic(v)
		}
	}
}
