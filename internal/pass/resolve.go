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

	`github.com/davecgh/go-spew/spew`
	`go.uber.org/zap`

	`github.com/cloudwego/relayout/ir`
	`github.com/cloudwego/relayout/layout`
)

// resolveConflicts picks a single encoding for every value with more than
// one candidate. Memory operations prefer blocked layouts, everything else
// prefers matrix layouts, otherwise the first candidate wins.
func (self *_LayoutPropagation) resolveConflicts() int {
	n := 0
	for _, v := range self.layouts.Keys() {
		info, _ := self.layouts.Get(v)
		if len(info.Encodings) <= 1 {
			continue
		}

		/* check for memory operations */
		op := v.DefiningOp()
		mem := op != nil && op.Is(ir.OpLoad, ir.OpStore, ir.OpAtomicRMW, ir.OpAtomicCAS)
		enc := info.Encodings[0]

		/* find the preferred one */
		for _, e := range info.Encodings {
			if (mem && layout.IsBlocked(e)) || (!mem && layout.IsMma(e)) {
				enc = e
				break
			}
		}

		/* keep only the chosen one */
		n++
		info.Encodings = []ir.Encoding{enc}
	}
	return n
}

func describeValue(v *ir.Value) string {
	if op := v.DefiningOp(); op != nil {
		return fmt.Sprintf("%s.%d#%d", op.Kind, op.ID(), v.Index())
	} else if pp := v.Owner().ParentOp(); pp != nil {
		return fmt.Sprintf("%s.%d^arg%d", pp.Kind, pp.ID(), v.Index())
	} else {
		return fmt.Sprintf("^arg%d", v.Index())
	}
}

// dump logs the candidate encodings of every annotated value.
func (self *_LayoutPropagation) dump(stage string) {
	if ce := self.log.Check(zap.DebugLevel, "candidate layouts after "+stage); ce != nil {
		m := make(map[string][]string, self.layouts.Len())
		for _, v := range self.layouts.Keys() {
			info, _ := self.layouts.Get(v)
			encs := make([]string, 0, len(info.Encodings))

			/* render the encodings */
			for _, e := range info.Encodings {
				encs = append(encs, e.String())
			}

			/* add to the dump */
			m[describeValue(v)] = encs
		}

		/* keep the dump stable */
		cfg := spew.ConfigState {
			Indent                : "    ",
			SortKeys              : true,
			DisablePointerMethods : true,
		}

		/* write the log */
		ce.Write(zap.String("layouts", cfg.Sdump(m)))
	}
}
