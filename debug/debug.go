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

package debug

import (
	"github.com/cloudwego/relayout/internal/pass"
)

// A Stats records statistics about the layout conversion removal pass,
// accumulated over every module processed so far.
type Stats struct {
	Converts ConvertStats
	Dots     int
	Loops    LoopStats
}

// A ConvertStats records what happened to layout conversions.
type ConvertStats struct {
	Inserted       int
	Folded         int
	Rematerialized int
	Hoisted        int
}

// A LoopStats records the clean-up of loops and dead operations.
type LoopStats struct {
	ArgsEliminated int
	DeadOps        int
}

// GetStats returns statistics of the pass.
func GetStats() Stats {
	return Stats{
		Converts: ConvertStats{
			Inserted:       int(pass.ConvertsInserted.Load()),
			Folded:         int(pass.ConvertsFolded.Load()),
			Rematerialized: int(pass.ConvertsRematerialized.Load()),
			Hoisted:        int(pass.ConvertsHoisted.Load()),
		},
		Dots: int(pass.DotsDecomposed.Load()),
		Loops: LoopStats{
			ArgsEliminated: int(pass.LoopArgsEliminated.Load()),
			DeadOps:        int(pass.DeadOpsEliminated.Load()),
		},
	}
}
