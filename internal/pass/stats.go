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
	`go.uber.org/atomic`
)

var (
	ConvertsInserted       atomic.Int64
	ConvertsFolded         atomic.Int64
	ConvertsRematerialized atomic.Int64
	ConvertsHoisted        atomic.Int64
	DotsDecomposed         atomic.Int64
	LoopArgsEliminated     atomic.Int64
	DeadOpsEliminated      atomic.Int64
)
