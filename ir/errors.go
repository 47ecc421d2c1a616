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
)

// InvariantError is raised (as a panic) when a mutation would break the
// structure of the IR, such as erasing an operation that is still used or
// looking up a value that was never mapped.
type InvariantError struct {
	Reason string
}

func (self InvariantError) Error() string {
	return "ir: " + self.Reason
}

func invariant(format string, args ...interface{}) {
	panic(InvariantError{Reason: fmt.Sprintf(format, args...)})
}
