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

package relayout

import (
	`fmt`

	`github.com/cloudwego/relayout/internal/pass`
)

// InternalError is returned when the pass reaches a state it cannot make
// progress from, such as an operation it does not know how to rewrite with
// a new layout. The module may be partially transformed when this happens.
type InternalError = pass.InternalError

// VerifyError occures when the module is malformed, either before the pass
// runs (Stage is empty) or after one of its stages.
type VerifyError struct {
	Stage string
	Err   error
}

func (self VerifyError) Error() string {
	if self.Stage == "" {
		return fmt.Sprintf("invalid input module: %v", self.Err)
	} else {
		return fmt.Sprintf("invalid module after %s: %v", self.Stage, self.Err)
	}
}

func (self VerifyError) Unwrap() error {
	return self.Err
}

// ConfigError occures when a configuration file cannot be loaded.
type ConfigError struct {
	Path string
	Err  error
}

func (self ConfigError) Error() string {
	return fmt.Sprintf("invalid config %q: %v", self.Path, self.Err)
}

func (self ConfigError) Unwrap() error {
	return self.Err
}
