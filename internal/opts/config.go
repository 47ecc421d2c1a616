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

package opts

import (
	`bytes`

	`github.com/pelletier/go-toml/v2`
	`github.com/pkg/errors`
)

// Config is the on-disk configuration, in TOML:
//
//     [target]
//     num_warps = 8
//     threads_per_warp = 32
//
//     [pass]
//     max_iterations = 16
//     verify = true
//     parallel = false
//
// Absent keys keep their current values.
type Config struct {
	Target struct {
		NumWarps       int `toml:"num_warps"`
		ThreadsPerWarp int `toml:"threads_per_warp"`
	} `toml:"target"`

	Pass struct {
		MaxIterations int   `toml:"max_iterations"`
		Verify        *bool `toml:"verify"`
		Parallel      *bool `toml:"parallel"`
	} `toml:"pass"`
}

// ParseConfig decodes and validates a configuration. Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(data))

	/* decode the file */
	if err := dec.DisallowUnknownFields().Decode(&cfg); err != nil {
		return nil, err
	}

	/* validate the values */
	switch {
		case cfg.Target.NumWarps < 0       : return nil, errors.Errorf("invalid num_warps: %d", cfg.Target.NumWarps)
		case cfg.Target.ThreadsPerWarp < 0 : return nil, errors.Errorf("invalid threads_per_warp: %d", cfg.Target.ThreadsPerWarp)
		case cfg.Pass.MaxIterations < 0    : return nil, errors.Errorf("invalid max_iterations: %d", cfg.Pass.MaxIterations)
		default                            : return &cfg, nil
	}
}

// Apply overrides the options with the values present in the configuration.
func (self *Config) Apply(o *Options) {
	if self.Target.NumWarps != 0 {
		o.NumWarps = self.Target.NumWarps
	}
	if self.Target.ThreadsPerWarp != 0 {
		o.ThreadsPerWarp = self.Target.ThreadsPerWarp
	}
	if self.Pass.MaxIterations != 0 {
		o.MaxIterations = self.Pass.MaxIterations
	}
	if self.Pass.Verify != nil {
		o.Verify = *self.Pass.Verify
	}
	if self.Pass.Parallel != nil {
		o.Parallel = *self.Pass.Parallel
	}
}
