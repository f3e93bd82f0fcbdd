/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is reported before any network attempt when no quote source credential is configured.
var ErrMissingAPIKey = errors.New("API key missing: set OPENAI_API_KEY or run `quotecard config set-key <key>`")

// ConfigError reports a missing or invalid configuration value or credential.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("configuration: %v", e.Err)
	}
	return fmt.Sprintf("configuration %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// UpstreamError reports a failed or unparseable quote source call. It is never retried.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("quote source %s: %v", e.Op, e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }

// IOError reports a missing template or an unwritable output path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// Kind classifies err into "config", "upstream" or "io"; unclassified errors yield "".
func Kind(err error) string {
	var ce *ConfigError
	var ue *UpstreamError
	var ie *IOError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return "config"
	case errors.As(err, &ue):
		return "upstream"
	case errors.As(err, &ie):
		return "io"
	default:
		return ""
	}
}
