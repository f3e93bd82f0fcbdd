//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests cover the Fyne-based shell. They are gated behind the "fyne" build tag
// so CI (which is headless) does not need Fyne or a display. To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"strings"
	"testing"
)

func TestRunRequiresService(t *testing.T) {
	err := Run(Env{})
	if err == nil || !strings.Contains(err.Error(), "no card service") {
		t.Fatalf("expected a missing service error, got %v", err)
	}
}
