/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"quotecard/internal/cards"
	"quotecard/internal/domain"
	"quotecard/internal/storage"
)

// Env carries what the desktop shell needs from the command line wiring.
type Env struct {
	Service       *cards.Service
	APIKeyMissing bool
	TemplatesDir  string
	DefaultColor  domain.ColorKey
	// SetAPIKey stores a new key and returns a service that uses it. The returned
	// service shares its history store with Service, so neither needs closing on swap.
	SetAPIKey func(key string) (*cards.Service, error)
}

// StatusFor turns an action error into the one-line message shown in the status bar.
func StatusFor(err error) string {
	if err == nil {
		return "Ready"
	}
	if errors.Is(err, context.Canceled) {
		return "Cancelled."
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The quote service did not answer in time."
	}
	switch domain.Kind(err) {
	case "config":
		if errors.Is(err, domain.ErrMissingAPIKey) {
			return "No API key configured. Use Settings > API Key."
		}
		return "Configuration error: " + unwrapMsg(err)
	case "upstream":
		return "Quote service error: " + unwrapMsg(err)
	case "io":
		return "File error: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}

func unwrapMsg(err error) string {
	if u := errors.Unwrap(err); u != nil {
		return u.Error()
	}
	return err.Error()
}

// SavedMessage describes a saved card for the status bar.
func SavedMessage(res cards.Result) string {
	msg := fmt.Sprintf("Saved %s", filepath.Base(res.PNGPath))
	if res.PDFPath != "" {
		msg += " and " + filepath.Base(res.PDFPath)
	}
	return msg
}

// HistoryLine renders one history entry for the history list.
func HistoryLine(e storage.Entry) string {
	q := strings.ReplaceAll(e.Quote, "\n", " ")
	if r := []rune(q); len(r) > 60 {
		q = string(r[:59]) + "…"
	}
	return fmt.Sprintf("%s  [%s]  %s - %s", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Color, q, e.Author)
}

// colorOptions lists the color keys for the select widget.
func colorOptions() []string {
	keys := domain.ColorKeys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
