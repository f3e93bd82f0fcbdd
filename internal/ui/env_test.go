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
	"strings"
	"testing"
	"time"

	"quotecard/internal/cards"
	"quotecard/internal/domain"
	"quotecard/internal/storage"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "Ready"},
		{context.Canceled, "Cancelled."},
		{&domain.UpstreamError{Op: "request", Err: context.DeadlineExceeded}, "did not answer in time"},
		{&domain.ConfigError{Key: "api_key", Err: domain.ErrMissingAPIKey}, "No API key configured"},
		{&domain.ConfigError{Key: "color", Err: errors.New("unknown color")}, "Configuration error: unknown color"},
		{&domain.UpstreamError{Op: "request", Err: errors.New("401 Unauthorized")}, "Quote service error: 401 Unauthorized"},
		{&domain.IOError{Op: "load template", Path: "lime.jpg", Err: errors.New("no such file")}, "File error: load template lime.jpg"},
		{fmt.Errorf("wrapped: %w", errors.New("x")), "Error: wrapped: x"},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); !strings.Contains(got, tc.want) {
			t.Errorf("StatusFor(%v) = %q, want it to contain %q", tc.err, got, tc.want)
		}
	}
}

func TestSavedMessage(t *testing.T) {
	got := SavedMessage(cards.Result{PNGPath: "/out/lime_x.png", PDFPath: "/out/lime_x.pdf"})
	if got != "Saved lime_x.png and lime_x.pdf" {
		t.Fatalf("SavedMessage = %q", got)
	}
	if got := SavedMessage(cards.Result{PNGPath: "a/b.png"}); got != "Saved b.png" {
		t.Fatalf("SavedMessage = %q", got)
	}
}

func TestHistoryLineTruncatesLongQuotes(t *testing.T) {
	e := storage.Entry{
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 0, 0, time.Local),
		Color:     "pink",
		Quote:     strings.Repeat("word ", 20) + "\nend",
		Author:    "Ann",
	}
	got := HistoryLine(e)
	if !strings.HasPrefix(got, "2024-01-02 03:04  [pink]  ") || !strings.HasSuffix(got, "… - Ann") {
		t.Fatalf("HistoryLine = %q", got)
	}
	if strings.Contains(got, "\n") {
		t.Fatalf("newline not flattened: %q", got)
	}
}

func TestColorOptions(t *testing.T) {
	opts := colorOptions()
	if len(opts) != len(domain.ColorKeys()) || opts[0] != string(domain.ColorKeys()[0]) {
		t.Fatalf("colorOptions = %v", opts)
	}
}
