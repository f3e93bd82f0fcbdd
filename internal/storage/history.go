/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"path/filepath"
	"time"
)

const (
	// HistoryDirName holds per-output-directory data next to the rendered cards.
	HistoryDirName  = ".quotecard"
	HistoryFileName = "history.sqlite"

	// DefaultLimit applies when List or Search is called with limit <= 0.
	DefaultLimit = 50
)

// Entry is one saved quote card.
type Entry struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Color     string    `json:"color"`
	Quote     string    `json:"quote"`
	Author    string    `json:"author"`
	PNGPath   string    `json:"png_path"`
	PDFPath   string    `json:"pdf_path,omitempty"`
}

// Store records saved cards. Implementations are safe for concurrent use.
// List and Search return the newest entries first.
type Store interface {
	Record(ctx context.Context, e Entry) (int64, error)
	List(ctx context.Context, limit int) ([]Entry, error)
	Search(ctx context.Context, text string, limit int) ([]Entry, error)
	Close() error
}

// HistoryPath returns the SQLite history file for cards written to outputDir.
func HistoryPath(outputDir string) string {
	return filepath.Join(outputDir, HistoryDirName, HistoryFileName)
}

func normLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
