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
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openForTest(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s Store, quotes ...[2]string) {
	t.Helper()
	ctx := context.Background()
	for i, q := range quotes {
		_, err := s.Record(ctx, Entry{
			CreatedAt: time.Date(2024, 1, 1, 12, 0, i, 0, time.UTC),
			Color:     "lime",
			Quote:     q[0],
			Author:    q[1],
			PNGPath:   fmt.Sprintf("output/lime_%d.png", i),
		})
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
}

func TestOpenSQLiteCreatesFileAndVersion(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer func() { _ = s.Close() }()
	if s.Path() != HistoryPath(dir) {
		t.Fatalf("Path = %s", s.Path())
	}
	if _, err := os.Stat(filepath.Join(dir, HistoryDirName, HistoryFileName)); err != nil {
		t.Fatalf("history file missing: %v", err)
	}
	var schema int
	if err := s.db.QueryRow(`SELECT schema FROM version WHERE id=1`).Scan(&schema); err != nil || schema != schemaVersion {
		t.Fatalf("schema = %d err=%v", schema, err)
	}
	var mode string
	if err := s.db.QueryRow(`PRAGMA journal_mode;`).Scan(&mode); err != nil || mode != "wal" {
		t.Fatalf("journal_mode = %q err=%v", mode, err)
	}
}

func TestRecordListNewestFirst(t *testing.T) {
	s := openForTest(t)
	seed(t, s, [2]string{"First", "A"}, [2]string{"Second", "B"}, [2]string{"Third", "C"})
	got, err := s.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].Quote != "Third" || got[1].Quote != "Second" {
		t.Fatalf("List = %+v", got)
	}
	if got[0].CreatedAt.Second() != 2 || got[0].Color != "lime" || got[0].ID == 0 {
		t.Fatalf("fields not round-tripped: %+v", got[0])
	}
	all, _ := s.List(context.Background(), 0)
	if len(all) != 3 {
		t.Fatalf("default limit should include all 3, got %d", len(all))
	}
}

func TestSearchMatchesQuoteAndAuthorByPrefix(t *testing.T) {
	s := openForTest(t)
	seed(t, s,
		[2]string{"Believe you can and you're halfway there.", "Theodore Roosevelt"},
		[2]string{"Stay hungry, stay foolish.", "Steve Jobs"},
		[2]string{"Dream big.", "Unknown"},
	)
	ctx := context.Background()
	cases := map[string]int{
		"halfway":       1,
		"ROOSE":         1,
		"stay":          1,
		"steve foolish": 1,
		"dream jobs":    0,
		`"quoted"`:      0,
		"you're":        1,
	}
	for q, want := range cases {
		got, err := s.Search(ctx, q, 10)
		if err != nil {
			t.Fatalf("Search(%q): %v", q, err)
		}
		if len(got) != want {
			t.Fatalf("Search(%q) = %d hits, want %d", q, len(got), want)
		}
	}
	all, err := s.Search(ctx, "   ", 10)
	if err != nil || len(all) != 3 {
		t.Fatalf("blank search should list all: n=%d err=%v", len(all), err)
	}
}

func TestHistoryPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSQLite(dir)
	if err != nil {
		t.Fatal(err)
	}
	seed(t, s, [2]string{"Keep going", "Anon"})
	_ = s.Close()

	s2, err := OpenSQLite(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s2.Close() }()
	got, err := s2.Search(context.Background(), "going", 5)
	if err != nil || len(got) != 1 {
		t.Fatalf("after reopen: n=%d err=%v", len(got), err)
	}
}

func TestConcurrentRecord(t *testing.T) {
	s := openForTest(t)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Record(context.Background(), Entry{Color: "pink", Quote: fmt.Sprintf("q%d", i), Author: "x", PNGPath: "p"}); err != nil {
				t.Errorf("Record: %v", err)
			}
		}(i)
	}
	wg.Wait()
	got, _ := s.List(context.Background(), 100)
	if len(got) != 8 {
		t.Fatalf("entries = %d, want 8", len(got))
	}
}

func TestMigrateV1Database(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, HistoryDirName), 0o755); err != nil {
		t.Fatal(err)
	}
	db, err := sql.Open("sqlite", "file:"+filepath.ToSlash(HistoryPath(dir)))
	if err != nil {
		t.Fatal(err)
	}
	stmts := []string{
		`CREATE TABLE version (id INTEGER PRIMARY KEY CHECK(id=1), schema INTEGER NOT NULL, app TEXT, created_at TEXT NOT NULL, updated_at TEXT NOT NULL);`,
		`INSERT INTO version VALUES (1, 1, 'old', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z');`,
		`CREATE TABLE cards (id INTEGER PRIMARY KEY AUTOINCREMENT, created_at TEXT NOT NULL, color TEXT NOT NULL, quote TEXT NOT NULL, author TEXT NOT NULL, png_path TEXT NOT NULL);`,
		`INSERT INTO cards (created_at, color, quote, author, png_path) VALUES ('2024-01-01T00:00:00Z', 'pink', 'Old card', 'Someone', 'output/pink.png');`,
	}
	for _, q := range stmts {
		if _, err := db.Exec(q); err != nil {
			t.Fatalf("seed v1: %v", err)
		}
	}
	_ = db.Close()

	s, err := OpenSQLite(dir)
	if err != nil {
		t.Fatalf("OpenSQLite on v1: %v", err)
	}
	defer func() { _ = s.Close() }()
	var schema int
	_ = s.db.QueryRow(`SELECT schema FROM version WHERE id=1`).Scan(&schema)
	if schema != schemaVersion {
		t.Fatalf("schema after migration = %d", schema)
	}
	got, err := s.List(context.Background(), 10)
	if err != nil || len(got) != 1 || got[0].Quote != "Old card" || got[0].PDFPath != "" {
		t.Fatalf("migrated rows: %+v err=%v", got, err)
	}
	if _, err := s.Record(context.Background(), Entry{Color: "lime", Quote: "New", Author: "A", PNGPath: "x.png", PDFPath: "x.pdf"}); err != nil {
		t.Fatalf("Record after migration: %v", err)
	}
}

func TestFTSQuery(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"hello":         `"hello"*`,
		`say "hi" now!`: `"say"* AND "hi"* AND "now"*`,
		`a"b`:           `"a""b"*`,
		"  ... ":        "",
	}
	for in, want := range cases {
		if got := ftsQuery(in); got != want {
			t.Errorf("ftsQuery(%q) = %q, want %q", in, got, want)
		}
	}
}
