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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "quotecard/internal/log"
	"quotecard/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the local SQLite schema of the history database.
// Bump this when you perform breaking schema changes and add migrations.
const schemaVersion = 2

// SQLiteStore keeps the card history in a local SQLite file with an FTS5 index over quote and author.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite ensures <outputDir>/.quotecard/history.sqlite exists, enables WAL mode,
// creates the meta/version tables and brings the schema up to date.
func OpenSQLite(outputDir string) (*SQLiteStore, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_open").With(
		slog.String("dir", outputDir),
	)
	if strings.TrimSpace(outputDir) == "" {
		return nil, errors.New("output dir is required")
	}
	if err := os.MkdirAll(filepath.Join(outputDir, HistoryDirName), 0o755); err != nil {
		l.Error("create history dir failed", applog.Err(err))
		return nil, fmt.Errorf("create %s dir: %w", HistoryDirName, err)
	}

	path := HistoryPath(outputDir)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", applog.Err(err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Single writer for an embedded database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", applog.Err(err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", applog.Err(err))
		return nil, err
	}
	if err := ensureHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure history schema failed", applog.Err(err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", applog.Err(err))
		return nil, err
	}
	l.Debug("history ready", slog.String("path", path))
	return &SQLiteStore{db: db, path: path}, nil
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string { return s.path }

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// keep the stored schema number for runMigrations
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureHistorySchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS cards (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at TEXT NOT NULL,
			color      TEXT NOT NULL,
			quote      TEXT NOT NULL,
			author     TEXT NOT NULL,
			png_path   TEXT NOT NULL,
			pdf_path   TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_cards_created ON cards(created_at);`,
		// Contentless FTS5 index fed from cards via triggers.
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_cards USING fts5(
			text,
			content='',
			tokenize = 'unicode61'
		);`,
		`CREATE TRIGGER IF NOT EXISTS cards_ai AFTER INSERT ON cards BEGIN
			INSERT INTO fts_cards(rowid, text) VALUES (new.id, new.quote || ' ' || new.author);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS cards_ad AFTER DELETE ON cards BEGIN
			INSERT INTO fts_cards(fts_cards, rowid, text) VALUES ('delete', old.id, old.quote || ' ' || old.author);
		END;`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// written by a newer build; do not downgrade
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			// v1 databases predate the PDF copy.
			if !hasColumn(ctx, db, "cards", "pdf_path") {
				stmts = append(stmts, `ALTER TABLE cards ADD COLUMN pdf_path TEXT NOT NULL DEFAULT '';`)
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

func hasColumn(ctx context.Context, db *sql.DB, table, column string) bool {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name string
		if rows.Scan(&name) == nil && name == column {
			return true
		}
	}
	return false
}

// Record inserts e and returns its id. A zero CreatedAt is set to now.
func (s *SQLiteStore) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO cards (created_at, color, quote, author, png_path, pdf_path) VALUES (?, ?, ?, ?, ?, ?)`,
		e.CreatedAt.UTC().Format(time.RFC3339Nano), e.Color, e.Quote, e.Author, e.PNGPath, e.PDFPath)
	if err != nil {
		return 0, fmt.Errorf("record card: %w", err)
	}
	return res.LastInsertId()
}

const cardColumns = `c.id, c.created_at, c.color, c.quote, c.author, c.png_path, c.pdf_path`

// List returns up to limit entries, newest first.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+cardColumns+` FROM cards c ORDER BY c.id DESC LIMIT ?`, normLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return scanSQLite(rows)
}

// Search matches text against quote and author using prefix terms, newest first.
// An empty text behaves like List.
func (s *SQLiteStore) Search(ctx context.Context, text string, limit int) ([]Entry, error) {
	match := ftsQuery(text)
	if match == "" {
		return s.List(ctx, limit)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM fts_cards JOIN cards c ON fts_cards.rowid = c.id
		WHERE fts_cards MATCH ? ORDER BY c.id DESC LIMIT ?`, match, normLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	return scanSQLite(rows)
}

// ftsQuery turns free text into an FTS5 query of quoted prefix terms joined by AND.
func ftsQuery(text string) string {
	var terms []string
	for _, f := range strings.Fields(text) {
		f = strings.Trim(f, `"'.,;:!?()*`)
		if f == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, `""`)+`"*`)
	}
	return strings.Join(terms, " AND ")
}

func scanSQLite(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &created, &e.Color, &e.Quote, &e.Author, &e.PNGPath, &e.PDFPath); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
