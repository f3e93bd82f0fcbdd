/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cliEnv points the config at a temp dir and keeps the keyring out of the way.
func cliEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("QC_CONFIG", filepath.Join(dir, "config.yaml"))
	t.Setenv("QC_OUTPUT_DIR", filepath.Join(dir, "out"))
	t.Setenv("QC_TEMPLATES_DIR", "")
	t.Setenv("QC_HISTORY", "false")
	t.Setenv("QC_HISTORY_DSN", "")
	t.Setenv("QC_FORMATS", "")
	t.Setenv("QC_FONT_FILE", "")
	t.Setenv("QC_LOG_LEVEL", "error")
	t.Setenv("QC_LOG_FILE", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	return dir
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestVersionAndUsage(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	if code != 0 || !strings.HasPrefix(out, "QuoteCard\n") {
		t.Fatalf("version: code=%d out=%q", code, out)
	}
	code, out, _ = runCLI(t)
	if code != 0 || !strings.Contains(out, "Usage:") || !strings.Contains(out, "lime") {
		t.Fatalf("usage: code=%d out=%q", code, out)
	}
}

func TestUnknownCommand(t *testing.T) {
	cliEnv(t)
	code, _, errOut := runCLI(t, "frobnicate")
	if code != 2 || !strings.Contains(errOut, `unknown command "frobnicate"`) {
		t.Fatalf("code=%d stderr=%q", code, errOut)
	}
}

func TestRenderWritesCard(t *testing.T) {
	dir := cliEnv(t)
	out := filepath.Join(dir, "cards")
	code, stdout, stderr := runCLI(t, "render", "-quote", `Stay hungry\nstay foolish`, "-author", "Steve", "-color", "pink", "-out", out, "-pdf")
	if code != 0 {
		t.Fatalf("render: code=%d stderr=%q", code, stderr)
	}
	matches, _ := filepath.Glob(filepath.Join(out, "pink_*.png"))
	if len(matches) != 1 {
		t.Fatalf("expected one png in %s, got %v", out, matches)
	}
	pdfs, _ := filepath.Glob(filepath.Join(out, "pink_*.pdf"))
	if len(pdfs) != 1 {
		t.Fatalf("expected one pdf, got %v", pdfs)
	}
	if !strings.Contains(stdout, "Saved "+matches[0]) {
		t.Fatalf("stdout %q does not name %s", stdout, matches[0])
	}
}

func TestRenderUsageErrors(t *testing.T) {
	cliEnv(t)
	if code, _, errOut := runCLI(t, "render"); code != 2 || !strings.Contains(errOut, "-quote") {
		t.Fatalf("missing quote: code=%d stderr=%q", code, errOut)
	}
	if code, _, errOut := runCLI(t, "render", "-quote", "x", "-color", "teal"); code != 1 || !strings.Contains(errOut, "teal") {
		t.Fatalf("bad color: code=%d stderr=%q", code, errOut)
	}
}

func TestQuoteUsesConfiguredSource(t *testing.T) {
	cliEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Be bold - Ann"}}]}`))
	}))
	defer srv.Close()
	t.Setenv("QC_API_BASE_URL", srv.URL)

	code, out, errOut := runCLI(t, "quote")
	if code != 0 {
		t.Fatalf("quote: code=%d stderr=%q", code, errOut)
	}
	if out != "Be bold\n- by Ann\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConfigShowHidesKey(t *testing.T) {
	cliEnv(t)
	code, out, _ := runCLI(t, "config", "show")
	if code != 0 {
		t.Fatalf("code=%d", code)
	}
	if strings.Contains(out, "sk-test") {
		t.Fatalf("config show leaked the key: %q", out)
	}
	if !strings.Contains(out, "api_key: set (from OPENAI_API_KEY)") || !strings.Contains(out, "quote_source:") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestTemplatesCommands(t *testing.T) {
	dir := cliEnv(t)
	code, out, _ := runCLI(t, "templates", "list")
	if code != 0 || !strings.Contains(out, "built-in") {
		t.Fatalf("list: code=%d out=%q", code, out)
	}
	if code, _, errOut := runCLI(t, "templates", "install", filepath.Join(dir, "x.zip")); code != 1 || !strings.Contains(errOut, "card.templates_dir") {
		t.Fatalf("install without dir: code=%d stderr=%q", code, errOut)
	}
	if code, _, _ := runCLI(t, "templates", "install"); code != 2 {
		t.Fatalf("install without zip: code=%d", code)
	}
}

func TestHistoryDisabled(t *testing.T) {
	cliEnv(t)
	code, _, errOut := runCLI(t, "history")
	if code != 1 || !strings.Contains(errOut, "history is disabled") {
		t.Fatalf("code=%d stderr=%q", code, errOut)
	}
}

func TestHistoryListsRenderedCards(t *testing.T) {
	dir := cliEnv(t)
	t.Setenv("QC_HISTORY", "true")
	if code, _, errOut := runCLI(t, "render", "-quote", "Less is more", "-author", "Mies"); code != 0 {
		t.Fatalf("render: code=%d stderr=%q", code, errOut)
	}
	code, out, errOut := runCLI(t, "history", "-search", "less")
	if code != 0 {
		t.Fatalf("history: code=%d stderr=%q", code, errOut)
	}
	if !strings.Contains(out, "Less is more - Mies") || !strings.Contains(out, filepath.Join(dir, "out")) {
		t.Fatalf("unexpected history output %q", out)
	}
	code, out, _ = runCLI(t, "history", "-json")
	if code != 0 || !strings.Contains(out, `"quotecard.history/v1"`) {
		t.Fatalf("json: code=%d out=%q", code, out)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", ".quotecard", "history.sqlite")); err != nil {
		t.Fatalf("history db missing: %v", err)
	}
}

func TestConfigInitWritesEffectiveConfig(t *testing.T) {
	dir := cliEnv(t)
	t.Setenv("QC_MODEL", "gpt-4o-mini")
	code, out, errOut := runCLI(t, "config", "init")
	if code != 0 {
		t.Fatalf("init: code=%d stderr=%q", code, errOut)
	}
	path := filepath.Join(dir, "config.yaml")
	if !strings.Contains(out, path) {
		t.Fatalf("stdout %q does not name %s", out, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(data), "model: gpt-4o-mini") || strings.Contains(string(data), "sk-test") {
		t.Fatalf("unexpected config file:\n%s", data)
	}
	if code, _, errOut := runCLI(t, "config", "init"); code != 1 || !strings.Contains(errOut, "already exists") {
		t.Fatalf("second init: code=%d stderr=%q", code, errOut)
	}
	if code, _, errOut := runCLI(t, "config", "init", "-force"); code != 0 {
		t.Fatalf("forced init: code=%d stderr=%q", code, errOut)
	}
}

func TestRenderWithCustomFontFile(t *testing.T) {
	dir := cliEnv(t)
	t.Setenv("QC_FONT_FILE", filepath.Join(dir, "missing.ttf"))
	if code, _, errOut := runCLI(t, "render", "-quote", "Fallback font"); code != 0 {
		t.Fatalf("a missing font file must fall back: code=%d stderr=%q", code, errOut)
	}
	if got := fontFamily("/fonts/Lora-Bold.ttf"); got != "Lora-Bold" {
		t.Fatalf("fontFamily = %q", got)
	}
}
