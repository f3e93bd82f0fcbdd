/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quotecard/internal/cards"
	"quotecard/internal/config"
	"quotecard/internal/crash"
	"quotecard/internal/domain"
	applog "quotecard/internal/log"
	"quotecard/internal/quotesource"
	"quotecard/internal/render"
	"quotecard/internal/storage"
	"quotecard/internal/templates"
	"quotecard/internal/textlayout"
	"quotecard/internal/ui"
	"quotecard/internal/version"
)

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "QuoteCard - quote card generator")
	_, _ = fmt.Fprintf(w, "Version: %s\n", version.String())
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  quotecard version                                   Show version")
	_, _ = fmt.Fprintln(w, "  quotecard quote                                     Print a generated quote and its author")
	_, _ = fmt.Fprintln(w, "  quotecard render -quote TEXT [-author NAME] [-color KEY] [-out DIR] [-pdf]")
	_, _ = fmt.Fprintln(w, "                                                      Save a card for the given quote")
	_, _ = fmt.Fprintln(w, "  quotecard random [-out DIR] [-pdf]                  Generate a quote and save it on a random background")
	_, _ = fmt.Fprintln(w, "  quotecard history [-search TEXT] [-limit N] [-json]  List saved cards")
	_, _ = fmt.Fprintln(w, "  quotecard templates list|install <zip>|export <zip> Manage background templates")
	_, _ = fmt.Fprintln(w, "  quotecard config show|init [-force]|path           Inspect or write the configuration file")
	_, _ = fmt.Fprintln(w, "  quotecard config set-key <key>|delete-key           Manage the API key in the OS keyring")
	_, _ = fmt.Fprintln(w, "  quotecard ui                                        Launch desktop UI (build with -tags fyne)")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Colors: %s\n", strings.Join(colorNames(), ", "))
}

func main() {
	defer crash.Recover("")
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	_ = applog.Close()
	if code != 0 {
		os.Exit(code)
	}
}

// run executes one command and returns the process exit code:
// 0 success, 1 action failed, 2 usage error.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(stdout, "QuoteCard")
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	}

	cfg, key, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	applog.InitFromConfig(cfg.Logging)
	l := applog.WithComponent("cli")
	l.Debug("start", slog.String("cmd", args[0]), slog.Int("args", len(args)))
	if err := cfg.Validate(); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer crash.Recover(cfg.Card.OutputDir)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &app{cfg: cfg, key: key, stdout: stdout, stderr: stderr, log: l}
	switch args[0] {
	case "quote":
		return a.quote(ctx)
	case "render":
		return a.render(ctx, args[1:])
	case "random":
		return a.random(ctx, args[1:])
	case "history":
		return a.history(ctx, args[1:])
	case "templates":
		return a.templates(args[1:])
	case "config":
		return a.config(args[1:])
	case "ui":
		return a.ui()
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

type app struct {
	cfg    config.AppConfig
	key    string
	stdout io.Writer
	stderr io.Writer
	log    *slog.Logger
}

func (a *app) fail(op string, err error) int {
	a.log.Error(op+" failed", applog.Err(err))
	_, _ = fmt.Fprintln(a.stderr, "Error:", err)
	return 1
}

func (a *app) usageErr(msg string) int {
	_, _ = fmt.Fprintln(a.stderr, msg)
	return 2
}

// service wires the card service from the config. Callers close it to release the history store.
func (a *app) service(ctx context.Context, key string) *cards.Service {
	c := a.cfg
	lib := textlayout.NewFontLibrary()
	body, _ := textlayout.GetStyle(textlayout.StyleQuote)
	caption, _ := textlayout.GetStyle(textlayout.StyleCaption)
	if c.Card.FontFile != "" {
		family := fontFamily(c.Card.FontFile)
		if err := lib.LoadTTF(family, body.Font.Weight, false, c.Card.FontFile); err != nil {
			a.log.Warn("font file not usable, falling back to the embedded font", slog.String("file", c.Card.FontFile), applog.Err(err))
		} else {
			body = body.WithFamily(family)
			caption = caption.WithFamily(family)
		}
	}
	body = body.WithSize(c.Card.FontSize)
	caption = caption.WithSize(c.Card.FontSize)

	var history storage.Store
	if c.History.Enabled {
		var err error
		if c.History.DatabaseURL != "" {
			history, err = storage.OpenPostgres(ctx, c.History.DatabaseURL)
		} else {
			history, err = storage.OpenSQLite(c.Card.OutputDir)
		}
		if err != nil {
			a.log.Warn("history unavailable", applog.Err(err))
			history = nil
		}
	}

	return cards.New(a.quoteSource(key), templates.Library{Dir: c.Card.TemplatesDir}, textlayout.OTProvider{Lib: lib}, history, cards.Options{
		OutputDir: c.Card.OutputDir,
		PDF:       c.Card.WantsPDF(),
		Render:    render.Options{Body: body, Caption: caption},
	})
}

func (a *app) quoteSource(key string) *quotesource.OpenAI {
	q := a.cfg.QuoteSource
	return quotesource.NewOpenAI(key, quotesource.Options{
		BaseURL:     q.BaseURL,
		Model:       q.Model,
		MaxTokens:   q.MaxTokens,
		Temperature: q.Temperature,
		Timeout:     q.Timeout(),
	})
}

// fontFamily names a font file's family after the file, e.g. "Lora-Bold.ttf" -> "Lora-Bold".
func fontFamily(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func closeService(svc *cards.Service) {
	if err := svc.Close(); err != nil {
		applog.WithComponent("cli").Warn("closing history failed", applog.Err(err))
	}
}

func (a *app) quote(ctx context.Context) int {
	svc := a.service(ctx, a.key)
	defer closeService(svc)
	ctx, cancel := context.WithTimeout(ctx, a.cfg.QuoteSource.Timeout())
	defer cancel()
	q, err := svc.GenerateQuote(ctx)
	if err != nil {
		return a.fail("quote", err)
	}
	_, _ = fmt.Fprintln(a.stdout, q.Text)
	_, _ = fmt.Fprintln(a.stdout, "- by "+q.Author)
	return 0
}

func (a *app) render(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	quote := fs.String("quote", "", "quote text; use \\n for a hard line break")
	author := fs.String("author", domain.UnknownAuthor, "author shown in the caption")
	color := fs.String("color", a.cfg.Card.DefaultColor, "background: "+strings.Join(colorNames(), "|"))
	out := fs.String("out", "", "output directory (default from config)")
	pdf := fs.Bool("pdf", false, "also write a PDF copy")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if strings.TrimSpace(*quote) == "" {
		return a.usageErr("render requires -quote")
	}
	a.applyOut(*out, *pdf)
	svc := a.service(ctx, a.key)
	defer closeService(svc)
	res, err := svc.SaveCard(ctx, domain.RenderRequest{
		QuoteText:  strings.ReplaceAll(*quote, `\n`, "\n"),
		AuthorText: *author,
		ColorKey:   domain.ColorKey(*color),
	})
	if err != nil {
		return a.fail("render", err)
	}
	a.printResult(res)
	return 0
}

func (a *app) random(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("random", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	out := fs.String("out", "", "output directory (default from config)")
	pdf := fs.Bool("pdf", false, "also write a PDF copy")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	a.applyOut(*out, *pdf)
	svc := a.service(ctx, a.key)
	defer closeService(svc)
	ctx, cancel := context.WithTimeout(ctx, a.cfg.QuoteSource.Timeout())
	defer cancel()
	res, err := svc.RandomCard(ctx, nil)
	if err != nil {
		return a.fail("random", err)
	}
	_, _ = fmt.Fprintf(a.stdout, "%s\n- by %s\n", res.Quote.Text, res.Quote.Author)
	a.printResult(res)
	return 0
}

func (a *app) applyOut(out string, pdf bool) {
	if out != "" {
		a.cfg.Card.OutputDir = out
	}
	if pdf && !a.cfg.Card.WantsPDF() {
		a.cfg.Card.Formats = append(a.cfg.Card.Formats, "pdf")
	}
}

func (a *app) printResult(res cards.Result) {
	_, _ = fmt.Fprintln(a.stdout, "Saved", res.PNGPath)
	if res.PDFPath != "" {
		_, _ = fmt.Fprintln(a.stdout, "Saved", res.PDFPath)
	}
}

func (a *app) history(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	search := fs.String("search", "", "only cards whose quote or author match")
	limit := fs.Int("limit", storage.DefaultLimit, "maximum number of cards")
	asJSON := fs.Bool("json", false, "print a JSON export instead of a table")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if !a.cfg.History.Enabled {
		return a.fail("history", &domain.ConfigError{Key: "history.enabled", Err: errors.New("history is disabled")})
	}
	svc := a.service(ctx, a.key)
	defer closeService(svc)
	entries, err := svc.History(ctx, *search, *limit)
	if err != nil {
		return a.fail("history", err)
	}
	if *asJSON {
		if err := storage.ExportJSON(a.stdout, entries); err != nil {
			return a.fail("history", err)
		}
		return 0
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(a.stdout, "No cards saved yet.")
		return 0
	}
	for _, e := range entries {
		_, _ = fmt.Fprintln(a.stdout, ui.HistoryLine(e))
		_, _ = fmt.Fprintln(a.stdout, "    "+e.PNGPath)
	}
	return 0
}

func (a *app) templates(args []string) int {
	if len(args) == 0 {
		return a.usageErr("templates requires list, install <zip> or export <zip>")
	}
	dir := a.cfg.Card.TemplatesDir
	switch args[0] {
	case "list":
		lib := templates.Library{Dir: dir}
		if dir == "" {
			_, _ = fmt.Fprintln(a.stdout, "No template directory configured; built-in solid backgrounds are used.")
		}
		for _, k := range lib.Available() {
			src := "built-in"
			if dir != "" {
				src = lib.Path(k)
			}
			_, _ = fmt.Fprintf(a.stdout, "%-7s %s\n", k, src)
		}
		return 0
	case "install", "export":
		if len(args) < 2 {
			return a.usageErr("templates " + args[0] + " requires <zip>")
		}
		if dir == "" {
			return a.fail("templates", &domain.ConfigError{Key: "card.templates_dir", Err: errors.New("not set; set it in the config or QC_TEMPLATES_DIR")})
		}
		var (
			n   int
			err error
		)
		if args[0] == "install" {
			n, err = templates.InstallPack(dir, args[1])
		} else {
			n, err = templates.ExportPack(dir, args[1])
		}
		if err != nil {
			return a.fail("templates", err)
		}
		_, _ = fmt.Fprintf(a.stdout, "%s: %d templates\n", args[0], n)
		return 0
	default:
		return a.usageErr("unknown templates command " + args[0])
	}
}

func (a *app) config(args []string) int {
	if len(args) == 0 {
		return a.usageErr("config requires show, init, path, set-key <key> or delete-key")
	}
	switch args[0] {
	case "show":
		data, err := yaml.Marshal(a.cfg)
		if err != nil {
			return a.fail("config", err)
		}
		_, _ = a.stdout.Write(data)
		keyState := "not set"
		if a.key != "" {
			keyState = "set"
			if env, ok := config.EnvOverrideFor("api_key"); ok {
				keyState += " (from " + env + ")"
			} else {
				keyState += " (from keyring)"
			}
		}
		_, _ = fmt.Fprintln(a.stdout, "api_key:", keyState)
		return 0
	case "init":
		fs := flag.NewFlagSet("config init", flag.ContinueOnError)
		fs.SetOutput(a.stderr)
		force := fs.Bool("force", false, "overwrite an existing config file")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		p, err := config.ConfigPath()
		if err != nil {
			return a.fail("config", err)
		}
		if _, err := os.Stat(p); err == nil && !*force {
			return a.fail("config", &domain.ConfigError{Key: p, Err: errors.New("already exists; use -force to overwrite")})
		}
		// The key stays in the keyring; the file never holds it.
		if err := config.Save(a.cfg, ""); err != nil {
			return a.fail("config", err)
		}
		_, _ = fmt.Fprintln(a.stdout, "Wrote", p)
		return 0
	case "path":
		p, err := config.ConfigPath()
		if err != nil {
			return a.fail("config", err)
		}
		_, _ = fmt.Fprintln(a.stdout, p)
		return 0
	case "set-key":
		if len(args) < 2 {
			return a.usageErr("config set-key requires <key>")
		}
		if err := config.SetAPIKey(args[1]); err != nil {
			return a.fail("config", err)
		}
		_, _ = fmt.Fprintln(a.stdout, "API key stored in the OS keyring.")
		return 0
	case "delete-key":
		if err := config.DeleteAPIKey(); err != nil {
			return a.fail("config", err)
		}
		_, _ = fmt.Fprintln(a.stdout, "API key removed from the OS keyring.")
		return 0
	default:
		return a.usageErr("unknown config command " + args[0])
	}
}

func (a *app) ui() int {
	svc := a.service(context.Background(), a.key)
	defer closeService(svc)
	env := ui.Env{
		Service:       svc,
		APIKeyMissing: a.key == "",
		TemplatesDir:  a.cfg.Card.TemplatesDir,
		DefaultColor:  domain.ColorKey(a.cfg.Card.DefaultColor),
		SetAPIKey: func(key string) (*cards.Service, error) {
			if err := config.SetAPIKey(key); err != nil {
				return nil, err
			}
			return svc.WithQuoteSource(a.quoteSource(strings.TrimSpace(key))), nil
		},
	}
	start := time.Now()
	if err := ui.Run(env); err != nil {
		_, _ = fmt.Fprintln(a.stderr, "Error:", err)
		return 1
	}
	a.log.Info("ui session ended", slog.Duration("took", time.Since(start)))
	return 0
}

func colorNames() []string {
	keys := domain.ColorKeys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}
