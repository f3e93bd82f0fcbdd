//go:build fyne && cgo

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
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"quotecard/internal/cards"
	"quotecard/internal/crash"
	"quotecard/internal/domain"
	applog "quotecard/internal/log"
	"quotecard/internal/storage"
	"quotecard/internal/templates"
	"quotecard/internal/version"
)

const (
	quoteTimeout = 45 * time.Second
	prefColor    = "card.color"
)

// Run starts the Fyne-based desktop shell.
func Run(env Env) error {
	if env.Service == nil {
		return fmt.Errorf("ui: no card service")
	}
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))
	defer crash.Recover(env.Service.OutputDir())

	fyneApp := app.NewWithID("quotecard")
	w := fyneApp.NewWindow("Quote Card Generator")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 600)
	winH := prefs.IntWithFallback("window.height", 550)
	w.Resize(fyne.NewSize(float32(max(winW, 480)), float32(max(winH, 420))))

	svc := env.Service
	var svcMu sync.Mutex
	service := func() *cards.Service {
		svcMu.Lock()
		defer svcMu.Unlock()
		return svc
	}

	quoteEntry := widget.NewMultiLineEntry()
	quoteEntry.SetPlaceHolder("Type a quote or press Generate Quote")
	quoteEntry.Wrapping = fyne.TextWrapWord
	quoteEntry.SetMinRowsVisible(4)
	authorEntry := widget.NewEntry()
	authorEntry.SetPlaceHolder("Author")

	colorSelect := widget.NewSelect(colorOptions(), func(s string) { prefs.SetString(prefColor, s) })
	def := string(env.DefaultColor)
	if def == "" {
		def = string(domain.DefaultColor)
	}
	colorSelect.SetSelected(prefs.StringWithFallback(prefColor, def))

	preview := canvas.NewImageFromResource(nil)
	preview.FillMode = canvas.ImageFillContain
	preview.SetMinSize(fyne.NewSize(240, 240))

	status := widget.NewLabel("Ready")
	status.Wrapping = fyne.TextWrapWord
	progress := widget.NewProgressBarInfinite()
	progress.Stop()
	progress.Hide()

	// At most one quote request runs at a time; cancel aborts it.
	var (
		busyMu sync.Mutex
		cancel context.CancelFunc
	)
	var generateBtn, saveBtn, randomBtn, cancelBtn *widget.Button

	setBusy := func(busy bool, msg string) {
		status.SetText(msg)
		for _, b := range []*widget.Button{generateBtn, saveBtn, randomBtn} {
			if busy {
				b.Disable()
			} else {
				b.Enable()
			}
		}
		if busy {
			progress.Show()
			progress.Start()
			cancelBtn.Show()
		} else {
			progress.Stop()
			progress.Hide()
			cancelBtn.Hide()
		}
	}
	// startTask runs fn off the UI thread with a timeout and applies done on the UI thread.
	startTask := func(msg string, fn func(ctx context.Context) error, done func(err error)) {
		ctx, c := context.WithTimeout(context.Background(), quoteTimeout)
		busyMu.Lock()
		cancel = c
		busyMu.Unlock()
		setBusy(true, msg)
		go func() {
			defer c()
			err := fn(ctx)
			fyne.Do(func() {
				busyMu.Lock()
				cancel = nil
				busyMu.Unlock()
				setBusy(false, "")
				done(err)
			})
		}()
	}
	showResult := func(res cards.Result) {
		preview.File = res.PNGPath
		preview.Resource = nil
		preview.Refresh()
		status.SetText(SavedMessage(res))
	}
	fail := func(op string, err error) {
		l.Warn(op+" failed", applog.Err(err))
		status.SetText(StatusFor(err))
	}

	generateBtn = widget.NewButton("Generate Quote", func() {
		var q domain.Quote
		startTask("Asking for a quote…", func(ctx context.Context) error {
			var err error
			q, err = service().GenerateQuote(ctx)
			return err
		}, func(err error) {
			if err != nil {
				fail("generate", err)
				return
			}
			quoteEntry.SetText(q.Text)
			authorEntry.SetText(q.Author)
			status.SetText("Quote generated. Edit it or save the card.")
		})
	})

	saveBtn = widget.NewButton("Save Quote Card", func() {
		req := domain.RenderRequest{
			QuoteText:  quoteEntry.Text,
			AuthorText: strings.TrimSpace(authorEntry.Text),
			ColorKey:   domain.ColorKey(colorSelect.Selected),
		}
		if strings.TrimSpace(req.QuoteText) == "" {
			dialog.ShowInformation("Save Quote Card", "Please enter a quote first.", w)
			return
		}
		var res cards.Result
		startTask("Saving card…", func(ctx context.Context) error {
			var err error
			res, err = service().SaveCard(ctx, req)
			return err
		}, func(err error) {
			if err != nil {
				fail("save", err)
				return
			}
			showResult(res)
		})
	})

	randomBtn = widget.NewButton("Just generate it for me", func() {
		var res cards.Result
		startTask("Generating a card…", func(ctx context.Context) error {
			var err error
			res, err = service().RandomCard(ctx, nil)
			return err
		}, func(err error) {
			if err != nil {
				fail("random", err)
				return
			}
			quoteEntry.SetText(res.Quote.Text)
			authorEntry.SetText(res.Quote.Author)
			colorSelect.SetSelected(string(res.Color))
			showResult(res)
		})
	})

	cancelBtn = widget.NewButton("Cancel", func() {
		busyMu.Lock()
		c := cancel
		busyMu.Unlock()
		if c != nil {
			l.Info("cancel requested")
			c()
		}
	})
	cancelBtn.Hide()

	form := widget.NewForm(
		widget.NewFormItem("Quote", quoteEntry),
		widget.NewFormItem("Author", authorEntry),
		widget.NewFormItem("Background", colorSelect),
	)
	buttons := container.NewGridWithColumns(3, generateBtn, saveBtn, randomBtn)
	footer := container.NewVBox(container.NewBorder(nil, nil, nil, cancelBtn, progress), status)
	w.SetContent(container.NewBorder(
		container.NewVBox(form, buttons),
		footer, nil, nil,
		preview,
	))

	w.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File",
			fyne.NewMenuItem("History…", func() { showHistory(w, service(), l) }),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Install Template Pack…", func() { installPack(w, env.TemplatesDir, status) }),
			fyne.NewMenuItem("Export Template Pack…", func() { exportPack(w, env.TemplatesDir, status) }),
		),
		fyne.NewMenu("Settings",
			fyne.NewMenuItem("API Key…", func() {
				askAPIKey(w, env.SetAPIKey, func(s *cards.Service) {
					svcMu.Lock()
					svc = s
					svcMu.Unlock()
					status.SetText("API key saved.")
				})
			}),
		),
	))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		busyMu.Lock()
		if cancel != nil {
			cancel()
		}
		busyMu.Unlock()
		w.Close()
	})

	if env.APIKeyMissing {
		status.SetText(StatusFor(&domain.ConfigError{Key: "api_key", Err: domain.ErrMissingAPIKey}))
		dialog.ShowInformation("API key missing",
			"No OpenAI API key was found.\nSet OPENAI_API_KEY or use Settings > API Key.\nYou can still type quotes and save cards.", w)
	}

	w.ShowAndRun()
	l.Info("UI closed")
	return nil
}

func askAPIKey(w fyne.Window, set func(string) (*cards.Service, error), applied func(*cards.Service)) {
	if set == nil {
		dialog.ShowInformation("API Key", "Key storage is not available in this build.", w)
		return
	}
	keyEntry := widget.NewPasswordEntry()
	keyEntry.SetPlaceHolder("sk-…")
	dialog.ShowForm("OpenAI API Key", "Save", "Cancel", []*widget.FormItem{
		widget.NewFormItem("Key", keyEntry),
	}, func(ok bool) {
		if !ok {
			return
		}
		s, err := set(keyEntry.Text)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		applied(s)
	}, w)
}

func showHistory(w fyne.Window, svc *cards.Service, l *slog.Logger) {
	var entries []storage.Entry
	list := widget.NewList(
		func() int { return len(entries) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(entries) {
				o.(*widget.Label).SetText(HistoryLine(entries[i]))
			}
		},
	)
	info := widget.NewLabel("Loading…")
	load := func(text string) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			res, err := svc.History(ctx, text, 200)
			fyne.Do(func() {
				if err != nil {
					l.Error("history failed", applog.Err(err))
					info.SetText(StatusFor(err))
					return
				}
				entries = res
				info.SetText(fmt.Sprintf("%d cards", len(res)))
				list.Refresh()
			})
		}()
	}
	search := widget.NewEntry()
	search.SetPlaceHolder("Search quotes and authors")
	search.OnSubmitted = load
	content := container.NewBorder(search, info, nil, nil, list)
	d := dialog.NewCustom("History", "Close", content, w)
	d.Resize(fyne.NewSize(560, 420))
	d.Show()
	load("")
}

func installPack(w fyne.Window, dir string, status *widget.Label) {
	if strings.TrimSpace(dir) == "" {
		dialog.ShowInformation("Install Template Pack", "Set card.templates_dir in the config to install templates.", w)
		return
	}
	open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if ur == nil {
			return
		}
		path := ur.URI().Path()
		_ = ur.Close()
		n, ierr := templates.InstallPack(dir, path)
		if ierr != nil {
			dialog.ShowError(ierr, w)
			return
		}
		status.SetText(fmt.Sprintf("Installed %d templates.", n))
	}, w)
	open.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
	open.Show()
}

func exportPack(w fyne.Window, dir string, status *widget.Label) {
	if strings.TrimSpace(dir) == "" {
		dialog.ShowInformation("Export Template Pack", "No template directory is configured.", w)
		return
	}
	save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if uc == nil {
			return
		}
		outPath := uc.URI().Path()
		_ = uc.Close()
		if !strings.HasSuffix(strings.ToLower(outPath), ".zip") {
			outPath += ".zip"
		}
		n, err := templates.ExportPack(dir, outPath)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText(fmt.Sprintf("Exported %d templates to %s", n, outPath))
	}, w)
	save.SetFileName("quotecard-templates.zip")
	save.SetFilter(fstorage.NewExtensionFileFilter([]string{".zip"}))
	save.Show()
}
