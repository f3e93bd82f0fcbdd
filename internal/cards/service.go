/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package cards implements the three user actions of the quote card generator:
// generate a quote, save a card, and do both with a random background.
package cards

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"quotecard/internal/domain"
	applog "quotecard/internal/log"
	"quotecard/internal/quotesource"
	"quotecard/internal/render"
	"quotecard/internal/storage"
	"quotecard/internal/textlayout"
)

// TemplateLoader returns a fresh canvas for a background color.
type TemplateLoader interface {
	Load(key domain.ColorKey) (*image.RGBA, error)
}

// Options configures where and how cards are written.
type Options struct {
	OutputDir string
	PDF       bool
	Render    render.Options
	Now       func() time.Time // defaults to time.Now
}

// Result describes a saved card.
type Result struct {
	Quote     domain.Quote
	Color     domain.ColorKey
	PNGPath   string
	PDFPath   string
	Layout    textlayout.CardLayout
	HistoryID int64 // 0 when history is disabled or recording failed
}

// Service wires the quote source, templates, fonts and history together.
// It holds no per-request state and may be shared between goroutines.
type Service struct {
	quotes    quotesource.Client
	templates TemplateLoader
	fonts     textlayout.Provider
	history   storage.Store
	opt       Options
	log       *slog.Logger
}

// New creates a Service. quotes and history may be nil; fonts defaults to the embedded Go font.
func New(quotes quotesource.Client, templates TemplateLoader, fonts textlayout.Provider, history storage.Store, opt Options) *Service {
	if fonts == nil {
		fonts = textlayout.OTProvider{Lib: textlayout.NewFontLibrary()}
	}
	if strings.TrimSpace(opt.OutputDir) == "" {
		opt.OutputDir = "output"
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &Service{
		quotes:    quotes,
		templates: templates,
		fonts:     fonts,
		history:   history,
		opt:       opt,
		log:       applog.WithComponent("cards"),
	}
}

// WithQuoteSource returns a Service that asks quotes for new quotes and shares
// everything else, including the history store, with s.
func (s *Service) WithQuoteSource(quotes quotesource.Client) *Service {
	c := *s
	c.quotes = quotes
	return &c
}

// Close releases the history store. Services derived with WithQuoteSource share it,
// so close only the last one in use.
func (s *Service) Close() error {
	if s.history == nil {
		return nil
	}
	return s.history.Close()
}

// OutputDir returns the directory cards are written to.
func (s *Service) OutputDir() string { return s.opt.OutputDir }

// GenerateQuote asks the quote source for a quote and splits it into text and author.
func (s *Service) GenerateQuote(ctx context.Context) (domain.Quote, error) {
	l := applog.WithOperation(s.log, "generate")
	if s.quotes == nil {
		return domain.Quote{}, &domain.ConfigError{Key: "api_key", Err: domain.ErrMissingAPIKey}
	}
	raw, err := s.quotes.RequestQuote(ctx)
	if err != nil {
		l.Warn("quote request failed", applog.Err(err))
		return domain.Quote{}, err
	}
	q := quotesource.Split(raw)
	if q.Text == "" {
		err := &domain.UpstreamError{Op: "parse reply", Err: fmt.Errorf("unparseable quote %q", raw)}
		l.Warn("quote reply unusable", applog.Err(err))
		return domain.Quote{}, err
	}
	l.Info("quote generated", slog.Int("chars", len(q.Text)), slog.String("author", q.Author))
	return q, nil
}

// SaveCard renders req onto its background and writes the PNG (and PDF when enabled).
// History failures are logged and do not fail the save.
func (s *Service) SaveCard(ctx context.Context, req domain.RenderRequest) (Result, error) {
	l := applog.WithOperation(s.log, "save")
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	key := req.ColorKey
	if key == "" {
		key = domain.DefaultColor
	}
	key, err := domain.ParseColorKey(string(key))
	if err != nil {
		return Result{}, &domain.ConfigError{Key: "color", Err: err}
	}
	req.ColorKey = key
	if s.templates == nil {
		return Result{}, &domain.ConfigError{Key: "card.templates_dir", Err: errors.New("no template library")}
	}
	canvas, err := s.templates.Load(key)
	if err != nil {
		l.Error("template load failed", applog.Err(err), slog.String("color", string(key)))
		return Result{}, err
	}
	lay, err := render.Compose(canvas, req, s.fonts, s.opt.Render)
	if err != nil {
		l.Error("compose failed", applog.Err(err))
		return Result{}, err
	}
	res := Result{
		Quote:  domain.Quote{Text: req.NormalizedQuote(), Author: req.AuthorText},
		Color:  key,
		Layout: lay,
	}
	if res.PNGPath, err = render.SaveNewPNG(s.opt.OutputDir, key, s.opt.Now(), canvas); err != nil {
		l.Error("save png failed", applog.Err(err))
		return Result{}, err
	}
	if s.opt.PDF {
		pdfPath := render.PDFPath(res.PNGPath)
		if err := render.SavePDF(res.PNGPath, pdfPath, canvas.Bounds().Size(), req.NormalizedQuote()+" "+req.Caption()); err != nil {
			l.Error("save pdf failed", applog.Err(err))
			return res, err
		}
		res.PDFPath = pdfPath
	}
	if s.history != nil {
		id, err := s.history.Record(ctx, storage.Entry{
			CreatedAt: s.opt.Now(),
			Color:     string(key),
			Quote:     res.Quote.Text,
			Author:    res.Quote.Author,
			PNGPath:   res.PNGPath,
			PDFPath:   res.PDFPath,
		})
		if err != nil {
			l.Warn("history record failed", applog.Err(err))
		} else {
			res.HistoryID = id
		}
	}
	l.Info("card saved", slog.String("path", res.PNGPath), slog.String("color", string(key)), slog.Int("lines", len(lay.Lines)))
	return res, nil
}

// RandomCard generates a quote and saves it on a randomly chosen background.
// A nil rnd uses the shared random source.
func (s *Service) RandomCard(ctx context.Context, rnd *rand.Rand) (Result, error) {
	q, err := s.GenerateQuote(ctx)
	if err != nil {
		return Result{}, err
	}
	key := domain.RandomColorKey(rnd)
	return s.SaveCard(ctx, domain.RenderRequest{QuoteText: q.Text, AuthorText: q.Author, ColorKey: key})
}

// History returns the newest saved cards, or those matching text when it is non-empty.
func (s *Service) History(ctx context.Context, text string, limit int) ([]storage.Entry, error) {
	if s.history == nil {
		return nil, nil
	}
	if strings.TrimSpace(text) == "" {
		return s.history.List(ctx, limit)
	}
	return s.history.Search(ctx, text, limit)
}
