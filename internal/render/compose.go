/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render letters a quote onto a template canvas and writes the result to disk.
package render

import (
	"fmt"
	"image"
	"image/draw"
	"log/slog"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"quotecard/internal/domain"
	applog "quotecard/internal/log"
	"quotecard/internal/textlayout"
)

// Options controls the lettering. Zero values select the builtin styles and the stock card geometry.
type Options struct {
	Body     textlayout.TextStyle
	Caption  textlayout.TextStyle
	Geometry *textlayout.CardGeometry // nil: DefaultGeometry(canvas width), lines spaced by Body.Leading
}

func (o Options) withDefaults(canvasWidth int) Options {
	if o.Body.Name == "" {
		o.Body, _ = textlayout.GetStyle(textlayout.StyleQuote)
	}
	if o.Caption.Name == "" {
		o.Caption, _ = textlayout.GetStyle(textlayout.StyleCaption)
	}
	if o.Geometry == nil {
		g := textlayout.DefaultGeometry(canvasWidth)
		g.LineSpacing = int(o.Body.Leading)
		o.Geometry = &g
	}
	return o
}

// Compose lays out req on canvas and draws every line in opaque black.
// The canvas is modified in place; the computed layout is returned for logging and tests.
func Compose(canvas *image.RGBA, req domain.RenderRequest, p textlayout.Provider, opt Options) (textlayout.CardLayout, error) {
	if canvas == nil {
		return textlayout.CardLayout{}, fmt.Errorf("compose: canvas is nil")
	}
	p = textlayout.NewFaceCache(p)
	b := canvas.Bounds()
	opt = opt.withDefaults(b.Dx())
	in := textlayout.CardText{
		Body:        req.NormalizedQuote(),
		Caption:     req.Caption(),
		BodyFont:    opt.Body.Font,
		CaptionFont: opt.Caption.Font,
	}
	lay, err := textlayout.LayoutCard(textlayout.NewFaceMeasurer(p), in, *opt.Geometry)
	if err != nil {
		return textlayout.CardLayout{}, fmt.Errorf("compose: %w", err)
	}
	for _, pl := range lay.Lines {
		drawLine(canvas, p, opt.Body.Font, pl)
	}
	drawLine(canvas, p, opt.Caption.Font, lay.Caption)
	applog.WithComponent("render").Debug("card composed",
		slog.Int("lines", len(lay.Lines)), slog.Int("caption_y", lay.Caption.Y), slog.String("font", opt.Body.Font.String()))
	return lay, nil
}

// drawLine draws pl with its top edge at pl.Y; the baseline sits at Y+ascent like in FaceMeasurer.
func drawLine(dst draw.Image, p textlayout.Provider, spec textlayout.FontSpec, pl textlayout.Placement) {
	if pl.Text == "" {
		return
	}
	face, met := p.Resolve(spec)
	if face == nil {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(pl.X, pl.Y+int(met.Ascent)),
	}
	d.DrawString(pl.Text)
}
