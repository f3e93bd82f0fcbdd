/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Line breaking and centered placement for quote cards.
// All measurement goes through the Measurer interface so the algorithms stay
// deterministic and testable with fixed-width metrics.

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

var (
	// ErrInvalidWidth is returned when a max width or canvas width is not positive.
	ErrInvalidWidth = errors.New("width must be positive")
	// ErrInvalidSpacing is returned for negative line spacing or caption gaps.
	ErrInvalidSpacing = errors.New("spacing must not be negative")
	// ErrNoMeasurer is returned when a nil Measurer is supplied.
	ErrNoMeasurer = errors.New("measurer is nil")
)

// FontSpec describes a requested font. The layout engine never inspects it;
// it is only handed to the Measurer.
type FontSpec struct {
	Family string // logical family name
	SizePt float32
	Weight int // 100..900
	Italic bool
}

func (f FontSpec) String() string {
	s := fmt.Sprintf("%s %gpt w%d", f.Family, f.SizePt, f.Weight)
	if f.Italic {
		s += " italic"
	}
	return s
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent float32
}

// Size is a measured extent in device pixels.
type Size struct {
	Width, Height int
}

// Measurer returns the rendered pixel size of a single line of text.
// Implementations must return the same result for the same input during a render.
type Measurer interface {
	Measure(text string, spec FontSpec) (Size, error)
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	return f, metricsOf(f)
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float32(m.Ascent.Round()),
		Descent: float32(m.Descent.Round()),
	}
}

// FaceMeasurer measures strings with the faces resolved by Provider.
// The height of a line is ascent+descent; drawing code uses the same convention
// by placing the baseline at y+ascent.
type FaceMeasurer struct{ Provider Provider }

func NewFaceMeasurer(provider Provider) FaceMeasurer { return FaceMeasurer{Provider: provider} }

func (m FaceMeasurer) Measure(text string, spec FontSpec) (Size, error) {
	p := m.Provider
	if p == nil {
		p = BasicProvider{}
	}
	face, met := p.Resolve(spec)
	if face == nil {
		return Size{}, fmt.Errorf("no face for %s", spec)
	}
	d := &font.Drawer{Face: face}
	return Size{
		Width:  d.MeasureString(text).Ceil(),
		Height: int(met.Ascent + met.Descent),
	}, nil
}

// Wrap breaks text into lines no wider than maxWidth. Explicit '\n' breaks are
// kept as hard breaks; words are never split, so a single word wider than
// maxWidth gets a line of its own. Empty hard-break segments produce no line.
func Wrap(m Measurer, text string, spec FontSpec, maxWidth int) ([]string, error) {
	groups, err := WrapSegments(m, text, spec, maxWidth)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(groups))
	for _, g := range groups {
		lines = append(lines, g...)
	}
	return lines, nil
}

// WrapSegments is Wrap but keeps the lines of each hard-break segment in their own group.
// Segments without tokens yield an empty group.
func WrapSegments(m Measurer, text string, spec FontSpec, maxWidth int) ([][]string, error) {
	if m == nil {
		return nil, ErrNoMeasurer
	}
	if maxWidth <= 0 {
		return nil, fmt.Errorf("wrap: max width %d: %w", maxWidth, ErrInvalidWidth)
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	segments := strings.Split(text, "\n")
	groups := make([][]string, 0, len(segments))
	for _, seg := range segments {
		var lines []string
		current := ""
		for _, word := range strings.Fields(seg) {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			sz, err := m.Measure(candidate, spec)
			if err != nil {
				return nil, fmt.Errorf("measure %q: %w", candidate, err)
			}
			if sz.Width <= maxWidth {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
			}
			current = word
		}
		if current != "" {
			lines = append(lines, current)
		}
		groups = append(groups, lines)
	}
	return groups, nil
}

// Placement is a line of text with its top-left origin on the canvas.
type Placement struct {
	Text   string
	X, Y   int
	Width  int
	Height int
}

// PlaceCentered centers each line horizontally in canvasWidth, stacking them
// from startY downward. It returns the placements and the y cursor after the
// last line (last y + height + lineSpacing), which is where a caption gap starts.
func PlaceCentered(m Measurer, lines []string, spec FontSpec, canvasWidth, startY, lineSpacing int) ([]Placement, int, error) {
	if m == nil {
		return nil, startY, ErrNoMeasurer
	}
	if canvasWidth <= 0 {
		return nil, startY, fmt.Errorf("place: canvas width %d: %w", canvasWidth, ErrInvalidWidth)
	}
	if lineSpacing < 0 {
		return nil, startY, fmt.Errorf("place: line spacing %d: %w", lineSpacing, ErrInvalidSpacing)
	}
	out := make([]Placement, 0, len(lines))
	y := startY
	for _, line := range lines {
		sz, err := m.Measure(line, spec)
		if err != nil {
			return nil, startY, fmt.Errorf("measure %q: %w", line, err)
		}
		out = append(out, Placement{Text: line, X: centerX(canvasWidth, sz.Width), Y: y, Width: sz.Width, Height: sz.Height})
		y += sz.Height + lineSpacing
	}
	return out, y, nil
}

// AppendCaption places caption centered at cursorY+gapBeforeCaption.
func AppendCaption(m Measurer, cursorY, gapBeforeCaption int, caption string, spec FontSpec, canvasWidth int) (Placement, error) {
	if m == nil {
		return Placement{}, ErrNoMeasurer
	}
	if canvasWidth <= 0 {
		return Placement{}, fmt.Errorf("caption: canvas width %d: %w", canvasWidth, ErrInvalidWidth)
	}
	if gapBeforeCaption < 0 {
		return Placement{}, fmt.Errorf("caption: gap %d: %w", gapBeforeCaption, ErrInvalidSpacing)
	}
	sz, err := m.Measure(caption, spec)
	if err != nil {
		return Placement{}, fmt.Errorf("measure %q: %w", caption, err)
	}
	return Placement{
		Text:   caption,
		X:      centerX(canvasWidth, sz.Width),
		Y:      cursorY + gapBeforeCaption,
		Width:  sz.Width,
		Height: sz.Height,
	}, nil
}

// centerX floors (canvasWidth-width)/2, also when the line is wider than the canvas.
func centerX(canvasWidth, width int) int {
	d := canvasWidth - width
	if d >= 0 {
		return d / 2
	}
	return -((-d + 1) / 2)
}
