/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the data model shared by the renderer, the quote source,
// the history store and the UI shell.

import (
	"fmt"
	"math/rand"
	"strings"
)

// ColorKey selects one of the pre-authored background templates.
type ColorKey string

const (
	ColorLime   ColorKey = "lime"
	ColorOrange ColorKey = "orange"
	ColorPink   ColorKey = "pink"
	ColorPurple ColorKey = "purple"
	ColorYellow ColorKey = "yellow"
)

// DefaultColor is preselected in the form.
const DefaultColor = ColorLime

// UnknownAuthor is used when a generated quote carries no attribution.
const UnknownAuthor = "Unknown"

// ColorKeys returns all template keys in their display order.
func ColorKeys() []ColorKey {
	return []ColorKey{ColorLime, ColorOrange, ColorPink, ColorPurple, ColorYellow}
}

// ParseColorKey validates s against the known template keys (case-insensitive).
func ParseColorKey(s string) (ColorKey, error) {
	k := ColorKey(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range ColorKeys() {
		if c == k {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown template color %q (want one of %s)", s, joinKeys())
}

// RandomColorKey picks a template key using r; a nil r uses the global source.
func RandomColorKey(r *rand.Rand) ColorKey {
	keys := ColorKeys()
	if r == nil {
		return keys[rand.Intn(len(keys))]
	}
	return keys[r.Intn(len(keys))]
}

func joinKeys() string {
	parts := make([]string, 0, len(ColorKeys()))
	for _, k := range ColorKeys() {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, ", ")
}

// Color is an 8-bit RGBA color.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// Swatch returns the dominant color of a template, used for built-in solid backgrounds.
func (k ColorKey) Swatch() Color {
	switch k {
	case ColorOrange:
		return Color{R: 0xFF, G: 0xA7, B: 0x4F, A: 0xFF}
	case ColorPink:
		return Color{R: 0xF8, G: 0xB1, B: 0xCF, A: 0xFF}
	case ColorPurple:
		return Color{R: 0xC3, G: 0xA6, B: 0xF0, A: 0xFF}
	case ColorYellow:
		return Color{R: 0xFF, G: 0xE5, B: 0x6B, A: 0xFF}
	default:
		return Color{R: 0xC6, G: 0xEF, B: 0x7E, A: 0xFF}
	}
}

// Quote is a quote body and its attribution.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

// RenderRequest carries everything needed to compose one card. It is passed by
// value into the render pipeline; nothing in the pipeline reads form state.
type RenderRequest struct {
	QuoteText  string   `json:"quoteText"`
	AuthorText string   `json:"authorText"`
	ColorKey   ColorKey `json:"colorKey"`
}

// Caption returns the attribution line drawn under the quote.
func (r RenderRequest) Caption() string {
	return "- by " + r.AuthorText
}

// NormalizedQuote trims surrounding whitespace and unifies line endings.
func (r RenderRequest) NormalizedQuote() string {
	s := strings.ReplaceAll(r.QuoteText, "\r\n", "\n")
	return strings.TrimSpace(s)
}
