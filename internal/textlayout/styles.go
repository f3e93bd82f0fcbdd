/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// TextStyle is a named font preset. Leading is the extra gap in pixels between
// wrapped lines; the renderer spaces quote lines by the body style's Leading.
type TextStyle struct {
	Name    string
	Font    FontSpec
	Leading float32
}

// Style names used by the card renderer.
const (
	StyleQuote   = "Quote"
	StyleCaption = "Caption"
)

var builtinStyles = map[string]TextStyle{
	// Both lines use the same face; the stock templates are lettered at 50px.
	StyleQuote: {
		Name:    StyleQuote,
		Font:    FontSpec{Family: "Arial", SizePt: 50, Weight: 400},
		Leading: 10,
	},
	StyleCaption: {
		Name: StyleCaption,
		Font: FontSpec{Family: "Arial", SizePt: 50, Weight: 400},
	},
}

// GetStyle returns a builtin style preset by name. The second return value is false if
// the style is not found.
func GetStyle(name string) (TextStyle, bool) { s, ok := builtinStyles[name]; return s, ok }

// WithFamily returns a copy of the style using family, keeping size and weight.
func (s TextStyle) WithFamily(family string) TextStyle {
	if family != "" {
		s.Font.Family = family
	}
	return s
}

// WithSize returns a copy of the style at sizePt; non-positive sizes are ignored.
func (s TextStyle) WithSize(sizePt float32) TextStyle {
	if sizePt > 0 {
		s.Font.SizePt = sizePt
	}
	return s
}
