/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "fmt"

// CardGeometry holds the fixed pixel constants of a quote card.
type CardGeometry struct {
	CanvasWidth int
	SideMargin  int // total horizontal margin; the wrap width is CanvasWidth-SideMargin
	StartY      int
	LineSpacing int
	CaptionGap  int
}

// DefaultGeometry returns the lettering constants used by the stock templates.
func DefaultGeometry(canvasWidth int) CardGeometry {
	return CardGeometry{
		CanvasWidth: canvasWidth,
		SideMargin:  150,
		StartY:      470,
		LineSpacing: 10,
		CaptionGap:  40,
	}
}

// MaxLineWidth is the width quote lines are wrapped to.
func (g CardGeometry) MaxLineWidth() int { return g.CanvasWidth - g.SideMargin }

// CardText is the text content of a card and the fonts to set it in.
type CardText struct {
	Body        string
	Caption     string
	BodyFont    FontSpec
	CaptionFont FontSpec
}

// CardLayout is the result of laying out a card: wrapped body lines followed by the caption.
type CardLayout struct {
	Lines   []Placement
	Caption Placement
}

// All returns body lines and caption in drawing order.
func (l CardLayout) All() []Placement {
	out := make([]Placement, 0, len(l.Lines)+1)
	out = append(out, l.Lines...)
	return append(out, l.Caption)
}

// LayoutCard wraps the body, centers it and appends the caption below it.
func LayoutCard(m Measurer, in CardText, g CardGeometry) (CardLayout, error) {
	lines, err := Wrap(m, in.Body, in.BodyFont, g.MaxLineWidth())
	if err != nil {
		return CardLayout{}, fmt.Errorf("layout card: %w", err)
	}
	placed, cursor, err := PlaceCentered(m, lines, in.BodyFont, g.CanvasWidth, g.StartY, g.LineSpacing)
	if err != nil {
		return CardLayout{}, fmt.Errorf("layout card: %w", err)
	}
	caption, err := AppendCaption(m, cursor, g.CaptionGap, in.Caption, in.CaptionFont, g.CanvasWidth)
	if err != nil {
		return CardLayout{}, fmt.Errorf("layout card: %w", err)
	}
	return CardLayout{Lines: placed, Caption: caption}, nil
}
