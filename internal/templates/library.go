/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package templates resolves background images for quote cards.
package templates

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"quotecard/internal/domain"
	applog "quotecard/internal/log"
)

// SolidSize is the edge length of the built-in backgrounds used when no template directory is configured.
const SolidSize = 1080

// Extensions tried, in order, when looking up a template for a color key.
var Extensions = []string{".jpg", ".jpeg", ".png"}

// Library loads backgrounds from Dir. An empty Dir means built-in solid canvases.
type Library struct {
	Dir string
}

// Path returns the first existing template file for key, or the canonical <key>.jpg path when none exists.
func (l Library) Path(key domain.ColorKey) string {
	for _, ext := range Extensions {
		p := filepath.Join(l.Dir, string(key)+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(l.Dir, string(key)+".jpg")
}

// Load returns a fresh, mutable RGBA copy of the template for key.
func (l Library) Load(key domain.ColorKey) (*image.RGBA, error) {
	if _, err := domain.ParseColorKey(string(key)); err != nil {
		return nil, &domain.ConfigError{Key: "color", Err: err}
	}
	if strings.TrimSpace(l.Dir) == "" {
		return Solid(key, SolidSize, SolidSize), nil
	}
	path := l.Path(key)
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.IOError{Op: "load template", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()
	src, format, err := image.Decode(f)
	if err != nil {
		return nil, &domain.IOError{Op: "decode template", Path: path, Err: err}
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	applog.WithComponent("templates").Debug("template loaded",
		slog.String("key", string(key)), slog.String("format", format),
		slog.Int("w", b.Dx()), slog.Int("h", b.Dy()))
	return dst, nil
}

// Available lists the color keys that have a template file in Dir.
// With an empty Dir every key is available.
func (l Library) Available() []domain.ColorKey {
	if strings.TrimSpace(l.Dir) == "" {
		return domain.ColorKeys()
	}
	var out []domain.ColorKey
	for _, k := range domain.ColorKeys() {
		if _, err := os.Stat(l.Path(k)); err == nil {
			out = append(out, k)
		}
	}
	return out
}

// Solid returns a w×h canvas filled with the key's swatch color.
func Solid(key domain.ColorKey, w, h int) *image.RGBA {
	sw := key.Swatch()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{R: sw.R, G: sw.G, B: sw.B, A: sw.A}}, image.Point{}, draw.Src)
	return img
}

// keyFromName maps a pack entry like "pink.JPG" or "bg/pink.png" to its color key.
func keyFromName(name string) (domain.ColorKey, string, error) {
	base := filepath.Base(filepath.FromSlash(name))
	ext := strings.ToLower(filepath.Ext(base))
	ok := false
	for _, e := range Extensions {
		if ext == e {
			ok = true
			break
		}
	}
	if !ok {
		return "", "", fmt.Errorf("unsupported extension %q", ext)
	}
	k, err := domain.ParseColorKey(strings.TrimSuffix(base, filepath.Ext(base)))
	if err != nil {
		return "", "", err
	}
	return k, ext, nil
}

var errNoDir = errors.New("template directory is required")
