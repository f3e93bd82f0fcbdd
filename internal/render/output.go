/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"quotecard/internal/domain"
)

// TimestampLayout is the time format embedded in card file names.
const TimestampLayout = "2006-01-02_15-04-05"

// maxCollisions bounds the suffix search for one timestamp.
const maxCollisions = 10000

// CardName returns <key>_<timestamp>.png, or <key>_<timestamp>-<n>.png for n > 0.
func CardName(key domain.ColorKey, now time.Time, n int) string {
	base := fmt.Sprintf("%s_%s", key, now.Format(TimestampLayout))
	if n > 0 {
		return fmt.Sprintf("%s-%d.png", base, n)
	}
	return base + ".png"
}

// SaveNewPNG writes img losslessly to a new file named by CardName in dir, creating
// dir as needed. Existing files are never overwritten: when the name is taken (two
// saves within the same second) the next -1, -2, ... suffix is tried. It returns the
// path written.
func SaveNewPNG(dir string, key domain.ColorKey, now time.Time, img image.Image) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.IOError{Op: "create output dir", Path: dir, Err: err}
	}
	for n := 0; n < maxCollisions; n++ {
		path := filepath.Join(dir, CardName(key, now, n))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", &domain.IOError{Op: "create png", Path: path, Err: err}
		}
		if err := writePNG(f, path, img); err != nil {
			return "", err
		}
		return path, nil
	}
	return "", &domain.IOError{Op: "create png", Path: filepath.Join(dir, CardName(key, now, 0)), Err: errors.New("too many cards with this timestamp")}
}

func writePNG(f *os.File, path string, img image.Image) error {
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return &domain.IOError{Op: "encode png", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &domain.IOError{Op: "close png", Path: path, Err: err}
	}
	return nil
}

// PDFPath returns the PDF sibling of a PNG card path.
func PDFPath(pngPath string) string {
	return strings.TrimSuffix(pngPath, filepath.Ext(pngPath)) + ".pdf"
}

// SavePDF embeds an already written PNG card into a single-page PDF at pdfPath.
// The page is sized to the image at 72 dpi, so one pixel maps to one point.
func SavePDF(pngPath, pdfPath string, size image.Point, title string) error {
	if size.X <= 0 || size.Y <= 0 {
		return &domain.IOError{Op: "write pdf", Path: pdfPath, Err: errors.New("empty image")}
	}
	w, h := float64(size.X), float64(size.Y)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetTitle(title, true)
	pdf.SetCreator("QuoteCard", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.ImageOptions(pngPath, 0, 0, w, h, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	if err := pdf.Error(); err != nil {
		return &domain.IOError{Op: "embed png", Path: pngPath, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(pdfPath), 0o755); err != nil {
		return &domain.IOError{Op: "create output dir", Path: filepath.Dir(pdfPath), Err: err}
	}
	if err := pdf.OutputFileAndClose(pdfPath); err != nil {
		return &domain.IOError{Op: "write pdf", Path: pdfPath, Err: err}
	}
	return nil
}
