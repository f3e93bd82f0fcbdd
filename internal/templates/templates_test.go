/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package templates

import (
	"archive/zip"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"quotecard/internal/domain"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
}

func TestLoadSolidWhenNoDir(t *testing.T) {
	img, err := Library{}.Load(domain.ColorPink)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Bounds().Dx() != SolidSize || img.Bounds().Dy() != SolidSize {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	sw := domain.ColorPink.Swatch()
	if got := img.RGBAAt(10, 10); got.R != sw.R || got.G != sw.G || got.B != sw.B {
		t.Fatalf("pixel = %v, want swatch %v", got, sw)
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "orange.png"), 40, 30, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	img, err := Library{Dir: dir}.Load(domain.ColorOrange)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 40, 30) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(5, 5); got != (color.RGBA{R: 1, G: 2, B: 3, A: 255}) {
		t.Fatalf("pixel = %v", got)
	}
	// Each Load returns an independent canvas.
	img.SetRGBA(0, 0, color.RGBA{})
	again, _ := Library{Dir: dir}.Load(domain.ColorOrange)
	if again.RGBAAt(0, 0).A != 255 {
		t.Fatalf("template cache leaked a mutation")
	}
}

func TestLoadMissingIsIOError(t *testing.T) {
	_, err := Library{Dir: t.TempDir()}.Load(domain.ColorLime)
	var ioe *domain.IOError
	if !errors.As(err, &ioe) {
		t.Fatalf("want IOError, got %v", err)
	}
	if filepath.Base(ioe.Path) != "lime.jpg" {
		t.Fatalf("path = %q", ioe.Path)
	}
}

func TestLoadCorruptIsIOError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "yellow.jpg"), []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Library{Dir: dir}.Load(domain.ColorYellow)
	if domain.Kind(err) != "io" {
		t.Fatalf("want io error, got %v", err)
	}
}

func TestLoadUnknownColor(t *testing.T) {
	_, err := Library{}.Load("teal")
	if domain.Kind(err) != "config" {
		t.Fatalf("want config error, got %v", err)
	}
}

func TestInstallAndExportPack(t *testing.T) {
	src := t.TempDir()
	zipPath := filepath.Join(src, "pack.zip")
	zf, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(zf)
	bg := filepath.Join(src, "bg.png")
	writePNG(t, bg, 4, 4, color.White)
	data, _ := os.ReadFile(bg)
	for _, name := range []string{"backgrounds/Lime.PNG", "purple.jpg", "../../evil/orange.png", "readme.txt", "teal.png"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = w.Write(data)
	}
	_ = zw.Close()
	_ = zf.Close()

	dest := filepath.Join(t.TempDir(), "templates")
	n, err := InstallPack(dest, zipPath)
	if err != nil {
		t.Fatalf("InstallPack: %v", err)
	}
	if n != 3 {
		t.Fatalf("installed %d, want 3", n)
	}
	for _, f := range []string{"lime.png", "purple.jpg", "orange.png"} {
		if _, err := os.Stat(filepath.Join(dest, f)); err != nil {
			t.Fatalf("missing %s: %v", f, err)
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dest), "evil")); err == nil {
		t.Fatalf("zip entry escaped the target dir")
	}
	// Re-install skips existing files.
	n, err = InstallPack(dest, zipPath)
	if err != nil || n != 0 {
		t.Fatalf("second install: n=%d err=%v", n, err)
	}

	got := Library{Dir: dest}.Available()
	if len(got) != 3 {
		t.Fatalf("Available() = %v", got)
	}

	out := filepath.Join(t.TempDir(), "out", "export.zip")
	added, err := ExportPack(dest, out)
	if err != nil || added != 3 {
		t.Fatalf("ExportPack: added=%d err=%v", added, err)
	}
	r, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer func() { _ = r.Close() }()
	if len(r.File) != 4 {
		t.Fatalf("export entries = %d, want 4 (manifest + 3)", len(r.File))
	}
}

func TestInstallPackRequiresArgs(t *testing.T) {
	if _, err := InstallPack("", "x.zip"); err == nil {
		t.Fatal("expected error for empty dir")
	}
	if _, err := InstallPack(t.TempDir(), ""); err == nil {
		t.Fatal("expected error for empty zip path")
	}
	if _, err := InstallPack(t.TempDir(), filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Fatal("expected error for missing zip")
	}
}
