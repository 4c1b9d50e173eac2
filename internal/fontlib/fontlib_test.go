package fontlib

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

func TestResolveFallsBackWhenEmpty(t *testing.T) {
	p := NewProvider()
	path, err := p.Resolve(nil, map[string]struct{}{})
	if err != nil {
		t.Fatalf("Resolve with no candidates must not fail, got: %v", err)
	}
	if path != FallbackName {
		t.Errorf("expected fallback %q, got %q", FallbackName, path)
	}
}

func TestResolveReportsNoFonts(t *testing.T) {
	p := NewProvider()
	exclude := map[string]struct{}{FallbackName: {}}
	_, err := p.Resolve(nil, exclude)
	if !errors.Is(err, ErrNoFonts) {
		t.Errorf("expected ErrNoFonts, got: %v", err)
	}
}

func TestResolveSkipsExcluded(t *testing.T) {
	p := NewProvider()
	candidates := []string{"a.ttf", "b.ttf"}
	exclude := map[string]struct{}{"a.ttf": {}}
	for i := 0; i < 20; i++ {
		path, err := p.Resolve(candidates, exclude)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if path != "b.ttf" {
			t.Fatalf("excluded font selected: %q", path)
		}
	}
}

func TestLoadFallback(t *testing.T) {
	h, err := Load(FallbackName, 51)
	if err != nil {
		t.Fatalf("embedded fallback must always load: %v", err)
	}
	defer h.Close()

	if h.Regular == nil {
		t.Fatal("no regular face")
	}
	if h.Bold == h.Regular {
		t.Error("fallback should carry a distinct bold face")
	}
	if h.Size != 51 {
		t.Errorf("expected size 51, got %d", h.Size)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.ttf"), 40)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got: %v", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.ttf")
	if err := os.WriteFile(path, []byte("definitely not a font"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path, 40)
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("expected *LoadError, got: %v", err)
	}
}

func TestFindBoldVariant(t *testing.T) {
	dir := t.TempDir()
	regular := filepath.Join(dir, "Example-Regular.ttf")
	bold := filepath.Join(dir, "Example--Bold.ttf")
	for _, p := range []string{regular, bold} {
		if err := os.WriteFile(p, goregular.TTF, 0644); err != nil {
			t.Fatal(err)
		}
	}

	if got := findBoldVariant(regular); got != bold {
		t.Errorf("expected %q, got %q", bold, got)
	}
}

func TestFindBoldVariantPlainSuffix(t *testing.T) {
	dir := t.TempDir()
	regular := filepath.Join(dir, "Example.ttf")
	bold := filepath.Join(dir, "Examplebd.ttf")
	if err := os.WriteFile(regular, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bold, gobold.TTF, 0644); err != nil {
		t.Fatal(err)
	}

	if got := findBoldVariant(regular); got != bold {
		t.Errorf("expected %q, got %q", bold, got)
	}
}

func TestFindBoldVariantAbsent(t *testing.T) {
	dir := t.TempDir()
	regular := filepath.Join(dir, "Lonely.ttf")
	if err := os.WriteFile(regular, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	if got := findBoldVariant(regular); got != "" {
		t.Errorf("expected no variant, got %q", got)
	}
}

func TestLoadUsesBoldVariant(t *testing.T) {
	dir := t.TempDir()
	regular := filepath.Join(dir, "GoFont-Regular.ttf")
	bold := filepath.Join(dir, "GoFont--Bold.ttf")
	if err := os.WriteFile(regular, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bold, gobold.TTF, 0644); err != nil {
		t.Fatal(err)
	}

	h, err := Load(regular, 40)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer h.Close()
	if h.Bold == h.Regular {
		t.Error("bold variant on disk was not picked up")
	}
}

func TestListFontFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]bool{
		"a.ttf":      true,
		"b.OTF":      true,
		"readme.txt": false,
		"c.woff":     false,
	}
	for name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := ListFontFiles(dir)
	if err != nil {
		t.Fatalf("ListFontFiles: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("expected 2 font files, got %d: %v", len(paths), paths)
	}
}

func TestListFontFilesMissingDir(t *testing.T) {
	paths, err := ListFontFiles(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir must not be an error: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("expected no paths, got %v", paths)
	}
}
