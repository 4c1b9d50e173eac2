package fontlib

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FallbackName identifies the embedded sans-serif fallback used when no
// candidate font file is usable.
const FallbackName = "builtin:go-regular"

// ErrNoFonts is returned when every candidate, including the embedded
// fallback, has been excluded.
var ErrNoFonts = errors.New("no usable fonts available")

// LoadError marks a font file that could not be read or parsed. The caller
// is expected to retry with a different candidate.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load font %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Handle is a font loaded at a specific pixel size together with its bold
// variant. The bold face falls back to the regular face when no variant
// file is found. A handle lives for a single frame-generation attempt.
type Handle struct {
	Path    string
	Size    int
	Regular font.Face
	Bold    font.Face
}

// Close releases both faces.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	var first error
	if h.Regular != nil {
		first = h.Regular.Close()
	}
	if h.Bold != nil && h.Bold != h.Regular {
		if err := h.Bold.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Provider selects candidate fonts for frame generation.
type Provider struct {
	rng *rand.Rand
}

func NewProvider() *Provider {
	return &Provider{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ListFontFiles collects .ttf/.otf paths from dir. A missing directory is
// not an error: the embedded fallback still applies.
func ListFontFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".ttf" || ext == ".otf" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}

// Resolve picks a uniformly random candidate not present in exclude.
// With no candidates left it degrades to the embedded fallback, and only
// when the fallback itself is excluded reports ErrNoFonts.
func (p *Provider) Resolve(candidates []string, exclude map[string]struct{}) (string, error) {
	available := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if _, bad := exclude[c]; !bad {
			available = append(available, c)
		}
	}
	if len(available) == 0 {
		if _, bad := exclude[FallbackName]; bad {
			return "", ErrNoFonts
		}
		return FallbackName, nil
	}
	return available[p.rng.Intn(len(available))], nil
}

// Load opens the font at path with faces sized to size pixels and probes
// for a bold variant next to it.
func Load(path string, size int) (*Handle, error) {
	if path == FallbackName {
		return loadFallback(size)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	regular, err := newFace(data, size)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	h := &Handle{Path: path, Size: size, Regular: regular, Bold: regular}
	if boldPath := findBoldVariant(path); boldPath != "" {
		if boldData, err := os.ReadFile(boldPath); err == nil {
			if bold, err := newFace(boldData, size); err == nil {
				h.Bold = bold
			}
		}
	}
	return h, nil
}

func loadFallback(size int) (*Handle, error) {
	regular, err := newFace(goregular.TTF, size)
	if err != nil {
		return nil, &LoadError{Path: FallbackName, Err: err}
	}
	h := &Handle{Path: FallbackName, Size: size, Regular: regular, Bold: regular}
	if bold, err := newFace(gobold.TTF, size); err == nil {
		h.Bold = bold
	}
	return h, nil
}

func newFace(data []byte, size int) (font.Face, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

var boldSuffixes = []string{"bd", "-Bold", "b", "_Bold", " Bold"}

// findBoldVariant probes naming-convention suffixes against the filesystem
// and returns the first existing variant path. Best effort: an empty result
// means the regular face doubles as bold.
func findBoldVariant(path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	stripped := strings.ReplaceAll(strings.ReplaceAll(base, "Regular", ""), "regular", "")

	for _, suffix := range boldSuffixes {
		for _, b := range []string{stripped, base} {
			candidate := b + suffix + ext
			if candidate == path {
				continue
			}
			if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
				return candidate
			}
		}
	}
	return ""
}
