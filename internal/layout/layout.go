package layout

import (
	"fmt"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/AmiXDme/text-match-cut/internal/fontlib"
)

// DrawError marks a loaded font whose metrics are unusable for layout or
// drawing. Recoverable: the caller retries with a different font.
type DrawError struct {
	Reason string
	Err    error
}

func (e *DrawError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("font draw failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("font draw failed: %s", e.Reason)
}

func (e *DrawError) Unwrap() error { return e.Err }

// Geometry holds the pixel placement for one (snippet, font, size)
// combination. TargetX/TargetY is the top-left of the bold highlight's
// bounding box and is the same for every frame of a video: it anchors the
// match-cut illusion.
type Geometry struct {
	CanvasW, CanvasH int

	LineHeight  float64
	BlockStartY float64

	TargetX    float64
	TargetY    float64
	HighlightW float64 // bold advance width
	HighlightH float64 // bold tight bounding-box height

	// Offsets from the bold bounding-box top-left to the drawing dot.
	BoldDotX float64
	BoldDotY float64

	Ascent float64 // regular-face ascent, anchors line tops

	LineX []float64 // background x per line (full-string rendition)

	HighlightFound    bool
	Prefix, Suffix    string
	PrefixW           float64 // prefix width in the regular face
	HighlightWRegular float64 // phrase width in the regular face
}

// LineTop returns the top y of line i in the background block.
func (g *Geometry) LineTop(i int) float64 {
	return g.BlockStartY + float64(i)*g.LineHeight
}

func toPx(v fixed.Int26_6) float64 { return float64(v) / 64.0 }

// Compute lays out the snippet so that the bold rendition of phrase is
// pixel-centered on the canvas regardless of line count or which line
// carries it.
func Compute(lines []string, highlightIndex int, phrase string, h *fontlib.Handle, canvasW, canvasH int, spread float64) (*Geometry, error) {
	if highlightIndex < 0 || highlightIndex >= len(lines) {
		return nil, &DrawError{Reason: fmt.Sprintf("highlight index %d out of range for %d lines", highlightIndex, len(lines))}
	}
	fontSize := float64(h.Size)

	// Line height from regular-face metrics, with a bounding-box fallback
	// and a floor against degenerate cramped layouts.
	metrics := h.Regular.Metrics()
	lineHeight := (toPx(metrics.Ascent) + toPx(metrics.Descent)) * spread
	if lineHeight <= 0 {
		bounds, _ := font.BoundString(h.Regular, "Ay")
		lineHeight = toPx(bounds.Max.Y-bounds.Min.Y) * spread
	}
	if lineHeight <= fontSize*0.8 {
		lineHeight = fontSize * 1.2 * spread
	}

	// Bold measurement of the highlight phrase. Non-positive results get a
	// character-count estimate; only a still-degenerate box is fatal for
	// this font.
	boldBounds, boldAdvance := font.BoundString(h.Bold, phrase)
	highlightW := toPx(boldAdvance)
	highlightH := toPx(boldBounds.Max.Y - boldBounds.Min.Y)
	boldDotX := -toPx(boldBounds.Min.X)
	boldDotY := -toPx(boldBounds.Min.Y)
	if highlightW <= 0 || highlightH <= 0 {
		if highlightH <= 0 {
			highlightH = fontSize * 1.1
			boldDotY = toPx(h.Bold.Metrics().Ascent)
		}
		if highlightW <= 0 {
			highlightW = float64(len(phrase)) * fontSize * 0.6
			boldDotX = 0
		}
	}
	if highlightW <= 0 || highlightH <= 0 {
		return nil, &DrawError{Reason: "highlight measurement is degenerate even after fallback"}
	}

	g := &Geometry{
		CanvasW:    canvasW,
		CanvasH:    canvasH,
		LineHeight: lineHeight,
		TargetX:    (float64(canvasW) - highlightW) / 2,
		TargetY:    (float64(canvasH) - highlightH) / 2,
		HighlightW: highlightW,
		HighlightH: highlightH,
		BoldDotX:   boldDotX,
		BoldDotY:   boldDotY,
		Ascent:     toPx(metrics.Ascent),
		LineX:      make([]float64, len(lines)),
	}
	g.BlockStartY = g.TargetY - float64(highlightIndex)*lineHeight

	// Split the designated line around the phrase. A missing phrase is
	// tolerated: the line is centered like any other and the overlay will
	// sit disconnected from its background.
	full := lines[highlightIndex]
	if at := strings.Index(full, phrase); at >= 0 {
		g.HighlightFound = true
		g.Prefix = full[:at]
		g.Suffix = full[at+len(phrase):]
		g.PrefixW = toPx(font.MeasureString(h.Regular, g.Prefix))
		g.HighlightWRegular = toPx(font.MeasureString(h.Regular, phrase))
	}

	for i, line := range lines {
		if i == highlightIndex && g.HighlightFound {
			// Full-string start such that the regular prefix ends exactly
			// at the bold target x.
			g.LineX[i] = g.TargetX - g.PrefixW
			continue
		}
		g.LineX[i] = (float64(canvasW) - toPx(font.MeasureString(h.Regular, line))) / 2
	}
	return g, nil
}
