package compositor

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/AmiXDme/text-match-cut/internal/fontlib"
	"github.com/AmiXDme/text-match-cut/internal/layout"
)

var testColors = Colors{
	Text:       color.RGBA{A: 255},
	Background: color.RGBA{R: 255, G: 255, B: 255, A: 255},
	Highlight:  color.RGBA{R: 255, G: 255, B: 0, A: 255},
}

func testScene(t *testing.T, size, w, h int) ([]string, int, string, *fontlib.Handle, *layout.Geometry) {
	t.Helper()
	handle, err := fontlib.Load(fontlib.FallbackName, size)
	if err != nil {
		t.Fatalf("loading embedded font: %v", err)
	}
	t.Cleanup(func() { handle.Close() })

	phrase := "Mother of Dragons"
	lines := []string{
		"ashes drifted over the bay",
		"silent banners fell at dawn",
		"khaleesi of the great grass sea",
		"they knelt before the " + phrase + " once more",
		"fire and blood answered them",
		"the unburnt walked out again",
		"chains broke across the cities",
		"her shadow crossed the walls",
	}
	g, err := layout.Compute(lines, 3, phrase, handle, w, h, 1.5)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	return lines, 3, phrase, handle, g
}

// blur_type none and gaussian with radius 0 must be pixel-identical:
// radius 0 is a no-op.
func TestZeroRadiusGaussianIsNoop(t *testing.T) {
	lines, idx, phrase, handle, g := testScene(t, 40, 512, 512)

	plain, err := Composite(lines, idx, phrase, handle, g, testColors, BlurConfig{Type: "none"})
	if err != nil {
		t.Fatal(err)
	}
	zero, err := Composite(lines, idx, phrase, handle, g, testColors, BlurConfig{Type: "gaussian", Radius: 0})
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(plain.Pix, zero.Pix) {
		t.Error("gaussian radius 0 must equal no blur exactly")
	}
}

func TestFrameDimensions(t *testing.T) {
	lines, idx, phrase, handle, g := testScene(t, 40, 512, 384)
	frame, err := Composite(lines, idx, phrase, handle, g, testColors, BlurConfig{Type: "gaussian", Radius: 4})
	if err != nil {
		t.Fatal(err)
	}
	if frame.Bounds().Dx() != 512 || frame.Bounds().Dy() != 384 {
		t.Errorf("frame is %v, expected 512x384", frame.Bounds())
	}
}

// highlightRectCenter locates the highlight-colored region of a frame.
func highlightRectCenter(frame *image.RGBA, highlight color.RGBA) (float64, float64, bool) {
	minX, minY := frame.Bounds().Max.X, frame.Bounds().Max.Y
	maxX, maxY := -1, -1
	for y := frame.Bounds().Min.Y; y < frame.Bounds().Max.Y; y++ {
		for x := frame.Bounds().Min.X; x < frame.Bounds().Max.X; x++ {
			if frame.RGBAAt(x, y) == highlight {
				if x < minX {
					minX = x
				}
				if y < minY {
					minY = y
				}
				if x > maxX {
					maxX = x
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < 0 {
		return 0, 0, false
	}
	return float64(minX+maxX) / 2, float64(minY+maxY) / 2, true
}

// The overlay is drawn last and unconditionally: for every blur policy the
// highlight rectangle must sit centered on the canvas.
func TestOverlayCenteredForAllBlurModes(t *testing.T) {
	lines, idx, phrase, handle, g := testScene(t, 40, 512, 512)

	for _, blur := range []BlurConfig{
		{Type: "none"},
		{Type: "gaussian", Radius: 4},
		{Type: "radial", Radius: 4, SharpFactor: 0.3},
	} {
		frame, err := Composite(lines, idx, phrase, handle, g, testColors, blur)
		if err != nil {
			t.Fatalf("%s: %v", blur.Type, err)
		}
		cx, cy, ok := highlightRectCenter(frame, testColors.Highlight)
		if !ok {
			t.Fatalf("%s: no highlight rectangle found", blur.Type)
		}
		if math.Abs(cx-256) > 1.5 || math.Abs(cy-256) > 1.5 {
			t.Errorf("%s: highlight rect center (%.1f, %.1f), expected (256, 256)", blur.Type, cx, cy)
		}
	}
}

// Different faces shift the glyphs but not the highlight rectangle center.
func TestOverlayPlacementStableAcrossFonts(t *testing.T) {
	phrase := "Mother of Dragons"
	lines := []string{
		"first line of filler text",
		"the crowd hailed the " + phrase + " loudly",
		"third line of filler text",
	}

	var centers [][2]float64
	for _, size := range []int{36, 44} {
		handle, err := fontlib.Load(fontlib.FallbackName, size)
		if err != nil {
			t.Fatal(err)
		}
		g, err := layout.Compute(lines, 1, phrase, handle, 640, 640, 1.5)
		if err != nil {
			t.Fatal(err)
		}
		frame, err := Composite(lines, 1, phrase, handle, g, testColors, BlurConfig{Type: "none"})
		handle.Close()
		if err != nil {
			t.Fatal(err)
		}
		cx, cy, ok := highlightRectCenter(frame, testColors.Highlight)
		if !ok {
			t.Fatal("no highlight rectangle found")
		}
		centers = append(centers, [2]float64{cx, cy})
	}

	if math.Abs(centers[0][0]-centers[1][0]) > 1.5 || math.Abs(centers[0][1]-centers[1][1]) > 1.5 {
		t.Errorf("rect centers moved between fonts: %v vs %v", centers[0], centers[1])
	}
}

// The radial composite keeps the highlight line sharp while blurring the
// canvas edges: an edge row that carried text must differ from the base
// rendition, the overlay region must not.
func TestRadialBlurPreservesCenter(t *testing.T) {
	lines, idx, phrase, handle, g := testScene(t, 40, 512, 512)

	base, err := Composite(lines, idx, phrase, handle, g, testColors, BlurConfig{Type: "none"})
	if err != nil {
		t.Fatal(err)
	}
	radial, err := Composite(lines, idx, phrase, handle, g, testColors, BlurConfig{Type: "radial", Radius: 6, SharpFactor: 0.3})
	if err != nil {
		t.Fatal(err)
	}

	// Overlay region identical.
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			x, y := 256+dx, 256+dy
			if base.RGBAAt(x, y) != radial.RGBAAt(x, y) {
				t.Fatalf("overlay region differs at (%d, %d)", x, y)
			}
		}
	}

	// Far corner region must have been altered by the blur somewhere.
	differs := false
	for y := 0; y < 120 && !differs; y++ {
		for x := 0; x < 512; x++ {
			if base.RGBAAt(x, y) != radial.RGBAAt(x, y) {
				differs = true
				break
			}
		}
	}
	if !differs {
		t.Error("radial blur left the canvas edges untouched")
	}
}

func TestMissingPhraseStillDrawsOverlay(t *testing.T) {
	handle, err := fontlib.Load(fontlib.FallbackName, 40)
	if err != nil {
		t.Fatal(err)
	}
	defer handle.Close()

	phrase := "Mother of Dragons"
	lines := []string{"nothing here", "still nothing", "empty as well"}
	g, err := layout.Compute(lines, 1, phrase, handle, 512, 512, 1.5)
	if err != nil {
		t.Fatal(err)
	}

	frame, err := Composite(lines, 1, phrase, handle, g, testColors, BlurConfig{Type: "radial", Radius: 4, SharpFactor: 0.3})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := highlightRectCenter(frame, testColors.Highlight); !ok {
		t.Error("overlay must be drawn even when the phrase is missing from its line")
	}
}
