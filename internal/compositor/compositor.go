package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/AmiXDme/text-match-cut/internal/fontlib"
	"github.com/AmiXDme/text-match-cut/internal/layout"
)

// Colors bundles the three frame colors.
type Colors struct {
	Text       color.RGBA
	Background color.RGBA
	Highlight  color.RGBA
}

// BlurConfig selects the background treatment of a frame.
type BlurConfig struct {
	Type        string  // gaussian, radial, none
	Radius      float64
	SharpFactor float64 // radial: fraction of min(w,h) kept sharp
}

// Composite renders one full frame: background text block, optional blur,
// and the unconditional highlight overlay at the fixed target position.
func Composite(lines []string, highlightIndex int, phrase string, h *fontlib.Handle, g *layout.Geometry, colors Colors, blur BlurConfig) (*image.RGBA, error) {
	base := newFilled(g.CanvasW, g.CanvasH, colors.Background)
	for i, line := range lines {
		drawString(base, h.Regular, line, g.LineX[i], g.LineTop(i)+g.Ascent, colors.Text)
	}

	var backdrop *image.RGBA
	switch {
	case blur.Type == "gaussian" && blur.Radius > 0:
		backdrop = paddedGaussian(base, blur.Radius, colors.Background)
	case blur.Type == "radial" && blur.Radius > 0:
		sharp := renderSharp(lines, highlightIndex, phrase, h, g, colors)
		// The background field is blurred harder than the configured
		// radius; the mask restores the sharp canvas around the center.
		blurred := toRGBA(imaging.Blur(base, blur.Radius*1.5))
		sharpRadius := math.Min(float64(g.CanvasW), float64(g.CanvasH)) * blur.SharpFactor
		fadeRadius := sharpRadius + math.Max(float64(g.CanvasW), float64(g.CanvasH))*0.15
		mask := radialMask(g.CanvasW, g.CanvasH, sharpRadius, fadeRadius)
		backdrop = blend(sharp, blurred, mask)
	default:
		backdrop = base
	}

	drawOverlay(backdrop, phrase, h, g, colors)
	return backdrop, nil
}

// renderSharp draws the snippet with the highlight line in three explicit
// segments so the phrase's regular-weight glyphs start exactly at the bold
// target x. All other lines are centered normally.
func renderSharp(lines []string, highlightIndex int, phrase string, h *fontlib.Handle, g *layout.Geometry, colors Colors) *image.RGBA {
	img := newFilled(g.CanvasW, g.CanvasH, colors.Background)
	for i, line := range lines {
		baseline := g.LineTop(i) + g.Ascent
		if i == highlightIndex && g.HighlightFound {
			drawString(img, h.Regular, g.Prefix, g.TargetX-g.PrefixW, baseline, colors.Text)
			drawString(img, h.Regular, phrase, g.TargetX, baseline, colors.Text)
			drawString(img, h.Regular, g.Suffix, g.TargetX+g.HighlightWRegular, baseline, colors.Text)
			continue
		}
		x := (float64(g.CanvasW) - pxWidth(h.Regular, line)) / 2
		drawString(img, h.Regular, line, x, baseline, colors.Text)
	}
	return img
}

// drawOverlay paints the opaque highlight rectangle and the bold phrase at
// the fixed target box. Drawn last, it covers whatever the blur produced
// underneath and guarantees identical placement across frames.
func drawOverlay(dst *image.RGBA, phrase string, h *fontlib.Handle, g *layout.Geometry, colors Colors) {
	pad := float64(h.Size) * 0.10
	rect := image.Rect(
		round(g.TargetX-pad),
		round(g.TargetY-pad),
		round(g.TargetX+g.HighlightW+pad),
		round(g.TargetY+g.HighlightH+pad),
	)
	draw.Draw(dst, rect.Intersect(dst.Bounds()), image.NewUniform(colors.Highlight), image.Point{}, draw.Src)
	drawString(dst, h.Bold, phrase, g.TargetX+g.BoldDotX, g.TargetY+g.BoldDotY, colors.Text)
}

// paddedGaussian pads the canvas by 3x the radius before blurring so that
// the canvas edges do not darken, then crops back to the original size.
func paddedGaussian(base *image.RGBA, radius float64, bg color.RGBA) *image.RGBA {
	padding := int(radius * 3)
	if padding <= 0 {
		return toRGBA(imaging.Blur(base, radius))
	}
	w := base.Bounds().Dx()
	h := base.Bounds().Dy()
	padded := newFilled(w+2*padding, h+2*padding, bg)
	draw.Draw(padded, image.Rect(padding, padding, padding+w, padding+h), base, image.Point{}, draw.Src)
	blurred := imaging.Blur(padded, radius)
	cropped := imaging.Crop(blurred, image.Rect(padding, padding, padding+w, padding+h))
	return toRGBA(cropped)
}

// radialMask builds the grayscale falloff mask: a filled circle of
// sharpRadius around the canvas center, gaussian-blurred so the sharp zone
// fades into the blurred field over the transition band.
func radialMask(w, h int, sharpRadius, fadeRadius float64) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, w, h))
	cx := float64(w) / 2
	cy := float64(h) / 2
	rr := sharpRadius * sharpRadius
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= rr {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	blurAmount := math.Max(0.1, (fadeRadius-sharpRadius)/3.5)
	blurred := imaging.Blur(mask, blurAmount)
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, _, _ := blurred.At(x, y).RGBA()
			out.SetGray(x, y, color.Gray{Y: uint8(r >> 8)})
		}
	}
	return out
}

// blend interpolates sharp over blurred using mask as per-pixel alpha.
func blend(sharp, blurred *image.RGBA, mask *image.Gray) *image.RGBA {
	bounds := sharp.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			m := uint32(mask.GrayAt(x, y).Y)
			s := sharp.RGBAAt(x, y)
			b := blurred.RGBAAt(x, y)
			out.SetRGBA(x, y, color.RGBA{
				R: mix(s.R, b.R, m),
				G: mix(s.G, b.G, m),
				B: mix(s.B, b.B, m),
				A: 255,
			})
		}
	}
	return out
}

func mix(s, b uint8, m uint32) uint8 {
	return uint8((uint32(s)*m + uint32(b)*(255-m)) / 255)
}

func drawString(dst *image.RGBA, face font.Face, s string, x, baseline float64, col color.RGBA) {
	if s == "" {
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: toFixed(x), Y: toFixed(baseline)},
	}
	d.DrawString(s)
}

func pxWidth(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64.0
}

func newFilled(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	out := image.NewRGBA(src.Bounds().Sub(src.Bounds().Min))
	draw.Draw(out, out.Bounds(), src, src.Bounds().Min, draw.Src)
	return out
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}

func round(v float64) int {
	return int(math.Round(v))
}
