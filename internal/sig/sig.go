// Package sig renders typed signatures into transparent raster images using
// a script typeface, sized to fit the signature box of the PDF template.
package sig

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// DefaultPointSize is the size tried first, before shrink-to-fit.
	DefaultPointSize = 42.0

	// minShrinkFraction bounds the shrink loop. Below this fraction of the
	// starting size the text is clipped horizontally instead of shrinking
	// into illegibility.
	minShrinkFraction = 0.25

	// fillFraction leaves breathing room at the box edges.
	fillFraction = 0.92

	// leftPadFraction indents the start of the stroke from the box edge.
	leftPadFraction = 0.02

	renderDPI = 72
)

// Options control one render call.
type Options struct {
	// Width and Height are the box in CSS pixels.
	Width, Height int

	// Scale multiplies the box into device pixels. Zero means 1.
	Scale float64

	// PointSize overrides DefaultPointSize when positive.
	PointSize float64

	// Ink is the stroke color. Nil means opaque black.
	Ink color.Color
}

// Renderer draws signature text with a single parsed font. It is safe for
// concurrent use; each call builds its own face.
type Renderer struct {
	font *opentype.Font
}

// NewRenderer parses the signature typeface once up front.
func NewRenderer(fontData []byte) (*Renderer, error) {
	f, err := opentype.Parse(fontData)
	if err != nil {
		return nil, fmt.Errorf("parse signature font: %w", err)
	}
	return &Renderer{font: f}, nil
}

// Render draws text on a transparent background, left-aligned with a small
// pad and vertically centered in the box. The point size shrinks until the
// text fits the box width or the minimum size is reached. Empty text yields
// an empty transparent image.
func (r *Renderer) Render(text string, opts Options) (*image.RGBA, error) {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	w := int(float64(opts.Width) * scale)
	h := int(float64(opts.Height) * scale)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("signature box %dx%d is empty", opts.Width, opts.Height)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if text == "" {
		return img, nil
	}

	size := opts.PointSize
	if size <= 0 {
		size = DefaultPointSize
	}
	size *= scale
	minSize := size * minShrinkFraction
	budget := fixed.I(int(float64(w) * fillFraction))

	face, err := r.fit(text, size, minSize, budget)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	ink := opts.Ink
	if ink == nil {
		ink = color.Black
	}
	metrics := face.Metrics()
	baseline := (fixed.I(h) + metrics.Ascent - metrics.Descent) / 2
	dot := fixed.Point26_6{X: fixed.I(int(float64(w) * leftPadFraction)), Y: baseline}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ink),
		Face: face,
		Dot:  dot,
	}
	d.DrawString(text)
	return img, nil
}

// fit walks the size down in 10% steps until the text fits the width budget.
func (r *Renderer) fit(text string, size, minSize float64, budget fixed.Int26_6) (font.Face, error) {
	for {
		face, err := opentype.NewFace(r.font, &opentype.FaceOptions{
			Size:    size,
			DPI:     renderDPI,
			Hinting: font.HintingFull,
		})
		if err != nil {
			return nil, fmt.Errorf("signature face at %.1fpt: %w", size, err)
		}
		width := font.MeasureString(face, text)
		if width <= budget || size <= minSize {
			return face, nil
		}
		if err := face.Close(); err != nil {
			return nil, err
		}
		size *= 0.9
		if size < minSize {
			size = minSize
		}
	}
}

// EncodePNG serializes a rendered signature, keeping the alpha channel.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode signature png: %w", err)
	}
	return buf.Bytes(), nil
}
