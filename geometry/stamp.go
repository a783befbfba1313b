package geometry

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
	"github.com/ruudk/golang-pdf417"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/lvillar/docpipe"
)

// Stamp generation defaults.
const (
	defaultFontSize = 60.0
	defaultOpacity  = 0.3
	stampMargin     = 4.0 // margin around the rotated bounding box, per unit scale
)

var defaultStampColor = docpipe.RGBColor{R: 200, G: 200, B: 200}

// Stamp is a rasterized overlay generated from a WatermarkSpec. Width and
// Height are pixel dimensions of the full rotated bounding box including the
// margin; nothing is clipped. Oversample records the generation scale so the
// placed footprint can be divided back to the requested size.
type Stamp struct {
	Image      *image.NRGBA
	Width      int
	Height     int
	Oversample float64
}

// GenerateStamp renders the spec into a bitmap at scale times the requested
// size. Generating once at an oversampled scale and placing at footprint
// size keeps stamps sharp without regenerating per page.
func GenerateStamp(spec docpipe.WatermarkSpec, scale float64) (*Stamp, error) {
	if spec.Text == "" {
		return nil, fmt.Errorf("%w: empty stamp text", docpipe.ErrValidation)
	}
	if scale <= 0 {
		scale = 1
	}
	if spec.FontSize <= 0 {
		spec.FontSize = defaultFontSize
	}
	if spec.Opacity <= 0 {
		spec.Opacity = defaultOpacity
	}
	if spec.Color == (docpipe.RGBColor{}) && spec.Kind != docpipe.StampQR && spec.Kind != docpipe.StampPDF417 {
		spec.Color = defaultStampColor
	}

	var img *image.NRGBA
	switch spec.Kind {
	case docpipe.StampQR:
		code, err := qr.Encode(spec.Text, qr.M, qr.Auto)
		if err != nil {
			return nil, fmt.Errorf("%w: qr: %v", docpipe.ErrValidation, err)
		}
		img = scaleBarcode(code, int(spec.FontSize*scale), spec.Opacity)
	case docpipe.StampPDF417:
		code := pdf417.Encode(spec.Text, 4, 2)
		img = scaleBarcode(code, int(spec.FontSize*scale), spec.Opacity)
	default:
		img = renderText(spec, scale)
	}

	if spec.Angle != 0 {
		img = imaging.Rotate(img, spec.Angle, color.NRGBA{})
	}

	margin := int(stampMargin*scale + 0.5)
	b := img.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, b.Dx()+2*margin, b.Dy()+2*margin))
	draw.Draw(canvas, b.Add(image.Pt(margin-b.Min.X, margin-b.Min.Y)), img, b.Min, draw.Over)

	return &Stamp{
		Image:      canvas,
		Width:      canvas.Bounds().Dx(),
		Height:     canvas.Bounds().Dy(),
		Oversample: scale,
	}, nil
}

// renderText draws the spec text at basicfont resolution, applies synthetic
// bold and italic, and resamples the glyphs up to fontSize*scale pixels tall.
func renderText(spec docpipe.WatermarkSpec, scale float64) *image.NRGBA {
	face := basicfont.Face7x13
	width := font.MeasureString(face, spec.Text).Ceil()
	if width < 1 {
		width = 1
	}
	height := face.Height

	src := image.NewUniform(color.NRGBA{
		R: uint8(spec.Color.R),
		G: uint8(spec.Color.G),
		B: uint8(spec.Color.B),
		A: uint8(spec.Opacity*255 + 0.5),
	})

	// Bold doubles the strike one pixel to the right.
	img := image.NewNRGBA(image.Rect(0, 0, width+1, height))
	d := font.Drawer{
		Dst:  img,
		Src:  src,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(spec.Text)
	if spec.Bold {
		d.Dot = fixed.P(1, face.Ascent)
		d.DrawString(spec.Text)
	}

	if spec.Italic {
		img = shearRight(img)
	}

	targetH := int(spec.FontSize*scale + 0.5)
	if targetH < 1 {
		targetH = 1
	}
	targetW := img.Bounds().Dx() * targetH / height
	return imaging.Resize(img, targetW, targetH, imaging.Lanczos)
}

// shearRight slants the bitmap by shifting rows horizontally, a synthetic
// italic for faces without an oblique variant.
func shearRight(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	slant := b.Dy() / 4
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx()+slant, b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		offset := slant * (b.Dy() - 1 - y) / b.Dy()
		for x := 0; x < b.Dx(); x++ {
			out.SetNRGBA(x+offset, y, img.NRGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}

// scaleBarcode resizes a generated code to the requested side length and
// applies the watermark opacity. Barcodes keep their white quiet zone so
// they stay machine-readable on busy pages.
func scaleBarcode(code barcode.Barcode, side int, opacity float64) *image.NRGBA {
	if side < code.Bounds().Dx() {
		side = code.Bounds().Dx()
	}
	scaled, err := barcode.Scale(code, side, side*code.Bounds().Dy()/code.Bounds().Dx())
	var img image.Image = scaled
	if err != nil {
		img = imaging.Resize(code, side, 0, imaging.NearestNeighbor)
	}

	out := imaging.Clone(img)
	if opacity < 1 {
		for i := 3; i < len(out.Pix); i += 4 {
			out.Pix[i] = uint8(float64(out.Pix[i])*opacity + 0.5)
		}
	}
	return out
}
