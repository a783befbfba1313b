package compose

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/lvillar/docpipe"
	"github.com/lvillar/docpipe/convert"
	"github.com/lvillar/docpipe/geometry"
)

// stampOversample is the scale stamps are generated at. Placing the bitmap
// at footprint size divides the ratio back out, so the requested size is
// honored while the rendered stamp stays sharp.
const stampOversample = 4.0

// ApplyWatermark stamps the spec onto the selected pages. The stamp bitmap
// is generated once and reused across all pages; per-page work is placement
// only.
func (c *Composer) ApplyWatermark(ctx context.Context, data []byte, spec docpipe.WatermarkSpec) ([]byte, error) {
	doc, err := c.decoder.Decode(data)
	if err != nil {
		return nil, docpipe.NewOpError("ApplyWatermark", "", err)
	}
	count := doc.PageCount()

	selected, err := selectedSet(count, spec.Pages)
	if err != nil {
		return nil, docpipe.NewOpError("ApplyWatermark", "", err)
	}

	stamp, err := geometry.GenerateStamp(spec, stampOversample)
	if err != nil {
		return nil, docpipe.NewOpError("ApplyWatermark", "", err)
	}

	var stampPNG bytes.Buffer
	if err := png.Encode(&stampPNG, stamp.Image); err != nil {
		return nil, docpipe.NewOpError("ApplyWatermark", "", err)
	}

	footprintW := float64(stamp.Width) / stamp.Oversample
	footprintH := float64(stamp.Height) / stamp.Oversample

	pdf := newBasePDF()
	imp := gofpdi.NewImporter()
	rs := readSeeker(data)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("watermark", opts, bytes.NewReader(stampPNG.Bytes()))

	for page := 1; page <= count; page++ {
		pw, ph := copyPage(pdf, imp, rs, page)

		if selected[page] {
			placements := geometry.Placements(spec.Anchor, pw, ph, footprintW, footprintH, spec.TileRows, spec.TileCols)
			for _, p := range placements {
				// Placements are raster-space; the document records
				// bottom-left-origin coordinates.
				docY := geometry.RasterToDocY(p.Y, ph, footprintH)
				drawStamp(pdf, "watermark", p.X, docY, footprintW, footprintH, ph)
			}
		}

		if err := yield(ctx, page-1); err != nil {
			return nil, err
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, docpipe.NewOpError("ApplyWatermark", "", err)
	}
	return output(pdf)
}

// ApplyImageStamp places a reusable raster overlay on the selected pages.
// The overlay footprint is its pixel size times spec.Scale, in document
// units.
func (c *Composer) ApplyImageStamp(ctx context.Context, data []byte, overlay []byte, spec docpipe.ImageStampSpec) ([]byte, error) {
	doc, err := c.decoder.Decode(data)
	if err != nil {
		return nil, docpipe.NewOpError("ApplyImageStamp", "", err)
	}
	count := doc.PageCount()

	selected, err := selectedSet(count, spec.Pages)
	if err != nil {
		return nil, docpipe.NewOpError("ApplyImageStamp", "", err)
	}

	img, _, err := convert.DecodeRaster(overlay)
	if err != nil {
		return nil, docpipe.NewOpError("ApplyImageStamp", "", err)
	}
	var overlayPNG bytes.Buffer
	if err := png.Encode(&overlayPNG, img); err != nil {
		return nil, docpipe.NewOpError("ApplyImageStamp", "", err)
	}

	scale := spec.Scale
	if scale <= 0 {
		scale = 1
	}
	footprintW := float64(img.Bounds().Dx()) * scale
	footprintH := float64(img.Bounds().Dy()) * scale

	pdf := newBasePDF()
	imp := gofpdi.NewImporter()
	rs := readSeeker(data)

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("overlay", opts, bytes.NewReader(overlayPNG.Bytes()))

	for page := 1; page <= count; page++ {
		pw, ph := copyPage(pdf, imp, rs, page)

		if selected[page] {
			for _, p := range geometry.Placements(spec.Anchor, pw, ph, footprintW, footprintH, 0, 0) {
				docY := geometry.RasterToDocY(p.Y, ph, footprintH)
				drawStamp(pdf, "overlay", p.X, docY, footprintW, footprintH, ph)
			}
		}

		if err := yield(ctx, page-1); err != nil {
			return nil, err
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, docpipe.NewOpError("ApplyImageStamp", "", err)
	}
	return output(pdf)
}

// PageNumberStyle configures AddPageNumbers.
type PageNumberStyle struct {
	Format   string         // fmt format receiving (page, total); default "Page %d of %d"
	Anchor   docpipe.Anchor // default bottom-center
	FontSize float64        // points; default 10
	Color    docpipe.RGBColor
}

// AddPageNumbers draws a page counter on every page at the style's anchor.
func (c *Composer) AddPageNumbers(ctx context.Context, data []byte, style PageNumberStyle) ([]byte, error) {
	if style.Format == "" {
		style.Format = "Page %d of %d"
	}
	if style.FontSize <= 0 {
		style.FontSize = 10
	}
	if style.Anchor == "" {
		style.Anchor = docpipe.AnchorBottomCenter
	}

	doc, err := c.decoder.Decode(data)
	if err != nil {
		return nil, docpipe.NewOpError("AddPageNumbers", "", err)
	}
	count := doc.PageCount()

	pdf := newBasePDF()
	imp := gofpdi.NewImporter()
	rs := readSeeker(data)

	pdf.SetFont("Helvetica", "", style.FontSize)
	pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)

	for page := 1; page <= count; page++ {
		pw, ph := copyPage(pdf, imp, rs, page)

		text := fmt.Sprintf(style.Format, page, count)
		textW := pdf.GetStringWidth(text)
		p := geometry.Placements(style.Anchor, pw, ph, textW, style.FontSize, 0, 0)[0]
		pdf.Text(p.X, p.Y+style.FontSize, text)

		if err := yield(ctx, page-1); err != nil {
			return nil, err
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, docpipe.NewOpError("AddPageNumbers", "", err)
	}
	return output(pdf)
}

// selectedSet resolves a selector into 1-based page membership.
func selectedSet(count int, sel docpipe.PageSelector) (map[int]bool, error) {
	indices, err := geometry.ResolvePages(count, sel)
	if err != nil {
		return nil, err
	}
	selected := make(map[int]bool, len(indices))
	for _, idx := range indices {
		selected[idx+1] = true
	}
	return selected, nil
}

// drawStamp places a registered stamp at a bottom-left-origin document
// coordinate. fpdf addresses pages from the top-left, so the Y conversion
// happens here, at the drawing boundary.
func drawStamp(pdf *fpdf.Fpdf, name string, x, docY, w, h, pageH float64) {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.ImageOptions(name, x, geometry.DocToRasterY(docY, pageH, h), w, h, false, opts, 0, "")
}
