package convert

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"codeberg.org/go-pdf/fpdf"

	"github.com/lvillar/docpipe"
)

// Embeddable encodings fpdf accepts directly; everything else is transcoded
// to PNG before embedding.
func embedType(format string) (string, bool) {
	switch format {
	case "png":
		return "PNG", true
	case "jpeg":
		return "JPEG", true
	case "gif":
		return "GIF", true
	default:
		return "PNG", false
	}
}

// AddRasterPage appends one page sized to the raster's native pixel
// dimensions (1 source pixel = 1 document unit) and draws the raster across
// the full page. The registration name must be unique within pdf.
func AddRasterPage(pdf *fpdf.Fpdf, data []byte, name string) (w, h float64, err error) {
	img, format, err := DecodeRaster(data)
	if err != nil {
		return 0, 0, err
	}

	imageType, direct := embedType(string(format))
	reader := bytes.NewReader(data)
	if !direct {
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return 0, 0, fmt.Errorf("transcoding %s for embedding: %w", format, err)
		}
		reader = bytes.NewReader(buf.Bytes())
	}

	b := img.Bounds()
	w, h = float64(b.Dx()), float64(b.Dy())

	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	opts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader(name, opts, reader)
	pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")

	return w, h, pdf.Error()
}

// RasterToPaginated embeds each raster as one page of a new paginated
// document, in order.
func (c *Converter) RasterToPaginated(ctx context.Context, rasters ...[]byte) ([]byte, error) {
	if len(rasters) == 0 {
		return nil, docpipe.ErrNoInput
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, data := range rasters {
		if _, _, err := AddRasterPage(pdf, data, fmt.Sprintf("raster-%d", i)); err != nil {
			return nil, fmt.Errorf("convert: embedding raster %d: %w", i+1, err)
		}
		if err := yield(ctx, i); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("convert: writing paginated output: %w", err)
	}
	return buf.Bytes(), nil
}
