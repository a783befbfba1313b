package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"codeberg.org/go-pdf/fpdf"

	"github.com/lvillar/docpipe"
	"github.com/lvillar/docpipe/pagedoc"
)

// makePNG builds a small test raster. The top-left quadrant is fully
// transparent so flattening is observable.
func makePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 && y < h/2 {
				continue // transparent
			}
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return buf.Bytes()
}

// makePDF builds an in-memory document; sizes are page formats in points.
func makePDF(t *testing.T, sizes ...fpdf.SizeType) []byte {
	t.Helper()
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Helvetica", "", 12)
	for i, size := range sizes {
		pdf.AddPageFormat("P", size)
		pdf.Text(40, 60, fmt.Sprintf("page %d", i+1))
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		t.Fatalf("building test PDF: %v", err)
	}
	return buf.Bytes()
}

var a4 = fpdf.SizeType{Wd: 595.28, Ht: 841.89}

func TestRasterToRaster(t *testing.T) {
	c := New()
	out, actual, err := c.RasterToRaster(makePNG(t, 40, 40), docpipe.EncodingJPEG, 0.8)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if actual != docpipe.EncodingJPEG {
		t.Errorf("expected jpeg, got %s", actual)
	}

	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("expected jpeg output, got %s", format)
	}

	// The transparent quadrant must have been flattened onto white.
	r, g, b, _ := img.At(2, 2).RGBA()
	if r < 0xe000 || g < 0xe000 || b < 0xe000 {
		t.Errorf("transparent area not flattened to white: %d %d %d", r, g, b)
	}
}

func TestRasterToRasterKeepsAlpha(t *testing.T) {
	c := New()
	out, _, err := c.RasterToRaster(makePNG(t, 40, 40), docpipe.EncodingPNG, 0)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if _, _, _, a := img.At(2, 2).RGBA(); a != 0 {
		t.Errorf("expected transparency preserved, alpha %d", a)
	}
}

func TestRasterToRasterCorrupt(t *testing.T) {
	_, _, err := New().RasterToRaster([]byte("not an image"), docpipe.EncodingPNG, 0)
	if !errors.Is(err, docpipe.ErrDecodeFailed) {
		t.Errorf("expected ErrDecodeFailed, got %v", err)
	}
}

func TestEncodeFallbackChain(t *testing.T) {
	// Remove the webp encoder: the declared table must substitute PNG.
	c := New(WithEncoder(docpipe.EncodingWebP, nil))

	out, actual, err := c.RasterToRaster(makePNG(t, 20, 20), docpipe.EncodingWebP, 0.5)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if actual != docpipe.EncodingPNG {
		t.Errorf("expected png substitute, got %s", actual)
	}
	if _, format, err := image.Decode(bytes.NewReader(out)); err != nil || format != "png" {
		t.Errorf("output not png: format=%s err=%v", format, err)
	}
}

func TestEncodeNoEncoderAnywhere(t *testing.T) {
	c := New()
	s := NewSurface(4, 4)
	defer s.Release()
	if _, _, err := c.encode(s, docpipe.Encoding("exotic"), 0); !errors.Is(err, docpipe.ErrResourceUnavailable) {
		t.Errorf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestRasterToPaginated(t *testing.T) {
	c := New()
	out, err := c.RasterToPaginated(context.Background(), makePNG(t, 120, 80), makePNG(t, 60, 200))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	doc, err := pagedoc.NewPDFDecoder().Decode(out)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if doc.PageCount() != 2 {
		t.Fatalf("expected 2 pages, got %d", doc.PageCount())
	}

	// One source pixel is one document unit.
	w, h, err := doc.PageSize(1)
	if err != nil {
		t.Fatalf("page size: %v", err)
	}
	if w != 120 || h != 80 {
		t.Errorf("page 1: expected 120x80, got %gx%g", w, h)
	}
	w, h, _ = doc.PageSize(2)
	if w != 60 || h != 200 {
		t.Errorf("page 2: expected 60x200, got %gx%g", w, h)
	}
}

func TestRasterToPaginatedEmpty(t *testing.T) {
	if _, err := New().RasterToPaginated(context.Background()); !errors.Is(err, docpipe.ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
}

func TestPaginatedToRaster(t *testing.T) {
	c := New()
	pages, err := c.PaginatedToRaster(context.Background(), makePDF(t, a4), nil, docpipe.EncodingPNG, 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}

	// A4 at 300dpi lands near 2480x3508, well under the ceiling.
	if pages[0].Width < 2400 || pages[0].Width > 2550 {
		t.Errorf("unexpected render width %d", pages[0].Width)
	}
	if pages[0].Encoding != docpipe.EncodingPNG {
		t.Errorf("expected png, got %s", pages[0].Encoding)
	}
	if _, format, err := image.Decode(bytes.NewReader(pages[0].Data)); err != nil || format != "png" {
		t.Errorf("page did not decode as png: %s %v", format, err)
	}
}

func TestPaginatedToRasterCeiling(t *testing.T) {
	// 2000pt wide renders at 8333px at 300dpi and must be scaled to fit.
	data := makePDF(t, fpdf.SizeType{Wd: 2000, Ht: 1000})

	pages, err := New().PaginatedToRaster(context.Background(), data, nil, docpipe.EncodingPNG, 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if w := pages[0].Width; w < maxRenderDim-8 || w > maxRenderDim+8 {
		t.Errorf("expected width near %d, got %d", maxRenderDim, w)
	}
	if pages[0].Height > maxRenderDim {
		t.Errorf("height %d exceeds ceiling", pages[0].Height)
	}
}

func TestPaginatedToRasterSelectedPages(t *testing.T) {
	data := makePDF(t, a4, a4, a4)

	pages, err := New().PaginatedToRaster(context.Background(), data, []int{3, 1}, docpipe.EncodingJPEG, 0.7)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(pages) != 2 || pages[0].Page != 3 || pages[1].Page != 1 {
		t.Errorf("unexpected page selection %+v", pages)
	}
}

func TestPaginatedToRasterCancellation(t *testing.T) {
	data := makePDF(t, a4, a4, a4, a4, a4, a4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().PaginatedToRaster(ctx, data, nil, docpipe.EncodingPNG, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLossyQuality(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 90},
		{-1, 90},
		{2, 90},
		{0.5, 50},
		{1, 100},
		{0.004, 1},
	}
	for _, tt := range tests {
		if got := lossyQuality(tt.in); got != tt.want {
			t.Errorf("lossyQuality(%g) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
