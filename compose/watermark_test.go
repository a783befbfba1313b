package compose

import (
	"context"
	"testing"

	"github.com/lvillar/docpipe"
)

func TestApplyWatermark(t *testing.T) {
	c := New()
	src := buildPDF(t, 3)

	out, err := c.ApplyWatermark(context.Background(), src, docpipe.WatermarkSpec{
		Text:    "CONFIDENTIAL",
		Opacity: 0.3,
		Angle:   45,
	})
	if err != nil {
		t.Fatalf("watermark: %v", err)
	}
	if got := pageCount(t, out); got != 3 {
		t.Errorf("expected 3 pages, got %d", got)
	}
	// The stamp content must have made the document grow.
	if len(out) <= len(src) {
		t.Errorf("watermarked output (%d bytes) not larger than input (%d bytes)", len(out), len(src))
	}
}

func TestApplyWatermarkSelectedPages(t *testing.T) {
	c := New()
	out, err := c.ApplyWatermark(context.Background(), buildPDF(t, 4), docpipe.WatermarkSpec{
		Text:  "DRAFT",
		Pages: docpipe.PageSelector{Mode: docpipe.SelectCustom, Range: "2-3"},
	})
	if err != nil {
		t.Fatalf("watermark: %v", err)
	}
	if got := pageCount(t, out); got != 4 {
		t.Errorf("expected 4 pages, got %d", got)
	}
}

func TestApplyWatermarkTiled(t *testing.T) {
	c := New()
	out, err := c.ApplyWatermark(context.Background(), buildPDF(t, 1), docpipe.WatermarkSpec{
		Text:     "SAMPLE",
		Anchor:   docpipe.AnchorTiled,
		FontSize: 18,
	})
	if err != nil {
		t.Fatalf("tiled watermark: %v", err)
	}
	if got := pageCount(t, out); got != 1 {
		t.Errorf("expected 1 page, got %d", got)
	}
}

func TestApplyWatermarkQR(t *testing.T) {
	c := New()
	out, err := c.ApplyWatermark(context.Background(), buildPDF(t, 1), docpipe.WatermarkSpec{
		Kind:   docpipe.StampQR,
		Text:   "doc://batch/42",
		Anchor: docpipe.AnchorBottomRight,
	})
	if err != nil {
		t.Fatalf("qr watermark: %v", err)
	}
	if got := pageCount(t, out); got != 1 {
		t.Errorf("expected 1 page, got %d", got)
	}
}

func TestApplyWatermarkCorruptSource(t *testing.T) {
	_, err := New().ApplyWatermark(context.Background(), []byte("broken"), docpipe.WatermarkSpec{Text: "X"})
	if err == nil {
		t.Fatal("expected error for corrupt source")
	}
}

func TestApplyImageStamp(t *testing.T) {
	c := New()
	out, err := c.ApplyImageStamp(context.Background(), buildPDF(t, 2), buildPNG(t, 64, 32), docpipe.ImageStampSpec{
		Anchor: docpipe.AnchorBottomLeft,
		Scale:  0.5,
	})
	if err != nil {
		t.Fatalf("image stamp: %v", err)
	}
	if got := pageCount(t, out); got != 2 {
		t.Errorf("expected 2 pages, got %d", got)
	}
}

func TestAddPageNumbers(t *testing.T) {
	c := New()
	out, err := c.AddPageNumbers(context.Background(), buildPDF(t, 3), PageNumberStyle{})
	if err != nil {
		t.Fatalf("page numbers: %v", err)
	}
	if got := pageCount(t, out); got != 3 {
		t.Errorf("expected 3 pages, got %d", got)
	}
}
