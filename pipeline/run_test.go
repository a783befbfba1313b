package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"github.com/lvillar/docpipe"
	"github.com/lvillar/docpipe/assetstore"
	"github.com/lvillar/docpipe/pagedoc"
)

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	doc, err := pagedoc.NewPDFDecoder().Decode(data)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	return doc.PageCount()
}

func TestRunSingleItem(t *testing.T) {
	p := New()
	res, err := p.Run(context.Background(), Request{
		Sources: []docpipe.SourceAsset{raster("photo", buildPNG(t, 20, 10))},
		Tasks:   []docpipe.ConversionTask{task("photo", docpipe.KindRaster, docpipe.EncodingJPEG, 0)},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Bundle.Packaging != docpipe.PackagingSingle {
		t.Errorf("packaging = %v, want single", res.Bundle.Packaging)
	}
	if len(res.Bundle.Artifacts) != 1 {
		t.Fatalf("artifacts = %d, want 1", len(res.Bundle.Artifacts))
	}
	art := res.Bundle.Artifacts[0]
	if art.Name != "photo.jpg" {
		t.Errorf("name = %q", art.Name)
	}
	if art.MediaType != "image/jpeg" {
		t.Errorf("media type = %q", art.MediaType)
	}
}

func TestRunMultipleItemsArchive(t *testing.T) {
	p := New()
	res, err := p.Run(context.Background(), Request{
		Sources: []docpipe.SourceAsset{
			raster("a", buildPNG(t, 10, 10)),
			raster("b", buildPNG(t, 10, 10)),
			raster("c", buildPNG(t, 10, 10)),
		},
		Tasks: []docpipe.ConversionTask{
			task("a", docpipe.KindRaster, docpipe.EncodingJPEG, 0),
			task("b", docpipe.KindRaster, docpipe.EncodingJPEG, 1),
			task("c", docpipe.KindRaster, docpipe.EncodingJPEG, 2),
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Bundle.Packaging != docpipe.PackagingArchive {
		t.Fatalf("packaging = %v, want archive", res.Bundle.Packaging)
	}
	data, err := Archive(res.Bundle)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if len(zr.File) != 3 {
		t.Fatalf("entries = %d, want 3", len(zr.File))
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		if names[f.Name] {
			t.Errorf("duplicate entry %q", f.Name)
		}
		names[f.Name] = true
	}
}

func TestRunMerge(t *testing.T) {
	p := New()
	res, err := p.Run(context.Background(), Request{
		Sources: []docpipe.SourceAsset{
			raster("a", buildPNG(t, 10, 10)),
			raster("b", buildPNG(t, 20, 20)),
		},
		Tasks: []docpipe.ConversionTask{
			task("a", docpipe.KindPaginated, "", 0),
			task("b", docpipe.KindPaginated, "", 1),
		},
		Settings: docpipe.Settings{Merge: true},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Bundle.Artifacts) != 1 {
		t.Fatalf("artifacts = %d, want 1 merged document", len(res.Bundle.Artifacts))
	}
	art := res.Bundle.Artifacts[0]
	if art.Name != "merged.pdf" {
		t.Errorf("name = %q", art.Name)
	}
	if got := pageCount(t, art.Data); got != 2 {
		t.Errorf("merged pages = %d, want 2", got)
	}
}

func TestRunNoTasks(t *testing.T) {
	_, err := New().Run(context.Background(), Request{})
	if !errors.Is(err, docpipe.ErrNoInput) {
		t.Errorf("expected ErrNoInput, got %v", err)
	}
}

func TestRunAllItemsFailed(t *testing.T) {
	corrupt := docpipe.SourceAsset{ID: "x", Kind: docpipe.KindPaginated, Data: []byte("not a document")}
	corrupt2 := docpipe.SourceAsset{ID: "y", Kind: docpipe.KindPaginated, Data: []byte("also broken")}
	_, err := New().Run(context.Background(), Request{
		Sources: []docpipe.SourceAsset{corrupt, corrupt2},
		Tasks: []docpipe.ConversionTask{
			task("x", docpipe.KindRaster, docpipe.EncodingPNG, 0),
			task("y", docpipe.KindRaster, docpipe.EncodingPNG, 1),
		},
	})
	if !errors.Is(err, docpipe.ErrAllSourcesFailed) {
		t.Errorf("expected ErrAllSourcesFailed, got %v", err)
	}
}

func TestRunPartialFailureWarns(t *testing.T) {
	res, err := New().Run(context.Background(), Request{
		Sources: []docpipe.SourceAsset{
			raster("good", buildPNG(t, 10, 10)),
			{ID: "bad", Kind: docpipe.KindPaginated, Data: []byte("broken"), Name: "bad.pdf"},
		},
		Tasks: []docpipe.ConversionTask{
			task("good", docpipe.KindRaster, docpipe.EncodingJPEG, 0),
			task("bad", docpipe.KindRaster, docpipe.EncodingPNG, 1),
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Bundle.Artifacts) != 1 {
		t.Errorf("artifacts = %d, want 1", len(res.Bundle.Artifacts))
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings = %v, want one entry", res.Warnings)
	}
	if !strings.Contains(res.Warnings[0], "source 2") {
		t.Errorf("warning %q does not name source 2", res.Warnings[0])
	}
}

func TestRunSingleItemFailureIsFatal(t *testing.T) {
	_, err := New().Run(context.Background(), Request{
		Sources: []docpipe.SourceAsset{{ID: "bad", Kind: docpipe.KindPaginated, Data: []byte("broken")}},
		Tasks:   []docpipe.ConversionTask{task("bad", docpipe.KindRaster, docpipe.EncodingPNG, 0)},
	})
	if err == nil {
		t.Fatal("expected fatal error for single failing item")
	}
}

func TestRunWatermark(t *testing.T) {
	src := docpipe.SourceAsset{ID: "doc", Kind: docpipe.KindPaginated, Data: buildPDF(t, 2), Name: "doc.pdf"}
	res, err := New().Run(context.Background(), Request{
		Sources: []docpipe.SourceAsset{src},
		Tasks:   []docpipe.ConversionTask{task("doc", docpipe.KindPaginated, docpipe.EncodingPDF, 0)},
		Settings: docpipe.Settings{
			Watermark: &docpipe.WatermarkSpec{Text: "CONFIDENTIAL", Angle: 45},
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	art := res.Bundle.Artifacts[0]
	if got := pageCount(t, art.Data); got != 2 {
		t.Errorf("pages = %d, want 2", got)
	}
	if len(art.Data) <= len(src.Data) {
		t.Errorf("watermarked output (%d bytes) not larger than input (%d)", len(art.Data), len(src.Data))
	}
}

func TestRunImageStampFromStore(t *testing.T) {
	store, err := assetstore.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	ctx := context.Background()
	if err := store.Save(ctx, "signature", buildPNG(t, 40, 20)); err != nil {
		t.Fatalf("save: %v", err)
	}

	p := New(WithAssetStore(store))
	res, err := p.Run(ctx, Request{
		Sources: []docpipe.SourceAsset{{ID: "doc", Kind: docpipe.KindPaginated, Data: buildPDF(t, 1)}},
		Tasks:   []docpipe.ConversionTask{task("doc", docpipe.KindPaginated, docpipe.EncodingPDF, 0)},
		Settings: docpipe.Settings{
			ImageStamp: &docpipe.ImageStampSpec{AssetKey: "signature", Anchor: docpipe.AnchorBottomRight},
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := pageCount(t, res.Bundle.Artifacts[0].Data); got != 1 {
		t.Errorf("pages = %d, want 1", got)
	}
}

func TestRunImageStampWithoutStore(t *testing.T) {
	_, err := New().Run(context.Background(), Request{
		Sources: []docpipe.SourceAsset{{ID: "doc", Kind: docpipe.KindPaginated, Data: buildPDF(t, 1)}},
		Tasks:   []docpipe.ConversionTask{task("doc", docpipe.KindPaginated, docpipe.EncodingPDF, 0)},
		Settings: docpipe.Settings{
			ImageStamp: &docpipe.ImageStampSpec{AssetKey: "signature"},
		},
	})
	if !errors.Is(err, docpipe.ErrResourceUnavailable) {
		t.Errorf("expected ErrResourceUnavailable, got %v", err)
	}
}

func TestRunProgress(t *testing.T) {
	var percents []int
	var statuses []docpipe.ItemStatus
	_, err := New().Run(context.Background(), Request{
		Sources: []docpipe.SourceAsset{
			raster("a", buildPNG(t, 10, 10)),
			raster("b", buildPNG(t, 10, 10)),
		},
		Tasks: []docpipe.ConversionTask{
			task("a", docpipe.KindRaster, docpipe.EncodingJPEG, 0),
			task("b", docpipe.KindRaster, docpipe.EncodingJPEG, 1),
		},
		OnProgress:   func(p int, _ string) { percents = append(percents, p) },
		OnItemStatus: func(_ int, s docpipe.ItemStatus) { statuses = append(statuses, s) },
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("percent regressed: %v", percents)
		}
	}
	if last := percents[len(percents)-1]; last != 100 {
		t.Errorf("final percent = %d, want 100", last)
	}
	if len(statuses) != 4 {
		t.Errorf("item status events = %d, want 4", len(statuses))
	}
}

func TestRunCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sources := make([]docpipe.SourceAsset, 0, 8)
	tasks := make([]docpipe.ConversionTask, 0, 8)
	for i := 0; i < 8; i++ {
		id := string(rune('a' + i))
		sources = append(sources, raster(id, buildPNG(t, 10, 10)))
		tasks = append(tasks, task(id, docpipe.KindRaster, docpipe.EncodingJPEG, i))
	}
	_, err := New().Run(ctx, Request{Sources: sources, Tasks: tasks})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunRotateRaster(t *testing.T) {
	res, err := New().Run(context.Background(), Request{
		Sources: []docpipe.SourceAsset{raster("img", buildPNG(t, 30, 10))},
		Tasks:   []docpipe.ConversionTask{task("img", docpipe.KindRaster, docpipe.EncodingPNG, 0)},
		Settings: docpipe.Settings{
			RotationDeltas: map[int]int{1: 90},
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	art := res.Bundle.Artifacts[0]
	cfg, _, err := image.DecodeConfig(bytes.NewReader(art.Data))
	if err != nil {
		t.Fatalf("decoding rotated output: %v", err)
	}
	if cfg.Width != 10 || cfg.Height != 30 {
		t.Errorf("rotated dimensions = %dx%d, want 10x30", cfg.Width, cfg.Height)
	}
}
