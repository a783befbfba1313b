package convert

import (
	"context"
	"fmt"

	"github.com/lvillar/docpipe"
)

// PageImage is one extracted page, already encoded. Encoding records what
// was actually used, which may be a declared fallback of the request.
type PageImage struct {
	Page     int // 1-based source page
	Data     []byte
	Encoding docpipe.Encoding
	Width    int
	Height   int
}

// PaginatedToRaster renders the given 1-based pages of a paginated document
// into encoded rasters. A nil page list selects every page. Pages render at
// 300 dpi against the 72-unit baseline, uniformly scaled down when the
// result would exceed the pixel ceiling in either dimension. Each page's
// render surface is released before the next page begins.
func (c *Converter) PaginatedToRaster(ctx context.Context, data []byte, pages []int, target docpipe.Encoding, quality float64) ([]PageImage, error) {
	if target == "" {
		target = docpipe.EncodingPNG
	}
	if target == docpipe.EncodingPDF {
		return nil, fmt.Errorf("%w: raster target %q", docpipe.ErrValidation, target)
	}

	renderer, err := c.rasterizer.Open(data)
	if err != nil {
		return nil, err
	}
	defer renderer.Close()

	if pages == nil {
		pages = make([]int, renderer.PageCount())
		for i := range pages {
			pages[i] = i + 1
		}
	}

	out := make([]PageImage, 0, len(pages))
	for i, page := range pages {
		w, h, err := renderer.PageSize(page)
		if err != nil {
			return nil, err
		}

		dpi := renderDPI
		if maxPx := maxDim(w, h) * dpi / baselineDPI; maxPx > maxRenderDim {
			dpi *= maxRenderDim / maxPx
		}

		img, err := renderer.Render(page, dpi)
		if err != nil {
			return nil, err
		}

		surface := NewSurfaceFrom(img, !hasAlpha(target))
		encoded, actual, err := c.encode(surface, target, quality)
		width, height := surface.Width, surface.Height
		surface.Release()
		if err != nil {
			return nil, err
		}

		out = append(out, PageImage{
			Page:     page,
			Data:     encoded,
			Encoding: actual,
			Width:    width,
			Height:   height,
		})

		if err := yield(ctx, i); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func maxDim(w, h float64) float64 {
	if w > h {
		return w
	}
	return h
}
