package pagedoc

import (
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRasterizer is the default Rasterizer, rendering pages through MuPDF.
type FitzRasterizer struct{}

// Open parses the document for rendering.
func (FitzRasterizer) Open(data []byte) (PageRenderer, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, classifyDecodeError(err)
	}
	return &fitzRenderer{doc: doc}, nil
}

type fitzRenderer struct {
	doc *fitz.Document
}

func (r *fitzRenderer) PageCount() int {
	return r.doc.NumPage()
}

func (r *fitzRenderer) PageSize(page int) (float64, float64, error) {
	if err := checkPage(page, r.doc.NumPage()); err != nil {
		return 0, 0, err
	}
	bounds, err := r.doc.Bound(page - 1) // go-fitz pages are 0-based
	if err != nil {
		return 0, 0, classifyDecodeError(err)
	}
	return float64(bounds.Dx()), float64(bounds.Dy()), nil
}

func (r *fitzRenderer) Render(page int, dpi float64) (image.Image, error) {
	if err := checkPage(page, r.doc.NumPage()); err != nil {
		return nil, err
	}
	img, err := r.doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, classifyDecodeError(err)
	}
	return img, nil
}

func (r *fitzRenderer) Close() error {
	return r.doc.Close()
}
