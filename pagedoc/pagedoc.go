// Package pagedoc abstracts paginated-document codec capabilities behind
// small interfaces so the pipeline never talks to a concrete PDF library
// directly. The default Decoder is backed by pdfcpu and the default
// Rasterizer by MuPDF via go-fitz; both can be swapped out through the
// pipeline's options.
package pagedoc

import (
	"fmt"
	"image"
	"strings"

	"github.com/lvillar/docpipe"
)

// Document is a decoded paginated document. Pages are 1-based in this API,
// matching the external boundary convention.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int
	// PageSize returns the dimensions of a page in document units
	// (1/72 inch).
	PageSize(page int) (w, h float64, err error)
}

// Decoder parses paginated document bytes. Decode errors are classified into
// the docpipe taxonomy: ErrPasswordProtected for encrypted sources,
// ErrDecodeFailed for anything structurally broken.
type Decoder interface {
	Decode(data []byte) (Document, error)
}

// PageRenderer rasterizes pages of one open document. Close must be called
// once rendering is done.
type PageRenderer interface {
	PageCount() int
	// PageSize returns page dimensions in document units.
	PageSize(page int) (w, h float64, err error)
	// Render rasterizes a page at the given density in dots per inch.
	Render(page int, dpi float64) (image.Image, error)
	Close() error
}

// Rasterizer opens paginated document bytes for page rendering.
type Rasterizer interface {
	Open(data []byte) (PageRenderer, error)
}

// classifyDecodeError maps a codec error onto the pipeline taxonomy by
// message pattern. Codec libraries do not expose typed errors for
// encryption, so the pattern match is the contract here.
func classifyDecodeError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
		return fmt.Errorf("%w: %v", docpipe.ErrPasswordProtected, err)
	}
	return fmt.Errorf("%w: %v", docpipe.ErrDecodeFailed, err)
}

// checkPage validates a 1-based page number against a page count.
func checkPage(page, count int) error {
	if page < 1 || page > count {
		return fmt.Errorf("%w: page %d of %d", docpipe.ErrValidation, page, count)
	}
	return nil
}
