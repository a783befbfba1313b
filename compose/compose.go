// Package compose implements document composition: merging sources,
// inserting and rotating pages, extracting page subsets, and stamping
// watermark overlays placed by the geometry package.
//
// Sources are in-memory byte slices. Paginated inputs are validated through
// the injected pagedoc.Decoder before their pages are imported as templates
// into a fresh document, so broken or password-protected sources are
// classified instead of failing mid-import.
package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/rs/zerolog"

	"github.com/lvillar/docpipe"
	"github.com/lvillar/docpipe/convert"
	"github.com/lvillar/docpipe/pagedoc"
)

// yieldInterval is how many sources or pages are processed between
// cooperative yields.
const yieldInterval = 4

// Composer performs composition operations with injected codecs.
type Composer struct {
	decoder pagedoc.Decoder
	conv    *convert.Converter
	log     zerolog.Logger
}

// Option configures a Composer.
type Option func(*Composer)

// WithDecoder replaces the default pdfcpu-backed document decoder.
func WithDecoder(d pagedoc.Decoder) Option {
	return func(c *Composer) {
		c.decoder = d
	}
}

// WithConverter sets the format converter used for raster embedding and
// re-encoding.
func WithConverter(conv *convert.Converter) Option {
	return func(c *Composer) {
		c.conv = conv
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Composer) {
		c.log = log
	}
}

// New returns a Composer with default codecs.
func New(opts ...Option) *Composer {
	c := &Composer{
		decoder: pagedoc.NewPDFDecoder(),
		conv:    convert.New(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// newBasePDF creates the output document every composition op builds into.
// Template importers are created per source; gofpdi keys page sizes by the
// stream it last read.
func newBasePDF() *fpdf.Fpdf {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	return pdf
}

// importPage imports one 1-based page of a source into the target document
// and returns the template ID and the page dimensions.
func importPage(pdf *fpdf.Fpdf, imp *gofpdi.Importer, rs *io.ReadSeeker, pageNum int) (tplID int, w, h float64) {
	tplID = imp.ImportPageFromStream(pdf, rs, pageNum, "/MediaBox")
	sizes := imp.GetPageSizes()
	if dims, ok := sizes[pageNum]; ok {
		if mb, ok := dims["/MediaBox"]; ok {
			w = mb["w"]
			h = mb["h"]
		}
	}
	if w == 0 || h == 0 {
		w = 595.28 // A4 default
		h = 841.89
	}
	return
}

// copyPage imports a page and lays it down full size on a new page of the
// same dimensions.
func copyPage(pdf *fpdf.Fpdf, imp *gofpdi.Importer, rs *io.ReadSeeker, pageNum int) (w, h float64) {
	tplID, w, h := importPage(pdf, imp, rs, pageNum)
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
	imp.UseImportedTemplate(pdf, tplID, 0, 0, w, h)
	return
}

// output finalizes the built document.
func output(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("compose: writing output: %w", err)
	}
	return buf.Bytes(), nil
}

// readSeeker adapts source bytes for the template importer.
func readSeeker(data []byte) *io.ReadSeeker {
	rs := io.ReadSeeker(bytes.NewReader(data))
	return &rs
}

// yield hands control back to the scheduler every few iterations and honors
// cancellation.
func yield(ctx context.Context, i int) error {
	if (i+1)%yieldInterval != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}

// failureReason renders a classified per-source error for the warnings list.
func failureReason(err error) string {
	switch {
	case errors.Is(err, docpipe.ErrPasswordProtected):
		return "password protected"
	case errors.Is(err, docpipe.ErrDecodeFailed):
		return "could not be decoded"
	case errors.Is(err, docpipe.ErrUnsupportedMedia):
		return "unsupported media kind"
	default:
		return err.Error()
	}
}

// SourceWarning formats the human-readable warning for one failed source.
// Index is 1-based, matching the external boundary.
func SourceWarning(index int, name string, err error) string {
	if name != "" {
		return fmt.Sprintf("source %d (%s): %s", index, name, failureReason(err))
	}
	return fmt.Sprintf("source %d: %s", index, failureReason(err))
}
