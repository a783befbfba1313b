package compose

import (
	"context"
	"fmt"

	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/lvillar/docpipe"
)

// ExtractPages copies the given 1-based pages of a paginated document, in
// the order given, into a new document.
func (c *Composer) ExtractPages(ctx context.Context, data []byte, pages []int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, docpipe.NewOpError("ExtractPages", "", docpipe.ErrNoInput)
	}

	doc, err := c.decoder.Decode(data)
	if err != nil {
		return nil, docpipe.NewOpError("ExtractPages", "", err)
	}
	count := doc.PageCount()

	for _, page := range pages {
		if page < 1 || page > count {
			return nil, docpipe.NewOpError("ExtractPages", "",
				fmt.Errorf("%w: page %d of %d", docpipe.ErrValidation, page, count))
		}
	}

	pdf := newBasePDF()
	imp := gofpdi.NewImporter()
	rs := readSeeker(data)

	for i, page := range pages {
		copyPage(pdf, imp, rs, page)
		if err := yield(ctx, i); err != nil {
			return nil, err
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, docpipe.NewOpError("ExtractPages", "", err)
	}
	return output(pdf)
}
