package compose

import (
	"context"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/lvillar/docpipe"
)

// Insert returns target with one page inserted. The insertion index is
// spec.Anchor-1 for "before" and spec.Anchor for "after", clamped into
// [0, pageCount]. The inserted page is either blank, sized like the first
// existing page, or page spec.FromPage copied out of from.
func (c *Composer) Insert(ctx context.Context, target []byte, spec docpipe.InsertSpec, from []byte) ([]byte, error) {
	doc, err := c.decoder.Decode(target)
	if err != nil {
		return nil, docpipe.NewOpError("Insert", "", err)
	}
	count := doc.PageCount()

	index := spec.Anchor // after
	if spec.Mode == docpipe.InsertBefore {
		index = spec.Anchor - 1
	}
	if index < 0 {
		index = 0
	}
	if index > count {
		index = count
	}

	if !spec.Blank {
		if from == nil {
			return nil, docpipe.NewOpError("Insert", "",
				fmt.Errorf("%w: no source document for page copy", docpipe.ErrValidation))
		}
		fromDoc, err := c.decoder.Decode(from)
		if err != nil {
			return nil, docpipe.NewOpError("Insert", "", err)
		}
		if spec.FromPage < 1 || spec.FromPage > fromDoc.PageCount() {
			return nil, docpipe.NewOpError("Insert", "",
				fmt.Errorf("%w: page %d of %d", docpipe.ErrValidation, spec.FromPage, fromDoc.PageCount()))
		}
	}

	firstW, firstH, err := doc.PageSize(1)
	if err != nil {
		return nil, docpipe.NewOpError("Insert", "", err)
	}

	pdf := newBasePDF()
	imp := gofpdi.NewImporter()
	rs := readSeeker(target)

	insert := func() {
		if spec.Blank {
			pdf.AddPageFormat("P", fpdf.SizeType{Wd: firstW, Ht: firstH})
			return
		}
		copyPage(pdf, gofpdi.NewImporter(), readSeeker(from), spec.FromPage)
	}

	for page := 0; page <= count; page++ {
		if page == index {
			insert()
		}
		if page < count {
			copyPage(pdf, imp, rs, page+1)
		}
		if err := yield(ctx, page); err != nil {
			return nil, err
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, docpipe.NewOpError("Insert", "", err)
	}
	return output(pdf)
}
