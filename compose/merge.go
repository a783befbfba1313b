package compose

import (
	"context"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/lvillar/docpipe"
	"github.com/lvillar/docpipe/convert"
)

// MergeSession tracks one merge run: how many pages accumulated and what
// happened to each source.
type MergeSession struct {
	Pages    int
	Outcomes []SourceOutcome
	Warnings []string
}

// SourceOutcome records the result for one merge input. Err is nil on
// success.
type SourceOutcome struct {
	SourceID string
	Err      error
}

// succeeded counts sources that contributed pages.
func (s *MergeSession) succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// MergeResult is the output of a merge: the combined document plus the
// session bookkeeping.
type MergeResult struct {
	Data    []byte
	Session MergeSession
}

// Merge combines the sources into one paginated document, in order. Raster
// sources become single pages at their native pixel size; paginated sources
// contribute all their pages.
//
// A source that fails to decode is recorded in the session and skipped; the
// call itself fails only when no source succeeds, with one aggregate error.
func (c *Composer) Merge(ctx context.Context, sources []docpipe.SourceAsset) (*MergeResult, error) {
	if len(sources) == 0 {
		return nil, docpipe.NewOpError("Merge", "", docpipe.ErrNoInput)
	}

	pdf := newBasePDF()
	session := MergeSession{}

	for i, src := range sources {
		err := c.appendSource(ctx, pdf, src, i, &session)
		if err != nil && ctx.Err() != nil {
			return nil, err // cancellation is not a per-source outcome
		}

		session.Outcomes = append(session.Outcomes, SourceOutcome{SourceID: src.ID, Err: err})
		if err != nil {
			session.Warnings = append(session.Warnings, SourceWarning(i+1, src.Name, err))
			c.log.Warn().Int("source", i+1).Err(err).Msg("merge: skipping source")
		}

		// Yield between sources so the host stays responsive on big
		// batches.
		if err := yield(ctx, i); err != nil {
			return nil, err
		}
	}

	if session.succeeded() == 0 {
		return nil, docpipe.NewOpError("Merge", "",
			fmt.Errorf("%w: %d sources, all failed", docpipe.ErrAllSourcesFailed, len(sources)))
	}

	data, err := output(pdf)
	if err != nil {
		return nil, err
	}
	return &MergeResult{Data: data, Session: session}, nil
}

// appendSource adds all pages of one source to the document being built.
func (c *Composer) appendSource(ctx context.Context, pdf *fpdf.Fpdf, src docpipe.SourceAsset, index int, session *MergeSession) error {
	switch src.Kind {
	case docpipe.KindRaster:
		if _, _, err := convert.AddRasterPage(pdf, src.Data, fmt.Sprintf("merge-src-%d", index)); err != nil {
			return err
		}
		session.Pages++
		return nil

	case docpipe.KindPaginated:
		doc, err := c.decoder.Decode(src.Data)
		if err != nil {
			return err
		}

		imp := gofpdi.NewImporter()
		rs := readSeeker(src.Data)
		for page := 1; page <= doc.PageCount(); page++ {
			copyPage(pdf, imp, rs, page)
			session.Pages++
			if err := yield(ctx, page-1); err != nil {
				return err
			}
		}
		return pdf.Error()

	default:
		return fmt.Errorf("%w: %s", docpipe.ErrUnsupportedMedia, src.Kind)
	}
}
