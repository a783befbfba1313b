package pagedoc

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/lvillar/docpipe"
)

// PDFDecoder is the default Decoder, backed by pdfcpu.
type PDFDecoder struct {
	conf *model.Configuration
}

// NewPDFDecoder returns a decoder with relaxed validation, so documents with
// cosmetic structure issues still decode.
func NewPDFDecoder() *PDFDecoder {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &PDFDecoder{conf: conf}
}

// Decode parses and validates the document.
func (d *PDFDecoder) Decode(data []byte) (Document, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), d.conf)
	if err != nil {
		return nil, classifyDecodeError(err)
	}

	dims, err := ctx.PageDims()
	if err != nil {
		return nil, classifyDecodeError(err)
	}

	return &pdfDocument{count: ctx.PageCount, dims: dims}, nil
}

type pdfDocument struct {
	count int
	dims  []types.Dim
}

func (d *pdfDocument) PageCount() int {
	return d.count
}

func (d *pdfDocument) PageSize(page int) (float64, float64, error) {
	if err := checkPage(page, d.count); err != nil {
		return 0, 0, err
	}
	if page > len(d.dims) {
		return 0, 0, fmt.Errorf("%w: no dimensions for page %d", docpipe.ErrDecodeFailed, page)
	}
	dim := d.dims[page-1]
	return dim.Width, dim.Height, nil
}
