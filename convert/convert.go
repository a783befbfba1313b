// Package convert implements the format converter: raster re-encoding with a
// declared encoding-fallback table, raster-to-paginated embedding, and
// paginated-to-raster page extraction.
//
// Every decode/encode cycle draws through an ephemeral Surface that is
// released as soon as its one use is over, so peak memory stays bounded by a
// single page regardless of batch size.
package convert

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/lvillar/docpipe"
	"github.com/lvillar/docpipe/pagedoc"
)

// Rendering constants for paginated→raster extraction: the conceptual output
// density relative to the document unit baseline, and the pixel ceiling a
// rendered page may not exceed in either dimension.
const (
	renderDPI    = 300.0
	baselineDPI  = 72.0
	maxRenderDim = 4096
)

// yieldInterval is how many loop iterations run between cooperative yields.
const yieldInterval = 4

// Converter performs format conversions. The zero value is not usable; use
// New.
type Converter struct {
	rasterizer pagedoc.Rasterizer
	encoders   map[docpipe.Encoding]EncoderFunc
	fallbacks  FallbackTable
	log        zerolog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithRasterizer replaces the default MuPDF-backed page rasterizer.
func WithRasterizer(r pagedoc.Rasterizer) Option {
	return func(c *Converter) {
		c.rasterizer = r
	}
}

// WithFallbackTable replaces the declared encoding fallback table.
func WithFallbackTable(t FallbackTable) Option {
	return func(c *Converter) {
		c.fallbacks = t
	}
}

// WithEncoder registers or replaces the encoder for one encoding. Passing a
// nil function removes it, leaving the fallback table to route around it.
func WithEncoder(enc docpipe.Encoding, fn EncoderFunc) Option {
	return func(c *Converter) {
		if fn == nil {
			delete(c.encoders, enc)
			return
		}
		c.encoders[enc] = fn
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Converter) {
		c.log = log
	}
}

// New returns a Converter with the default codecs.
func New(opts ...Option) *Converter {
	c := &Converter{
		rasterizer: pagedoc.FitzRasterizer{},
		encoders:   defaultEncoders(),
		fallbacks:  DefaultFallbackTable(),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Surface is an ephemeral render buffer, exclusively owned by the operation
// that allocated it. Release it right after its one encode or decode use.
type Surface struct {
	Width  int
	Height int
	pix    *image.NRGBA
}

// NewSurface allocates a transparent surface.
func NewSurface(width, height int) *Surface {
	return &Surface{
		Width:  width,
		Height: height,
		pix:    image.NewNRGBA(image.Rect(0, 0, width, height)),
	}
}

// NewSurfaceFrom draws src onto a fresh surface. When opaque is set the
// surface is filled white first, flattening any transparency for targets
// without an alpha channel.
func NewSurfaceFrom(src image.Image, opaque bool) *Surface {
	b := src.Bounds()
	s := NewSurface(b.Dx(), b.Dy())
	if opaque {
		draw.Draw(s.pix, s.pix.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	}
	draw.Draw(s.pix, s.pix.Bounds(), src, b.Min, draw.Over)
	return s
}

// Image exposes the pixel buffer for the surface's single use.
func (s *Surface) Image() *image.NRGBA {
	return s.pix
}

// Release drops the pixel buffer. The surface must not be used afterwards.
func (s *Surface) Release() {
	s.pix = nil
}

// yield hands control back to the scheduler every few iterations and honors
// cancellation. Without it a long page loop starves progress delivery.
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
