// Package pipeline orchestrates a full transformation run: it classifies the
// requested tasks into a plan, drives the convert and compose packages over
// each planned item in sequence, accumulates per-source warnings, and packages
// the produced artifacts into an output bundle.
package pipeline

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/lvillar/docpipe/assetstore"
	"github.com/lvillar/docpipe/compose"
	"github.com/lvillar/docpipe/convert"
	"github.com/lvillar/docpipe/pagedoc"
)

// yieldInterval is how many planned items are processed between cooperative
// yields.
const yieldInterval = 4

// Pipeline runs transformation requests. Construct with New; the zero value
// is not usable.
type Pipeline struct {
	conv    *convert.Converter
	comp    *compose.Composer
	decoder pagedoc.Decoder
	store   assetstore.Store
	log     zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConverter replaces the default format converter.
func WithConverter(conv *convert.Converter) Option {
	return func(p *Pipeline) {
		p.conv = conv
	}
}

// WithComposer replaces the default document composer.
func WithComposer(comp *compose.Composer) Option {
	return func(p *Pipeline) {
		p.comp = comp
	}
}

// WithDecoder replaces the default paginated-document decoder used for page
// counting when a page selector has to be resolved.
func WithDecoder(d pagedoc.Decoder) Option {
	return func(p *Pipeline) {
		p.decoder = d
	}
}

// WithAssetStore injects the store that resolves ImageStampSpec.AssetKey.
// Without a store, asset-key stamps fail with ErrResourceUnavailable.
func WithAssetStore(s assetstore.Store) Option {
	return func(p *Pipeline) {
		p.store = s
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
		p.conv = convert.New(convert.WithLogger(log))
		p.comp = compose.New(compose.WithLogger(log), compose.WithConverter(p.conv))
	}
}

// New returns a Pipeline with default codecs. Options are applied in order,
// so WithLogger should come before WithConverter or WithComposer when both
// are given.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		conv:    convert.New(),
		comp:    compose.New(),
		decoder: pagedoc.NewPDFDecoder(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
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
