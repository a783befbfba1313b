package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/lvillar/docpipe"
)

// EncoderFunc writes img to w in one concrete encoding. Quality is in [0,1]
// and only consulted by lossy codecs.
type EncoderFunc func(w io.Writer, img image.Image, quality float64) error

// FallbackTable declares, per requested encoding, the ordered encodings to
// try when the requested one has no registered encoder or fails to encode.
// Keeping the substitution in a table makes it deterministic and testable
// instead of an incidental runtime behavior.
type FallbackTable map[docpipe.Encoding][]docpipe.Encoding

// DefaultFallbackTable routes encodings that commonly lack an encoder toward
// PNG, with JPEG as the last resort baseline.
func DefaultFallbackTable() FallbackTable {
	return FallbackTable{
		docpipe.EncodingWebP: {docpipe.EncodingPNG, docpipe.EncodingJPEG},
		docpipe.EncodingGIF:  {docpipe.EncodingPNG, docpipe.EncodingJPEG},
		docpipe.EncodingTIFF: {docpipe.EncodingPNG, docpipe.EncodingJPEG},
		docpipe.EncodingBMP:  {docpipe.EncodingPNG, docpipe.EncodingJPEG},
		docpipe.EncodingPNG:  {docpipe.EncodingJPEG},
		docpipe.EncodingJPEG: {docpipe.EncodingPNG},
	}
}

func defaultEncoders() map[docpipe.Encoding]EncoderFunc {
	return map[docpipe.Encoding]EncoderFunc{
		docpipe.EncodingPNG: func(w io.Writer, img image.Image, _ float64) error {
			return png.Encode(w, img)
		},
		docpipe.EncodingJPEG: func(w io.Writer, img image.Image, quality float64) error {
			return jpeg.Encode(w, img, &jpeg.Options{Quality: lossyQuality(quality)})
		},
		docpipe.EncodingGIF: func(w io.Writer, img image.Image, _ float64) error {
			return gif.Encode(w, img, nil)
		},
		docpipe.EncodingBMP: func(w io.Writer, img image.Image, _ float64) error {
			return bmp.Encode(w, img)
		},
		docpipe.EncodingTIFF: func(w io.Writer, img image.Image, _ float64) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		},
		docpipe.EncodingWebP: func(w io.Writer, img image.Image, quality float64) error {
			return webp.Encode(w, img, &webp.Options{Quality: float32(lossyQuality(quality))})
		},
	}
}

// lossyQuality maps the pipeline's 0..1 quality to a codec's 1..100 scale,
// defaulting to 90.
func lossyQuality(q float64) int {
	if q <= 0 || q > 1 {
		return 90
	}
	v := int(q*100 + 0.5)
	if v < 1 {
		v = 1
	}
	return v
}

// hasAlpha reports whether the encoding carries a transparency channel.
// Targets without one get an opaque background fill before drawing.
func hasAlpha(enc docpipe.Encoding) bool {
	switch enc {
	case docpipe.EncodingJPEG, docpipe.EncodingBMP:
		return false
	default:
		return true
	}
}

// EncodeImage encodes an already-decoded image through the declared
// fallback chain, flattening onto an opaque background when the target has
// no transparency channel.
func (c *Converter) EncodeImage(img image.Image, target docpipe.Encoding, quality float64) ([]byte, docpipe.Encoding, error) {
	surface := NewSurfaceFrom(img, !hasAlpha(target))
	defer surface.Release()
	return c.encode(surface, target, quality)
}

// encode writes the surface in the requested encoding, walking the declared
// fallback chain when the request cannot be served. It returns the bytes and
// the encoding actually used; the caller reports a substitution warning when
// they differ.
func (c *Converter) encode(s *Surface, requested docpipe.Encoding, quality float64) ([]byte, docpipe.Encoding, error) {
	chain := append([]docpipe.Encoding{requested}, c.fallbacks[requested]...)

	var lastErr error
	for _, enc := range chain {
		fn, ok := c.encoders[enc]
		if !ok {
			continue
		}
		var buf bytes.Buffer
		if err := fn(&buf, s.Image(), quality); err != nil {
			lastErr = err
			c.log.Debug().Str("encoding", string(enc)).Err(err).Msg("encoder failed, trying fallback")
			continue
		}
		return buf.Bytes(), enc, nil
	}

	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: encoding %s: %v", docpipe.ErrResourceUnavailable, requested, lastErr)
	}
	return nil, "", fmt.Errorf("%w: no encoder for %s or its fallbacks", docpipe.ErrResourceUnavailable, requested)
}
