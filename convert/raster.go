package convert

import (
	"bytes"
	"fmt"
	"image"

	// Decoder registrations for image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lvillar/docpipe"
)

// DecodeRaster decodes raster bytes into an image and reports the source
// encoding.
func DecodeRaster(data []byte) (image.Image, docpipe.Encoding, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// Name the actual content type in the failure; "corrupt png" and
		// "this is a zip file" are very different user problems.
		mt := mimetype.Detect(data)
		return nil, "", fmt.Errorf("%w: %s content: %v", docpipe.ErrDecodeFailed, mt.String(), err)
	}
	return img, docpipe.Encoding(format), nil
}

// RasterToRaster re-encodes a raster into the target encoding, filling an
// opaque background only when the target has no transparency channel. The
// returned encoding differs from the requested one when the declared
// fallback chain substituted it.
func (c *Converter) RasterToRaster(data []byte, target docpipe.Encoding, quality float64) ([]byte, docpipe.Encoding, error) {
	if target == "" || target == docpipe.EncodingPDF {
		return nil, "", fmt.Errorf("%w: raster target %q", docpipe.ErrValidation, target)
	}

	img, src, err := DecodeRaster(data)
	if err != nil {
		return nil, "", err
	}
	c.log.Debug().Str("from", string(src)).Str("to", string(target)).Msg("raster re-encode")

	surface := NewSurfaceFrom(img, !hasAlpha(target))
	defer surface.Release()

	return c.encode(surface, target, quality)
}
