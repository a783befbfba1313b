package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sort"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/lvillar/docpipe"
	"github.com/lvillar/docpipe/convert"
)

// normalizeRotation folds an additive delta into [0,360) and validates it is
// a multiple of 90, the only rotations a page container can store.
func normalizeRotation(delta int) (int, error) {
	if delta%90 != 0 {
		return 0, fmt.Errorf("%w: rotation %d is not a multiple of 90", docpipe.ErrValidation, delta)
	}
	norm := delta % 360
	if norm < 0 {
		norm += 360
	}
	return norm, nil
}

// Rotate applies additive per-page rotation deltas to a paginated document
// by updating the stored page-rotation metadata. Deltas map 1-based pages to
// degrees; a normalized delta of 0 leaves the page untouched.
func (c *Composer) Rotate(ctx context.Context, data []byte, deltas map[int]int) ([]byte, error) {
	doc, err := c.decoder.Decode(data)
	if err != nil {
		return nil, docpipe.NewOpError("Rotate", "", err)
	}
	count := doc.PageCount()

	// Group pages by normalized delta so each distinct rotation is one
	// metadata pass.
	groups := make(map[int][]string)
	for page, delta := range deltas {
		if page < 1 || page > count {
			return nil, docpipe.NewOpError("Rotate", "",
				fmt.Errorf("%w: page %d of %d", docpipe.ErrValidation, page, count))
		}
		norm, err := normalizeRotation(delta)
		if err != nil {
			return nil, docpipe.NewOpError("Rotate", "", err)
		}
		if norm == 0 {
			continue
		}
		groups[norm] = append(groups[norm], strconv.Itoa(page))
	}

	// Deterministic application order.
	rotations := make([]int, 0, len(groups))
	for norm := range groups {
		rotations = append(rotations, norm)
	}
	sort.Ints(rotations)

	current := data
	for i, norm := range rotations {
		pages := groups[norm]
		sort.Strings(pages)

		var buf bytes.Buffer
		if err := api.Rotate(bytes.NewReader(current), &buf, norm, pages, nil); err != nil {
			return nil, docpipe.NewOpError("Rotate", "", err)
		}
		current = buf.Bytes()

		if err := yield(ctx, i); err != nil {
			return nil, err
		}
	}

	return current, nil
}

// RotateRaster rotates a standalone raster by a multiple of 90 degrees
// clockwise and re-encodes it. Odd multiples swap the pixel dimensions.
func (c *Composer) RotateRaster(data []byte, delta int, target docpipe.Encoding, quality float64) ([]byte, docpipe.Encoding, error) {
	norm, err := normalizeRotation(delta)
	if err != nil {
		return nil, "", docpipe.NewOpError("RotateRaster", "", err)
	}

	img, src, err := convert.DecodeRaster(data)
	if err != nil {
		return nil, "", docpipe.NewOpError("RotateRaster", "", err)
	}
	if target == "" {
		target = src
	}

	var rotated image.Image = img
	switch norm {
	case 90:
		rotated = imaging.Rotate270(img) // imaging rotates counter-clockwise
	case 180:
		rotated = imaging.Rotate180(img)
	case 270:
		rotated = imaging.Rotate90(img)
	}

	out, actual, err := c.conv.EncodeImage(rotated, target, quality)
	if err != nil {
		return nil, "", docpipe.NewOpError("RotateRaster", "", err)
	}
	return out, actual, nil
}
