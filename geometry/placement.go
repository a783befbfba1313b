package geometry

import "github.com/lvillar/docpipe"

// Padding between a corner-anchored stamp and the page edge, in page units.
const anchorPadding = 20.0

// Default tiling grid dimensions.
const (
	DefaultTileRows = 4
	DefaultTileCols = 3
)

// Placement is a stamp position in top-left-origin raster space: X grows
// right, Y grows down, both in page units.
type Placement struct {
	X, Y float64
}

// Placements computes where a stamp of stampW×stampH lands on a pageW×pageH
// page. Corner and center anchors yield one coordinate; the tiled anchor
// yields a rows×cols grid (rows×cols defaulting to 4×3) with gaps computed
// from the space the stamps leave over.
func Placements(anchor docpipe.Anchor, pageW, pageH, stampW, stampH float64, rows, cols int) []Placement {
	switch anchor {
	case docpipe.AnchorTopLeft:
		return []Placement{{X: anchorPadding, Y: anchorPadding}}
	case docpipe.AnchorTopCenter:
		return []Placement{{X: (pageW - stampW) / 2, Y: anchorPadding}}
	case docpipe.AnchorTopRight:
		return []Placement{{X: pageW - stampW - anchorPadding, Y: anchorPadding}}
	case docpipe.AnchorBottomLeft:
		return []Placement{{X: anchorPadding, Y: pageH - stampH - anchorPadding}}
	case docpipe.AnchorBottomCenter:
		return []Placement{{X: (pageW - stampW) / 2, Y: pageH - stampH - anchorPadding}}
	case docpipe.AnchorBottomRight:
		return []Placement{{X: pageW - stampW - anchorPadding, Y: pageH - stampH - anchorPadding}}
	case docpipe.AnchorTiled:
		return tile(pageW, pageH, stampW, stampH, rows, cols)
	default: // center
		return []Placement{{X: (pageW - stampW) / 2, Y: (pageH - stampH) / 2}}
	}
}

// tile lays stamps out in a grid. Gaps distribute the remaining space evenly,
// including the margins, so all placements stay non-negative and strictly
// increasing even when the stamps overflow the page.
func tile(pageW, pageH, stampW, stampH float64, rows, cols int) []Placement {
	if rows <= 0 {
		rows = DefaultTileRows
	}
	if cols <= 0 {
		cols = DefaultTileCols
	}

	gapX := (pageW - float64(cols)*stampW) / float64(cols+1)
	gapY := (pageH - float64(rows)*stampH) / float64(rows+1)
	if gapX < 0 {
		gapX = 0
	}
	if gapY < 0 {
		gapY = 0
	}

	placements := make([]Placement, 0, rows*cols)
	for r := 0; r < rows; r++ {
		y := gapY + float64(r)*(stampH+gapY)
		for c := 0; c < cols; c++ {
			x := gapX + float64(c)*(stampW+gapX)
			placements = append(placements, Placement{X: x, Y: y})
		}
	}
	return placements
}

// RasterToDocY converts a top-left-origin Y coordinate to the
// bottom-left-origin document convention for a stamp of the given height.
func RasterToDocY(rasterY, pageH, stampH float64) float64 {
	return pageH - rasterY - stampH
}

// DocToRasterY is the inverse of RasterToDocY. The conversion is an
// involution, so the formula is identical.
func DocToRasterY(docY, pageH, stampH float64) float64 {
	return pageH - docY - stampH
}
