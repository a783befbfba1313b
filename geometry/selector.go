// Package geometry implements the placement math of the pipeline: resolving
// page selectors to index sets, generating stamp bitmaps, computing anchor
// placements, and converting between top-left-origin raster coordinates and
// bottom-left-origin document coordinates.
//
// Page indices are 0-based everywhere in this package; selector range
// expressions use 1-based pages, matching the external boundary.
package geometry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lvillar/docpipe"
)

// ResolvePages resolves a PageSelector against a concrete page count and
// returns a sorted set of 0-based indices, always a subset of [0, total-1].
//
// Custom ranges are comma-separated tokens, each a single 1-based page or a
// dash range ("1,3-5,9"). Endpoints are clamped into [1,total], reversed
// ranges are swapped, and unparsable tokens are skipped.
func ResolvePages(total int, sel docpipe.PageSelector) ([]int, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: page count %d", docpipe.ErrValidation, total)
	}

	mode := sel.Mode
	if mode == "" {
		mode = docpipe.SelectAll
	}

	switch mode {
	case docpipe.SelectAll:
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i
		}
		return pages, nil

	case docpipe.SelectOdd, docpipe.SelectEven:
		// "odd"/"even" refer to 1-based page numbers: odd pages start at
		// index 0, even pages at index 1.
		start := 0
		if mode == docpipe.SelectEven {
			start = 1
		}
		var pages []int
		for i := start; i < total; i += 2 {
			pages = append(pages, i)
		}
		return pages, nil

	case docpipe.SelectCustom:
		return resolveCustom(total, sel.Range), nil

	default:
		return nil, fmt.Errorf("%w: selector mode %q", docpipe.ErrValidation, mode)
	}
}

// resolveCustom parses a comma-separated range expression into a sorted,
// deduplicated index set.
func resolveCustom(total int, expr string) []int {
	seen := make(map[int]bool)

	for _, token := range strings.Split(expr, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		start, end, ok := parseToken(token)
		if !ok {
			continue // unparsable tokens are skipped, not errors
		}
		if start > end {
			start, end = end, start
		}
		start = clamp(start, 1, total)
		end = clamp(end, 1, total)

		for p := start; p <= end; p++ {
			seen[p-1] = true
		}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// parseToken parses "5" or "3-7" into a 1-based inclusive range.
func parseToken(token string) (start, end int, ok bool) {
	if before, after, found := strings.Cut(token, "-"); found {
		s, err1 := strconv.Atoi(strings.TrimSpace(before))
		e, err2 := strconv.Atoi(strings.TrimSpace(after))
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return s, e, true
	}
	p, err := strconv.Atoi(token)
	if err != nil {
		return 0, 0, false
	}
	return p, p, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
