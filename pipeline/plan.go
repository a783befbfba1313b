package pipeline

import (
	"fmt"
	"sort"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lvillar/docpipe"
)

// ItemKind states how a planned item is processed.
type ItemKind int

const (
	// ItemPassthrough copies the source bytes into the output unchanged.
	ItemPassthrough ItemKind = iota
	// ItemConvert runs one per-item conversion.
	ItemConvert
	// ItemMerge contributes the source to the run's single merge group.
	ItemMerge
)

// String returns the lowercase name of the item kind.
func (k ItemKind) String() string {
	switch k {
	case ItemPassthrough:
		return "passthrough"
	case ItemConvert:
		return "convert"
	default:
		return "merge"
	}
}

// PlanItem pairs one task with its resolved source and classification.
type PlanItem struct {
	Task           docpipe.ConversionTask
	Source         docpipe.SourceAsset
	SourceKind     docpipe.MediaKind
	SourceEncoding docpipe.Encoding
	Kind           ItemKind
}

// Plan is the partitioned task list. Items keep the task order; MergeGroup
// holds the indices of the items classified ItemMerge, in order.
type Plan struct {
	Items      []PlanItem
	MergeGroup []int
}

// sniffSource determines a source's media kind and encoding from its bytes.
// The declared kind wins when set; the encoding is always sniffed because
// declared names are unreliable.
func sniffSource(src docpipe.SourceAsset) (docpipe.MediaKind, docpipe.Encoding) {
	mt := mimetype.Detect(src.Data)
	var enc docpipe.Encoding
	var kind docpipe.MediaKind
	switch {
	case mt.Is("application/pdf"):
		kind, enc = docpipe.KindPaginated, docpipe.EncodingPDF
	case mt.Is("image/png"):
		kind, enc = docpipe.KindRaster, docpipe.EncodingPNG
	case mt.Is("image/jpeg"):
		kind, enc = docpipe.KindRaster, docpipe.EncodingJPEG
	case mt.Is("image/gif"):
		kind, enc = docpipe.KindRaster, docpipe.EncodingGIF
	case mt.Is("image/bmp"):
		kind, enc = docpipe.KindRaster, docpipe.EncodingBMP
	case mt.Is("image/tiff"):
		kind, enc = docpipe.KindRaster, docpipe.EncodingTIFF
	case mt.Is("image/webp"):
		kind, enc = docpipe.KindRaster, docpipe.EncodingWebP
	}
	if src.Kind != docpipe.KindUnknown {
		kind = src.Kind
	}
	return kind, enc
}

// hasPaginatedTransforms reports whether the settings request any operation
// that rules out a paginated passthrough.
func hasPaginatedTransforms(s docpipe.Settings) bool {
	return s.Watermark != nil || s.ImageStamp != nil || s.Insert != nil ||
		s.Pages != nil || len(s.RotationDeltas) > 0
}

// hasRasterTransforms reports whether the settings rotate a standalone
// raster. Only the first page's delta applies to a single-image source.
func hasRasterTransforms(s docpipe.Settings) bool {
	_, ok := s.RotationDeltas[1]
	return ok
}

// Classify partitions the tasks of a request. Tasks are ordered by their
// Order field. A task whose source encoding already matches the target and
// whose settings request no transforms becomes a passthrough. Tasks targeting
// the paginated kind join the merge group when settings.Merge is set and at
// least two of them qualify; with fewer than two the group degrades to
// per-item conversion.
func Classify(sources []docpipe.SourceAsset, tasks []docpipe.ConversionTask, settings docpipe.Settings) (*Plan, error) {
	byID := make(map[string]docpipe.SourceAsset, len(sources))
	for _, src := range sources {
		byID[src.ID] = src
	}

	ordered := make([]docpipe.ConversionTask, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Order < ordered[j].Order
	})

	plan := &Plan{Items: make([]PlanItem, 0, len(ordered))}
	for _, task := range ordered {
		src, ok := byID[task.SourceID]
		if !ok {
			return nil, docpipe.NewOpError("Classify", task.SourceID,
				fmt.Errorf("%w: unknown source id", docpipe.ErrValidation))
		}
		kind, enc := sniffSource(src)
		item := PlanItem{
			Task:           task,
			Source:         src,
			SourceKind:     kind,
			SourceEncoding: enc,
			Kind:           ItemConvert,
		}
		switch {
		case settings.Merge && task.TargetKind == docpipe.KindPaginated:
			item.Kind = ItemMerge
		case isPassthrough(item, settings):
			item.Kind = ItemPassthrough
		}
		plan.Items = append(plan.Items, item)
	}

	for i, item := range plan.Items {
		if item.Kind == ItemMerge {
			plan.MergeGroup = append(plan.MergeGroup, i)
		}
	}
	// A merge group of one is not a merge; fall back to per-item conversion.
	if len(plan.MergeGroup) < 2 {
		for _, i := range plan.MergeGroup {
			plan.Items[i].Kind = ItemConvert
			if isPassthrough(plan.Items[i], settings) {
				plan.Items[i].Kind = ItemPassthrough
			}
		}
		plan.MergeGroup = nil
	}
	return plan, nil
}

// isPassthrough reports whether the item's source bytes can be returned
// unchanged.
func isPassthrough(item PlanItem, settings docpipe.Settings) bool {
	if item.SourceKind != item.Task.TargetKind {
		return false
	}
	if item.Task.TargetEncoding != "" && item.Task.TargetEncoding != item.SourceEncoding {
		return false
	}
	if item.SourceKind == docpipe.KindPaginated {
		return !hasPaginatedTransforms(settings)
	}
	return !hasRasterTransforms(settings)
}
