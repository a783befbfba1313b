package pipeline

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/lvillar/docpipe"
	"github.com/lvillar/docpipe/compose"
	"github.com/lvillar/docpipe/geometry"
)

// Request is one pipeline invocation: the submitted sources, the ordered task
// list, the run settings, and the caller's progress callbacks.
type Request struct {
	Sources      []docpipe.SourceAsset
	Tasks        []docpipe.ConversionTask
	Settings     docpipe.Settings
	OnProgress   func(percent int, label string)
	OnItemStatus func(index int, status docpipe.ItemStatus)
}

// Result is a successful run's output: the packaged bundle plus the
// human-readable warnings collected from non-fatal per-source failures.
type Result struct {
	Bundle   docpipe.OutputBundle
	Warnings []string
}

// Run executes the request sequentially: classify, process each planned item,
// package. Per-item failures in a multi-item run become warnings; a
// single-item failure is fatal with no partial output. The whole call fails
// when there are no tasks, when every item fails, or on cancellation.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if len(req.Tasks) == 0 {
		return nil, docpipe.NewOpError("Run", "", docpipe.ErrNoInput)
	}
	runID := uuid.NewString()
	log := p.log.With().Str("run", runID).Logger()
	log.Info().Int("tasks", len(req.Tasks)).Msg("run started")

	rep := NewReporter(req.OnProgress, req.OnItemStatus)
	rep.Step(2, "planning")

	settings := req.Settings
	if settings.Quality == 0 {
		settings.Quality = 0.9
	}
	plan, err := Classify(req.Sources, req.Tasks, settings)
	if err != nil {
		return nil, err
	}

	insertFrom, err := p.resolveInsertSource(req.Sources, settings)
	if err != nil {
		return nil, err
	}

	single := len(plan.Items) == 1
	var artifacts []docpipe.OutputArtifact
	var warnings []string
	done := 0
	total := len(plan.Items)
	mergeDone := false

	for i, item := range plan.Items {
		if err := yield(ctx, i); err != nil {
			return nil, err
		}

		if item.Kind == ItemMerge {
			if mergeDone {
				continue
			}
			mergeDone = true
			arts, warns, err := p.runMerge(ctx, plan, settings, insertFrom, rep)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				if len(plan.MergeGroup) == total {
					return nil, err
				}
				warnings = append(warnings, fmt.Sprintf("merge: %v", err))
			}
			artifacts = append(artifacts, arts...)
			warnings = append(warnings, warns...)
			done += len(plan.MergeGroup)
			rep.Step(5+85*done/total, "merging")
			continue
		}

		rep.Item(i, docpipe.ItemProcessing)
		arts, warns, err := p.processItem(ctx, i, item, settings, insertFrom)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if single {
				return nil, err
			}
			log.Warn().Err(err).Str("source", item.Source.ID).Msg("item failed")
			warnings = append(warnings, compose.SourceWarning(i+1, item.Source.Name, err))
		}
		artifacts = append(artifacts, arts...)
		warnings = append(warnings, warns...)
		rep.Item(i, docpipe.ItemDone)
		done++
		rep.Step(5+85*done/total, "processing")
	}

	if len(artifacts) == 0 {
		return nil, docpipe.NewOpError("Run", "", docpipe.ErrAllSourcesFailed)
	}

	rep.Step(95, "packaging")
	bundle := BuildBundle(artifacts)
	rep.Step(100, "done")
	log.Info().Int("artifacts", len(bundle.Artifacts)).
		Int("warnings", len(warnings)).Msg("run finished")
	return &Result{Bundle: bundle, Warnings: warnings}, nil
}

// resolveInsertSource looks up the source an InsertSpec copies from. It is
// nil when no insertion is requested or a blank page is inserted.
func (p *Pipeline) resolveInsertSource(sources []docpipe.SourceAsset, settings docpipe.Settings) ([]byte, error) {
	ins := settings.Insert
	if ins == nil || ins.Blank {
		return nil, nil
	}
	for _, src := range sources {
		if src.ID == ins.FromSource {
			return src.Data, nil
		}
	}
	return nil, docpipe.NewOpError("Run", ins.FromSource,
		fmt.Errorf("%w: unknown insert source", docpipe.ErrValidation))
}

// runMerge processes the plan's merge group into one paginated artifact.
func (p *Pipeline) runMerge(ctx context.Context, plan *Plan, settings docpipe.Settings, insertFrom []byte, rep *Reporter) ([]docpipe.OutputArtifact, []string, error) {
	group := make([]docpipe.SourceAsset, 0, len(plan.MergeGroup))
	for _, i := range plan.MergeGroup {
		rep.Item(i, docpipe.ItemProcessing)
		src := plan.Items[i].Source
		src.Kind = plan.Items[i].SourceKind // composer switches on the sniffed kind
		group = append(group, src)
	}

	res, err := p.comp.Merge(ctx, group)
	if err != nil {
		return nil, nil, err
	}
	data, err := p.applyPaginated(ctx, res.Data, settings, insertFrom)
	if err != nil {
		return nil, res.Session.Warnings, err
	}
	for _, i := range plan.MergeGroup {
		rep.Item(i, docpipe.ItemDone)
	}
	art := docpipe.OutputArtifact{
		Name:      "merged.pdf",
		Data:      data,
		MediaType: docpipe.EncodingPDF.MediaType(),
	}
	return []docpipe.OutputArtifact{art}, res.Session.Warnings, nil
}

// processItem runs one passthrough or per-item conversion and returns the
// artifacts it produced plus any encoding-substitution warnings.
func (p *Pipeline) processItem(ctx context.Context, index int, item PlanItem, settings docpipe.Settings, insertFrom []byte) ([]docpipe.OutputArtifact, []string, error) {
	if item.Kind == ItemPassthrough {
		art := docpipe.OutputArtifact{
			Name:      artifactName(item.Source, item.SourceEncoding),
			Data:      item.Source.Data,
			MediaType: item.SourceEncoding.MediaType(),
		}
		return []docpipe.OutputArtifact{art}, nil, nil
	}

	switch {
	case item.SourceKind == docpipe.KindRaster && item.Task.TargetKind == docpipe.KindRaster:
		return p.convertRaster(index, item, settings)
	case item.SourceKind == docpipe.KindRaster && item.Task.TargetKind == docpipe.KindPaginated:
		data, err := p.conv.RasterToPaginated(ctx, item.Source.Data)
		if err != nil {
			return nil, nil, err
		}
		data, err = p.applyPaginated(ctx, data, settings, insertFrom)
		if err != nil {
			return nil, nil, err
		}
		art := docpipe.OutputArtifact{
			Name:      artifactName(item.Source, docpipe.EncodingPDF),
			Data:      data,
			MediaType: docpipe.EncodingPDF.MediaType(),
		}
		return []docpipe.OutputArtifact{art}, nil, nil
	case item.SourceKind == docpipe.KindPaginated && item.Task.TargetKind == docpipe.KindRaster:
		return p.rasterizePages(ctx, item, settings)
	case item.SourceKind == docpipe.KindPaginated && item.Task.TargetKind == docpipe.KindPaginated:
		data, err := p.applyPaginated(ctx, item.Source.Data, settings, insertFrom)
		if err != nil {
			return nil, nil, err
		}
		art := docpipe.OutputArtifact{
			Name:      artifactName(item.Source, docpipe.EncodingPDF),
			Data:      data,
			MediaType: docpipe.EncodingPDF.MediaType(),
		}
		return []docpipe.OutputArtifact{art}, nil, nil
	default:
		return nil, nil, docpipe.NewOpError("Run", item.Source.ID, docpipe.ErrUnsupportedMedia)
	}
}

// convertRaster re-encodes (and optionally rotates) a single raster source.
func (p *Pipeline) convertRaster(index int, item PlanItem, settings docpipe.Settings) ([]docpipe.OutputArtifact, []string, error) {
	target := item.Task.TargetEncoding
	if target == "" {
		target = docpipe.EncodingPNG
	}

	var data []byte
	var actual docpipe.Encoding
	var err error
	if delta, ok := settings.RotationDeltas[1]; ok {
		data, actual, err = p.comp.RotateRaster(item.Source.Data, delta, target, settings.Quality)
	} else {
		data, actual, err = p.conv.RasterToRaster(item.Source.Data, target, settings.Quality)
	}
	if err != nil {
		return nil, nil, docpipe.NewOpError("RasterToRaster", item.Source.ID, err)
	}

	var warnings []string
	if actual != target {
		warnings = append(warnings, fmt.Sprintf("source %d: encoded as %s instead of %s",
			index+1, actual, target))
	}
	art := docpipe.OutputArtifact{
		Name:      artifactName(item.Source, actual),
		Data:      data,
		MediaType: actual.MediaType(),
	}
	return []docpipe.OutputArtifact{art}, warnings, nil
}

// rasterizePages renders the selected pages of a paginated source, one
// artifact per page.
func (p *Pipeline) rasterizePages(ctx context.Context, item PlanItem, settings docpipe.Settings) ([]docpipe.OutputArtifact, []string, error) {
	target := item.Task.TargetEncoding
	if target == "" {
		target = docpipe.EncodingPNG
	}

	var pages []int
	if settings.Pages != nil {
		var err error
		pages, err = p.resolveSelector(item.Source.Data, *settings.Pages)
		if err != nil {
			return nil, nil, err
		}
	}

	images, err := p.conv.PaginatedToRaster(ctx, item.Source.Data, pages, target, settings.Quality)
	if err != nil {
		return nil, nil, err
	}

	base := baseName(item.Source)
	var artifacts []docpipe.OutputArtifact
	var warnings []string
	for _, img := range images {
		if img.Encoding != target {
			warnings = append(warnings, fmt.Sprintf("source %s page %d: encoded as %s instead of %s",
				item.Source.ID, img.Page, img.Encoding, target))
		}
		artifacts = append(artifacts, docpipe.OutputArtifact{
			Name:      fmt.Sprintf("%s-p%d%s", base, img.Page, img.Encoding.Ext()),
			Data:      img.Data,
			MediaType: img.Encoding.MediaType(),
		})
	}
	return artifacts, warnings, nil
}

// applyPaginated runs the settings' document transforms over a paginated
// output, in a fixed order: page extraction, insertion, rotation, watermark,
// image stamp.
func (p *Pipeline) applyPaginated(ctx context.Context, data []byte, settings docpipe.Settings, insertFrom []byte) ([]byte, error) {
	var err error

	if settings.Pages != nil {
		var pages []int
		pages, err = p.resolveSelector(data, *settings.Pages)
		if err != nil {
			return nil, err
		}
		data, err = p.comp.ExtractPages(ctx, data, pages)
		if err != nil {
			return nil, err
		}
	}

	if settings.Insert != nil {
		data, err = p.comp.Insert(ctx, data, *settings.Insert, insertFrom)
		if err != nil {
			return nil, err
		}
	}

	if len(settings.RotationDeltas) > 0 {
		data, err = p.comp.Rotate(ctx, data, settings.RotationDeltas)
		if err != nil {
			return nil, err
		}
	}

	if settings.Watermark != nil {
		data, err = p.comp.ApplyWatermark(ctx, data, *settings.Watermark)
		if err != nil {
			return nil, err
		}
	}

	if settings.ImageStamp != nil {
		overlay := settings.ImageStamp.Data
		if key := settings.ImageStamp.AssetKey; key != "" {
			if p.store == nil {
				return nil, docpipe.NewOpError("ApplyImageStamp", key,
					fmt.Errorf("%w: no asset store configured", docpipe.ErrResourceUnavailable))
			}
			overlay, err = p.store.Load(ctx, key)
			if err != nil {
				return nil, docpipe.NewOpError("ApplyImageStamp", key, err)
			}
		}
		data, err = p.comp.ApplyImageStamp(ctx, data, overlay, *settings.ImageStamp)
		if err != nil {
			return nil, err
		}
	}

	return data, nil
}

// resolveSelector turns a page selector into 1-based page numbers for the
// given paginated source.
func (p *Pipeline) resolveSelector(data []byte, sel docpipe.PageSelector) ([]int, error) {
	doc, err := p.decoder.Decode(data)
	if err != nil {
		return nil, err
	}
	indices, err := geometry.ResolvePages(doc.PageCount(), sel)
	if err != nil {
		return nil, err
	}
	pages := make([]int, len(indices))
	for i, idx := range indices {
		pages[i] = idx + 1
	}
	return pages, nil
}

// baseName derives an artifact name stem from a source.
func baseName(src docpipe.SourceAsset) string {
	name := src.Name
	if name == "" {
		name = src.ID
	}
	if name == "" {
		return "output"
	}
	return strings.TrimSuffix(name, path.Ext(name))
}

// artifactName is baseName plus the encoding's canonical extension.
func artifactName(src docpipe.SourceAsset, enc docpipe.Encoding) string {
	return baseName(src) + enc.Ext()
}
