package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lvillar/docpipe"
	"github.com/lvillar/docpipe/assetstore"
	"github.com/lvillar/docpipe/pipeline"
)

// newPipeline wires a pipeline from the persistent flags.
func newPipeline() (*pipeline.Pipeline, error) {
	opts := []pipeline.Option{pipeline.WithLogger(logger())}
	if assetsDir != "" {
		store, err := assetstore.NewFS(assetsDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pipeline.WithAssetStore(store))
	}
	return pipeline.New(opts...), nil
}

// loadSources reads each path into a SourceAsset. Media kinds are left for
// the planner to sniff.
func loadSources(paths []string) ([]docpipe.SourceAsset, error) {
	sources := make([]docpipe.SourceAsset, 0, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		sources = append(sources, docpipe.SourceAsset{
			ID:   fmt.Sprintf("src-%d", i+1),
			Data: data,
			Name: filepath.Base(path),
		})
	}
	return sources, nil
}

// tasksFor builds one task per source against a uniform target.
func tasksFor(sources []docpipe.SourceAsset, kind docpipe.MediaKind, enc docpipe.Encoding) []docpipe.ConversionTask {
	tasks := make([]docpipe.ConversionTask, 0, len(sources))
	for i, src := range sources {
		tasks = append(tasks, docpipe.ConversionTask{
			SourceID:       src.ID,
			TargetKind:     kind,
			TargetEncoding: enc,
			Order:          i,
		})
	}
	return tasks
}

// execute loads the inputs, runs one task per input, and writes the result.
func execute(paths []string, kind docpipe.MediaKind, enc docpipe.Encoding, settings docpipe.Settings) error {
	sources, err := loadSources(paths)
	if err != nil {
		return err
	}
	return executeRequest(sources, tasksFor(sources, kind, enc), settings)
}

// executeRequest runs an explicit source/task list and writes the result.
func executeRequest(sources []docpipe.SourceAsset, tasks []docpipe.ConversionTask, settings docpipe.Settings) error {
	p, err := newPipeline()
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Sources:  sources,
		Tasks:    tasks,
		Settings: settings,
	}
	if verbose {
		req.OnProgress = func(percent int, label string) {
			fmt.Fprintf(os.Stderr, "%3d%% %s\n", percent, label)
		}
	}

	res, err := p.Run(context.Background(), req)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	return writeBundle(res.Bundle)
}

// writeBundle writes a single artifact as-is, or several as a zip archive.
func writeBundle(bundle docpipe.OutputBundle) error {
	if bundle.Packaging == docpipe.PackagingSingle {
		art := bundle.Artifacts[0]
		path := outPath
		if path == "" {
			path = art.Name
		}
		if err := os.WriteFile(path, art.Data, 0o644); err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	}

	data, err := pipeline.Archive(bundle)
	if err != nil {
		return err
	}
	path := outPath
	if path == "" {
		path = "docpipe-output.zip"
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("%s (%d entries)\n", path, len(bundle.Artifacts))
	return nil
}
