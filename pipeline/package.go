package pipeline

import (
	"archive/zip"
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/lvillar/docpipe"
)

// BuildBundle assembles the produced artifacts into an output bundle. A
// single artifact is delivered as-is; two or more select archive packaging
// with collision-safe entry names: a duplicate receives an incrementing
// numeric suffix before its extension ("doc.pdf", "doc-1.pdf", "doc-2.pdf").
func BuildBundle(artifacts []docpipe.OutputArtifact) docpipe.OutputBundle {
	bundle := docpipe.OutputBundle{
		Artifacts: artifacts,
		Packaging: docpipe.PackagingSingle,
	}
	if len(artifacts) < 2 {
		return bundle
	}
	bundle.Packaging = docpipe.PackagingArchive
	seen := make(map[string]int, len(artifacts))
	for i := range bundle.Artifacts {
		bundle.Artifacts[i].Name = uniqueName(bundle.Artifacts[i].Name, seen)
	}
	return bundle
}

// uniqueName reserves name in seen, suffixing it when already taken.
func uniqueName(name string, seen map[string]int) string {
	if name == "" {
		name = "output"
	}
	if _, taken := seen[name]; !taken {
		seen[name] = 0
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for n := seen[name] + 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", base, n, ext)
		if _, taken := seen[candidate]; !taken {
			seen[name] = n
			seen[candidate] = 0
			return candidate
		}
	}
}

// Archive writes the bundle's artifacts into a zip archive. It is only
// meaningful for archive packaging but works for any bundle.
func Archive(bundle docpipe.OutputBundle) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, art := range bundle.Artifacts {
		w, err := zw.Create(art.Name)
		if err != nil {
			return nil, fmt.Errorf("pipeline: archiving %s: %w", art.Name, err)
		}
		if _, err := w.Write(art.Data); err != nil {
			return nil, fmt.Errorf("pipeline: archiving %s: %w", art.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("pipeline: closing archive: %w", err)
	}
	return buf.Bytes(), nil
}
