package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lvillar/docpipe"
)

var (
	rotateDeltas string

	extractPages string

	insertAt    int
	insertAfter bool
	insertFrom  string
	insertPage  int
)

var rotateCmd = &cobra.Command{
	Use:   "rotate [file]",
	Short: "Rotate pages of a PDF or a standalone image",
	Long: `Rotate pages by additive multiples of 90 degrees. For a PDF,
--deltas maps 1-based pages to degrees ("1=90,3=180"). For an image,
the page-1 delta rotates the whole image.`,
	Args: cobra.ExactArgs(1),
	RunE: runRotate,
}

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract a page subset of a PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var insertCmd = &cobra.Command{
	Use:   "insert [file]",
	Short: "Insert a blank or copied page into a PDF",
	Long: `Insert a page at the 1-based anchor position. Without --from a
blank page matching the first page's size is inserted; with --from,
page --page of that file is copied in.`,
	Args: cobra.ExactArgs(1),
	RunE: runInsert,
}

func init() {
	rotateCmd.Flags().StringVar(&rotateDeltas, "deltas", "", "page rotations, e.g. \"1=90,3=180\" (required)")
	rotateCmd.MarkFlagRequired("deltas")

	extractCmd.Flags().StringVar(&extractPages, "pages", "", "page selection, e.g. \"1,3-5\", odd, even (required)")
	extractCmd.MarkFlagRequired("pages")

	insertCmd.Flags().IntVar(&insertAt, "at", 1, "1-based anchor page")
	insertCmd.Flags().BoolVar(&insertAfter, "after", false, "insert after the anchor instead of before")
	insertCmd.Flags().StringVar(&insertFrom, "from", "", "copy the inserted page from this file")
	insertCmd.Flags().IntVar(&insertPage, "page", 1, "1-based page of --from to copy")

	rootCmd.AddCommand(rotateCmd, extractCmd, insertCmd)
}

// parseDeltas parses a "page=degrees" list.
func parseDeltas(expr string) (map[int]int, error) {
	deltas := make(map[int]int)
	for _, part := range strings.Split(expr, ",") {
		pageStr, degStr, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("malformed rotation %q", part)
		}
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, fmt.Errorf("malformed page in %q", part)
		}
		deg, err := strconv.Atoi(degStr)
		if err != nil {
			return nil, fmt.Errorf("malformed degrees in %q", part)
		}
		deltas[page] = deg
	}
	return deltas, nil
}

// rotateTarget picks the target for a rotation from the input's extension:
// image files stay raster, everything else is treated as paginated.
func rotateTarget(path string) (docpipe.MediaKind, docpipe.Encoding) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return docpipe.KindRaster, docpipe.EncodingPNG
	case ".jpg", ".jpeg":
		return docpipe.KindRaster, docpipe.EncodingJPEG
	case ".gif":
		return docpipe.KindRaster, docpipe.EncodingGIF
	case ".bmp":
		return docpipe.KindRaster, docpipe.EncodingBMP
	case ".tif", ".tiff":
		return docpipe.KindRaster, docpipe.EncodingTIFF
	case ".webp":
		return docpipe.KindRaster, docpipe.EncodingWebP
	default:
		return docpipe.KindPaginated, docpipe.EncodingPDF
	}
}

func runRotate(cmd *cobra.Command, args []string) error {
	deltas, err := parseDeltas(rotateDeltas)
	if err != nil {
		return err
	}
	kind, enc := rotateTarget(args[0])
	settings := docpipe.Settings{Quality: quality, RotationDeltas: deltas}
	return execute(args, kind, enc, settings)
}

func runExtract(cmd *cobra.Command, args []string) error {
	sel := pageSelector(extractPages)
	settings := docpipe.Settings{Quality: quality, Pages: &sel}
	return execute(args, docpipe.KindPaginated, docpipe.EncodingPDF, settings)
}

func runInsert(cmd *cobra.Command, args []string) error {
	spec := &docpipe.InsertSpec{
		Mode:   docpipe.InsertBefore,
		Anchor: insertAt,
		Blank:  insertFrom == "",
	}
	if insertAfter {
		spec.Mode = docpipe.InsertAfter
	}

	paths := args
	if insertFrom != "" {
		spec.FromSource = "src-2"
		spec.FromPage = insertPage
		paths = append(paths, insertFrom)
	}

	settings := docpipe.Settings{Quality: quality, Insert: spec}
	sources, err := loadSources(paths)
	if err != nil {
		return err
	}
	// Only the target file gets a task; the --from file is just a source.
	tasks := tasksFor(sources[:1], docpipe.KindPaginated, docpipe.EncodingPDF)
	return executeRequest(sources, tasks, settings)
}
