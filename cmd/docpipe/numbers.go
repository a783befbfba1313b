package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/lvillar/docpipe"
	"github.com/lvillar/docpipe/compose"
)

var (
	numFormat string
	numAnchor string
	numSize   float64
)

var pagenumbersCmd = &cobra.Command{
	Use:   "pagenumbers [file]",
	Short: "Draw page counters onto a PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runPageNumbers,
}

func init() {
	pagenumbersCmd.Flags().StringVar(&numFormat, "format", "Page %d of %d", "counter format, receives page and total")
	pagenumbersCmd.Flags().StringVar(&numAnchor, "anchor", "bottom-center", "placement anchor")
	pagenumbersCmd.Flags().Float64Var(&numSize, "size", 10, "font size in points")
	rootCmd.AddCommand(pagenumbersCmd)
}

func runPageNumbers(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	comp := compose.New(compose.WithLogger(logger()))
	out, err := comp.AddPageNumbers(context.Background(), data, compose.PageNumberStyle{
		Format:   numFormat,
		Anchor:   docpipe.Anchor(numAnchor),
		FontSize: numSize,
	})
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = args[0]
	}
	return os.WriteFile(path, out, 0o644)
}
