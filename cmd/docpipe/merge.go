package main

import (
	"github.com/spf13/cobra"

	"github.com/lvillar/docpipe"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Merge documents and images into one PDF",
	Long: `Merge the inputs, in order, into a single PDF. Images become
full-size pages. Sources that cannot be decoded are skipped with a
warning; the merge only fails when no source can be used.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	settings := docpipe.Settings{Quality: quality, Merge: true}
	return execute(args, docpipe.KindPaginated, docpipe.EncodingPDF, settings)
}
