// Command docpipe converts, merges, and stamps documents and images from the
// command line, driving the pipeline package the same way an embedding
// application would.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	outPath   string
	quality   float64
	assetsDir string
)

var rootCmd = &cobra.Command{
	Use:   "docpipe",
	Short: "Document and image transformation pipeline",
	Long: `docpipe converts between raster images and PDF documents, merges
sources, extracts and rotates pages, and stamps watermark overlays.
Multiple outputs are packaged into a zip archive.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	rootCmd.PersistentFlags().StringVarP(&outPath, "output", "o", "", "output file path")
	rootCmd.PersistentFlags().Float64VarP(&quality, "quality", "q", 0.9, "lossy encode quality (0..1)")
	rootCmd.PersistentFlags().StringVar(&assetsDir, "assets", "", "directory backing the reusable overlay store")
}

// logger builds the CLI logger; quiet runs discard everything.
func logger() zerolog.Logger {
	if !verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "docpipe:", err)
		os.Exit(1)
	}
}
