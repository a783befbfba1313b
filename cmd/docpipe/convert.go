package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lvillar/docpipe"
)

var convertTo string

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert files to a target encoding",
	Long: `Convert each input to the target encoding. Image targets accept
png, jpeg, gif, bmp, tiff and webp; "pdf" embeds each image as a
full-size page. Converting a PDF to an image encoding renders one
output per page.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertTo, "to", "t", "png", "target encoding")
	rootCmd.AddCommand(convertCmd)
}

// parseEncoding validates a user-supplied encoding name.
func parseEncoding(name string) (docpipe.Encoding, docpipe.MediaKind, error) {
	switch enc := docpipe.Encoding(name); enc {
	case docpipe.EncodingPDF:
		return enc, docpipe.KindPaginated, nil
	case docpipe.EncodingPNG, docpipe.EncodingJPEG, docpipe.EncodingGIF,
		docpipe.EncodingBMP, docpipe.EncodingTIFF, docpipe.EncodingWebP:
		return enc, docpipe.KindRaster, nil
	default:
		return "", docpipe.KindUnknown, fmt.Errorf("unknown encoding %q", name)
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	enc, kind, err := parseEncoding(convertTo)
	if err != nil {
		return err
	}
	return execute(args, kind, enc, docpipe.Settings{Quality: quality})
}
