package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"Paggo/backend/go/internal/extraction"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"
)

var extractLang string

var extractCmd = &cobra.Command{
	Use:   "extract [file-path]",
	Short: "Extract text from an image or PDF and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := extractFile(cmd, args[0], extractLang)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractLang, "lang", "", `OCR languages, e.g. "eng+por" (defaults to the configured set)`)
	rootCmd.AddCommand(extractCmd)
}

func extractFile(cmd *cobra.Command, path, lang string) (extraction.Result, error) {
	if _, err := os.Stat(path); err != nil {
		return extraction.Result{}, err
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return extraction.Result{}, fmt.Errorf("detect content type: %w", err)
	}

	x, engine, err := newExtractor()
	if err != nil {
		return extraction.Result{}, err
	}
	defer engine.Close()

	return x.Extract(cmd.Context(), path, mt.String(), extraction.Options{
		Languages: extraction.ParseLanguages(lang),
	})
}
