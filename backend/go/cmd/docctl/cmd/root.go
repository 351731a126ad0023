package cmd

import (
	"fmt"
	"os"

	"Paggo/backend/go/internal/config"
	"Paggo/backend/go/internal/extraction"
	"Paggo/backend/go/internal/ocr"
	"Paggo/backend/go/pkg/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.AppConfig
	cliLog  *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docctl",
	Short: "Run the document analysis pipeline locally",
	Long:  `A command-line interface for extracting text from images and PDFs and rendering analysis reports without the HTTP service.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		logger.Init(cfg.Logger.Level)
		cliLog = logger.New("docctl", "", "")
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "docctl: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "backend/go/config/config.yaml", "config file")
}

// newExtractor builds an extractor backed by an in-process cache. The
// returned engine must be closed by the caller.
func newExtractor() (*extraction.Extractor, *ocr.TesseractEngine, error) {
	cacheCfg := cfg.Cache
	if cacheCfg.Backend == "redis" {
		cacheCfg.Backend = "memory"
	}
	cache, err := extraction.CacheFromConfig(cacheCfg, nil, nil, cliLog)
	if err != nil {
		return nil, nil, err
	}
	engine := ocr.NewTesseractEngine(cfg.OCR.Languages)
	if err := engine.Init(); err != nil {
		return nil, nil, fmt.Errorf("initialize OCR engine: %w", err)
	}
	return extraction.FromConfig(cfg, cache, engine, nil, cliLog), engine, nil
}
