package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose   bool
	itemsPath string
	strict    bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "dataviews",
	Short: "Normalize field sets, render data views and edit items",
	Long: `dataviews loads field sets, forms and views from a directory of YAML or
JSON documents and renders them as HTML, edits items in the terminal or
serves a live preview.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		built, err := config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = built
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&itemsPath, "items", "", "JSON or YAML file with the items to show or edit")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "reject repeated field ids instead of keeping the last one")

	renderCmd.Flags().StringVar(&renderLayout, "layout", "", "override the view layout type")
	renderCmd.Flags().StringVar(&renderSearch, "search", "", "override the view search term")
	renderCmd.Flags().IntVar(&renderPage, "page", 0, "page to render")
	renderCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (stdout if empty)")
	renderCmd.Flags().StringVar(&themePath, "theme", "", "theme manifest (YAML or JSON)")
	renderCmd.Flags().StringVar(&themeVariant, "variant", "", "theme variant")

	formCmd.Flags().IntVar(&itemIndex, "item", 0, "index of the item to edit")
	formCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (stdout if empty)")
	editCmd.Flags().IntVar(&itemIndex, "item", 0, "index of the item to edit")

	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&themePath, "theme", "", "theme manifest (YAML or JSON)")
	serveCmd.Flags().StringVar(&themeVariant, "variant", "", "theme variant")

	rootCmd.AddCommand(normalizeCmd, openapiCmd, renderCmd, formCmd, editCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
