package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aposteriorist/parctool/internal/parc"
)

var (
	extractOutput string
	extractFilter string
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive.par>",
	Short: "Extract a PARC archive to a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "extracted",
		"output directory for extracted files")
	extractCmd.Flags().StringVarP(&extractFilter, "filter", "f", "",
		"only extract paths containing this substring (case-insensitive)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	opts := options()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	archive, err := parc.Parse(data, true)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	warnings, err := archive.DecodeAll(context.Background(), opts)
	if err != nil {
		return fmt.Errorf("extract: decode: %w", err)
	}
	printWarnings(warnings, opts)

	var filter parc.FilterFunc
	if extractFilter != "" {
		needle := strings.ToLower(extractFilter)
		filter = func(path string) bool {
			return strings.Contains(strings.ToLower(path), needle)
		}
	}

	if err := archive.ExtractTo(extractOutput, filter); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	if opts.Verbose {
		fmt.Printf("extracted %d files to %s\n", len(archive.Files), extractOutput)
	}
	return nil
}
