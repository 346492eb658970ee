package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aposteriorist/parctool/internal/binio"
	"github.com/aposteriorist/parctool/internal/manifest"
	"github.com/aposteriorist/parctool/internal/parc"
)

var (
	packCompress uint8
	packEndian   string
	packForce    bool
	packNoRoot   bool
	packManifest bool
)

var packCmd = &cobra.Command{
	Use:   "pack <input-dir> <output.par>",
	Short: "Pack a directory tree into a PARC archive",
	Args:  cobra.ExactArgs(2),
	RunE:  runPack,
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().Uint8Var(&packCompress, "compress", 0,
		"SLLZ version to encode payloads with (0 = uncompressed, 1 = v1, 2 = v2)")
	packCmd.Flags().StringVar(&packEndian, "endian", "LE", "archive/SLLZ stream endianness: LE or BE")
	packCmd.Flags().BoolVar(&packForce, "force", false,
		"keep SLLZ output even when it doesn't shrink the payload")
	packCmd.Flags().BoolVar(&packNoRoot, "no-root-entry", false,
		"synthesize the root directory instead of emitting an explicit root entry")
	packCmd.Flags().BoolVar(&packManifest, "manifest", false,
		"also write a plaintext manifest sidecar next to the packed archive")
}

func runPack(cmd *cobra.Command, args []string) error {
	inputDir, outputPath := args[0], args[1]
	opts := options()
	opts.EmitRootEntry = !packNoRoot
	opts.GenerateManifest = packManifest

	end := binio.LittleEndian
	if packEndian == "BE" {
		end = binio.BigEndian
	}

	archive, err := parc.BuildFromDirectory(inputDir, opts)
	if err != nil {
		return fmt.Errorf("pack: %w", err)
	}
	archive.Endianness = end

	if packCompress != 0 {
		params := parc.EncodeParams{Version: parc.CompressionVersion(packCompress), Endianness: end}
		warnings, err := archive.EncodeAll(context.Background(), params, packForce, opts)
		if err != nil {
			return fmt.Errorf("pack: encode: %w", err)
		}
		printWarnings(warnings, opts)
	}

	data, err := archive.Emit(opts, nil)
	if err != nil {
		return fmt.Errorf("pack: emit: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("pack: %w", err)
	}

	if opts.GenerateManifest {
		if archive.Name == "" {
			archive.Name = outputPath
		}
		manifestPath := manifest.DefaultFilename(strings.TrimSuffix(outputPath, filepath.Ext(outputPath)))
		if err := os.WriteFile(manifestPath, []byte(manifest.Write(archive)), 0o644); err != nil {
			return fmt.Errorf("pack: manifest: %w", err)
		}
		if opts.Verbose {
			fmt.Printf("wrote manifest -> %s\n", manifestPath)
		}
	}

	if opts.Verbose {
		fmt.Printf("packed %d directories, %d files -> %s (%d bytes)\n",
			len(archive.Directories), len(archive.Files), outputPath, len(data))
	}
	return nil
}
