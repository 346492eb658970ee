package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aposteriorist/parctool/internal/manifest"
	"github.com/aposteriorist/parctool/internal/parc"
)

var manifestWriteOutput string

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Read and write the plaintext manifest sidecar",
}

var manifestWriteCmd = &cobra.Command{
	Use:   "write <archive.par>",
	Short: "Write the manifest sidecar for an archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runManifestWrite,
}

var manifestReadCmd = &cobra.Command{
	Use:   "read <manifest-file> <disk-root> <output.par>",
	Short: "Build a PARC archive from a manifest and its on-disk files",
	Args:  cobra.ExactArgs(3),
	RunE:  runManifestRead,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
	manifestCmd.AddCommand(manifestWriteCmd)
	manifestCmd.AddCommand(manifestReadCmd)

	manifestWriteCmd.Flags().StringVarP(&manifestWriteOutput, "output", "o", "",
		"manifest output path (default: <archive-name>.par.manifest)")
}

func runManifestWrite(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("manifest write: %w", err)
	}
	archive, err := parc.Parse(data, true)
	if err != nil {
		return fmt.Errorf("manifest write: %w", err)
	}
	if archive.Name == "" {
		base := filepath.Base(args[0])
		archive.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	out := manifestWriteOutput
	if out == "" {
		out = manifest.DefaultFilename(archive.Name)
	}
	return os.WriteFile(out, []byte(manifest.Write(archive)), 0o644)
}

func runManifestRead(cmd *cobra.Command, args []string) error {
	opts := options()
	manifestPath, diskRoot, outputPath := args[0], args[1], args[2]

	text, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("manifest read: %w", err)
	}

	archive, err := manifest.Read(string(text), diskRoot)
	if err != nil {
		return fmt.Errorf("manifest read: %w", err)
	}

	data, err := archive.Emit(opts, nil)
	if err != nil {
		return fmt.Errorf("manifest read: emit: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}
