package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aposteriorist/parctool/internal/parc"
)

var flashOutput string

var flashCmd = &cobra.Command{
	Use:   "flash <dst-archive.par> <src-archive.par>",
	Short: "Copy metadata and encoding state from one archive onto a structurally similar one",
	Args:  cobra.ExactArgs(2),
	RunE:  runFlash,
}

func init() {
	rootCmd.AddCommand(flashCmd)
	flashCmd.Flags().StringVarP(&flashOutput, "output", "o", "",
		"output path (default: overwrite the destination archive)")
}

func runFlash(cmd *cobra.Command, args []string) error {
	opts := options()
	dstPath, srcPath := args[0], args[1]

	dstData, err := os.ReadFile(dstPath)
	if err != nil {
		return fmt.Errorf("flash: %w", err)
	}
	srcData, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("flash: %w", err)
	}

	dst, err := parc.Parse(dstData, true)
	if err != nil {
		return fmt.Errorf("flash: dst: %w", err)
	}
	src, err := parc.Parse(srcData, true)
	if err != nil {
		return fmt.Errorf("flash: src: %w", err)
	}

	if err := dst.Flash(src); err != nil {
		return fmt.Errorf("flash: %w", err)
	}

	out := flashOutput
	if out == "" {
		out = dstPath
	}

	data, err := dst.Emit(opts, nil)
	if err != nil {
		return fmt.Errorf("flash: emit: %w", err)
	}
	return os.WriteFile(out, data, 0o644)
}
