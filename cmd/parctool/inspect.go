package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aposteriorist/parctool/internal/parc"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive.par>",
	Short: "Print an archive's header fields and directory tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	archive, err := parc.Parse(data, false)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	fmt.Printf("platform:       %d\n", archive.Platform)
	fmt.Printf("endianness:     %v\n", archive.Endianness)
	fmt.Printf("size extended:  %v\n", archive.SizeExtended)
	fmt.Printf("relocated:      %v\n", archive.Relocated)
	fmt.Printf("file size mode: %d\n", archive.FileSizeMode)
	fmt.Printf("directories:    %d\n", len(archive.Directories))
	fmt.Printf("files:          %d\n", len(archive.Files))
	fmt.Println()

	printTree(archive.RootDirectory, archive, "")
	return nil
}

func printTree(d *parc.Directory, a *parc.Archive, prefix string) {
	for _, f := range d.FileList(a) {
		fmt.Printf("%s%s\n", prefix, f.Name)
	}
	for _, child := range d.Subdirectories(a) {
		fmt.Printf("%s%s/\n", prefix, child.Name)
		printTree(child, a, prefix+"  ")
	}
}
