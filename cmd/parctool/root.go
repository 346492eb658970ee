// Command parctool packs, extracts, inspects, and flashes PARC
// archives, and reads/writes their manifest sidecar.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aposteriorist/parctool/internal/config"
	"github.com/aposteriorist/parctool/internal/parc"
)

var (
	flagVerbose  bool
	flagQuiet    bool
	flagWorkers  int
	flagAlign    uint32
	flagWriteAlg bool
)

var rootCmd = &cobra.Command{
	Use:   "parctool",
	Short: "Tools for PARC archives and the SLLZ compression codec",
	Long: `parctool provides utilities for working with PARC container archives.

Supported operations:
  - Pack a directory tree into a PARC archive
  - Extract a PARC archive to a directory, with optional path filtering
  - Read and write the plaintext manifest sidecar
  - Flash metadata between structurally similar archives
  - Inspect an archive's header, directories, and files`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false,
		"print verbose progress information")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false,
		"suppress advisory warnings")
	rootCmd.PersistentFlags().IntVarP(&flagWorkers, "workers", "j", 0,
		"bulk codec worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().Uint32Var(&flagAlign, "align", config.DefaultFileAlignment,
		"payload alignment in bytes")
	rootCmd.PersistentFlags().BoolVar(&flagWriteAlg, "write-aligned-size", false,
		"round the emitted total-size header field up to --align")
}

func options() config.Options {
	opts := config.Default()
	opts.Verbose = flagVerbose
	opts.SuppressWarnings = flagQuiet
	opts.Workers = flagWorkers
	opts.FileAlignment = flagAlign
	opts.WriteAligned = flagWriteAlg
	config.SetGlobal(opts)
	return opts
}

func printWarnings(warnings []*parc.Warning, opts config.Options) {
	if opts.SuppressWarnings {
		return
	}
	for _, w := range warnings {
		if w != nil {
			fmt.Fprintln(os.Stderr, "warning:", w.Error())
		}
	}
}
