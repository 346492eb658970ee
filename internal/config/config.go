// Package config holds the shared options block described in §5 of the
// specification: verbosity, warning suppression, root-directory
// emission mode, file-size write mode, and manifest generation. Every
// archive operation takes an explicit Options value; Global/SetGlobal
// exist only as a thin adapter for callers that want the source's
// set-it-once-at-startup global ergonomics (the CLI boundary in
// cmd/parctool uses it to turn flags into an Options value once).
package config

import "sync/atomic"

// FileSizeMode selects how the PARC header's total-size field is
// populated on emit.
type FileSizeMode uint16

const (
	// WriteSize records the stream length after the last payload,
	// before the final padding (default).
	WriteSize FileSizeMode = 1
	// DontWriteSize leaves the header's size field at zero.
	DontWriteSize FileSizeMode = 2
)

// DefaultFileAlignment is the payload alignment PARC uses absent an
// explicit override.
const DefaultFileAlignment = 0x800

// Options is the immutable process-wide configuration block.
type Options struct {
	Verbose          bool
	SuppressWarnings bool
	EmitRootEntry    bool
	FileSizeMode     FileSizeMode
	WriteAligned     bool
	GenerateManifest bool
	FileAlignment    uint32
	Workers          int
}

// Default returns the zero-value-safe baseline Options.
func Default() Options {
	return Options{
		FileSizeMode:  WriteSize,
		FileAlignment: DefaultFileAlignment,
		Workers:       0, // 0 means "let the worker pool pick GOMAXPROCS"
		EmitRootEntry: true,
	}
}

var global atomic.Value

func init() {
	global.Store(Default())
}

// Global returns the process-wide Options value set by SetGlobal, or
// Default() if none has been set yet.
func Global() Options {
	if v, ok := global.Load().(Options); ok {
		return v
	}
	return Default()
}

// SetGlobal installs the process-wide Options value. Intended to be
// called once at startup (e.g. from cmd/parctool's flag parsing);
// internal operations never read this themselves, only callers that
// want the legacy global-setter ergonomics consult it.
func SetGlobal(opts Options) {
	global.Store(opts)
}
