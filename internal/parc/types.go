// Package parc implements the PARC archive container: header, name
// tables, directory/file entry tables, a data region with per-entry
// alignment, and the in-memory virtual file tree with its two-way
// conversion to/from the flat archive layout.
package parc

import (
	"github.com/aposteriorist/parctool/internal/binio"
	"github.com/aposteriorist/parctool/internal/config"
)

// Wire layout constants (§4.7).
const (
	ArchiveHeaderSize = 0x20
	NameEntrySize     = 0x40
	DirEntrySize      = 0x20
	FileEntrySize     = 0x20

	// DefaultFinalPadding is the boundary every emitted archive's final
	// stream length is padded up to.
	DefaultFinalPadding = 0x800
)

var archiveMagic = [4]byte{'P', 'A', 'R', 'C'}

// compressionFlagBit marks a file-entry header as holding an
// SLLZ-compressed payload (§4.5 offset 0).
const compressionFlagBit = 0x80000000

// offsetOverflowSentinel is written to a file entry's low-32 offset
// field when the true data offset cannot be represented and the
// archive isn't running with SizeExtended addressing (§8 "Offset
// split"). See splitOffset.
const offsetOverflowSentinel = 0xFFFFFFFF

// Directory is a node in the archive's virtual file tree. Non-root
// directories are table entries resolved from Archive's flat
// directories[]/files[] arrays by contiguous index ranges
// (FirstDirIndex/DirCount, FirstFileIndex/FileCount); a synthesized
// root (when the archive carries no explicit root entry) instead owns
// its children directly, since it has no table row of its own to
// derive a range from.
type Directory struct {
	Name string

	DirCount       uint32
	FirstDirIndex  uint32
	FileCount      uint32
	FirstFileIndex uint32
	Attributes     uint32

	synthesized bool
	ownSubdirs  []*Directory
	ownFiles    []*File
}

// DefaultDirAttributes is the attribute bitmap a freshly-built
// directory carries absent an explicit override.
const DefaultDirAttributes = 0x10 // FILE_ATTRIBUTE_DIRECTORY-shaped default

// IsRootName reports whether a directory name denotes the archive root.
func IsRootName(name string) bool {
	return name == "" || name == "."
}

// Subdirectories resolves this directory's immediate children against
// the owning archive's flat arrays (or its own owned list, if
// synthesized).
func (d *Directory) Subdirectories(a *Archive) []*Directory {
	if d.synthesized {
		return d.ownSubdirs
	}
	if d.DirCount == 0 {
		return nil
	}
	return a.Directories[d.FirstDirIndex : d.FirstDirIndex+d.DirCount]
}

// FileList resolves this directory's own files against the owning
// archive's flat array (or its own owned list, if synthesized).
func (d *Directory) FileList(a *Archive) []*File {
	if d.synthesized {
		return d.ownFiles
	}
	if d.FileCount == 0 {
		return nil
	}
	return a.Files[d.FirstFileIndex : d.FirstFileIndex+d.FileCount]
}

// IsLeaf reports whether this directory has no subdirectories.
func (d *Directory) IsLeaf() bool {
	if d.synthesized {
		return len(d.ownSubdirs) == 0
	}
	return d.DirCount == 0
}

// readDirHeader parses one 0x20-byte directory-entry header (§4.6).
func readDirHeader(r *binio.Reader) (*Directory, error) {
	dirCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	firstDirIndex, err := r.U32()
	if err != nil {
		return nil, err
	}
	fileCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	firstFileIndex, err := r.U32()
	if err != nil {
		return nil, err
	}
	attrs, err := r.U32()
	if err != nil {
		return nil, err
	}
	if _, err := r.Bytes(12); err != nil { // reserved
		return nil, err
	}
	return &Directory{
		DirCount:       dirCount,
		FirstDirIndex:  firstDirIndex,
		FileCount:      fileCount,
		FirstFileIndex: firstFileIndex,
		Attributes:     attrs,
	}, nil
}

// writeDirHeader emits one 0x20-byte directory-entry header at the
// writer's current position.
func writeDirHeader(w *binio.Writer, d *Directory) {
	w.WriteU32(d.DirCount)
	w.WriteU32(d.FirstDirIndex)
	w.WriteU32(d.FileCount)
	w.WriteU32(d.FirstFileIndex)
	w.WriteU32(d.Attributes)
	w.WriteBytes(make([]byte, 12))
}

// FileSizeMode re-exports config.FileSizeMode so callers only need to
// import internal/parc for archive-level configuration.
type FileSizeMode = config.FileSizeMode
