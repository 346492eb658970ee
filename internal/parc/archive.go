package parc

import (
	"bytes"
	"fmt"

	"github.com/aposteriorist/parctool/internal/binio"
	"github.com/aposteriorist/parctool/internal/config"
)

// Archive is the top-level PARC container: the flat directory/file
// arrays that are the wire-format source of truth, plus the directory
// tree built on top of them for traversal.
type Archive struct {
	Name string

	Platform     uint8
	Endianness   binio.Endianness
	SizeExtended bool
	Relocated    bool
	FileSizeMode FileSizeMode
	UnknownA     uint16

	Directories []*Directory // flat, level-order (§9 design note)
	Files       []*File      // flat, grouped by owning directory in Directories order

	RootDirectory *Directory // points into Directories[], or a synthesized root

	archiveInitialized bool
	treeInitialized    bool
	dataLoaded         bool
}

// NewArchive returns an Archive with spec defaults (§3.1): platform 2,
// little-endian, WriteSize mode, unknownA 1.
func NewArchive(name string) *Archive {
	return &Archive{
		Name:         name,
		Platform:     2,
		Endianness:   binio.LittleEndian,
		FileSizeMode: config.WriteSize,
		UnknownA:     1,
	}
}

// DirCount returns the cached length of the flat directories array.
func (a *Archive) DirCount() uint32 { return uint32(len(a.Directories)) }

// FileCount returns the cached length of the flat files array.
func (a *Archive) FileCount() uint32 { return uint32(len(a.Files)) }

// Ready reports whether the archive satisfies all three lifecycle
// flags (§3.1) required before Emit will proceed.
func (a *Archive) Ready() bool {
	return a.archiveInitialized && a.treeInitialized && a.dataLoaded
}

// FromFlatTree assembles an Archive from an already-flattened,
// level-ordered set of directories and files — the shape the manifest
// importer and BuildFromDirectory both produce — and wires the tree
// and lifecycle flags the same way Parse does.
func FromFlatTree(name string, platform uint8, end binio.Endianness, sizeExtended, relocated bool, fsm FileSizeMode, unknownA uint16, dirs []*Directory, files []*File) (*Archive, error) {
	a := &Archive{
		Name:         name,
		Platform:     platform,
		Endianness:   end,
		SizeExtended: sizeExtended,
		Relocated:    relocated,
		FileSizeMode: fsm,
		UnknownA:     unknownA,
		Directories:  dirs,
		Files:        files,
	}
	a.archiveInitialized = true
	if err := a.wireTree(); err != nil {
		return nil, err
	}
	a.treeInitialized = true
	a.dataLoaded = true
	return a, nil
}

// Parse reads a PARC blob into an Archive. If loadAllData is true,
// every file's payload is read into memory as part of the parse.
func Parse(data []byte, loadAllData bool) (*Archive, error) {
	if len(data) < ArchiveHeaderSize || string(data[:4]) != string(archiveMagic[:]) {
		return nil, ErrBadMagic
	}

	end := binio.LittleEndian
	if data[5] == 1 {
		end = binio.BigEndian
	}

	r := binio.NewReader(data, end)
	if _, err := r.Bytes(4); err != nil {
		return nil, err
	}
	platform, err := r.U8()
	if err != nil {
		return nil, err
	}
	if _, err := r.U8(); err != nil { // endianness tag, already consumed above
		return nil, err
	}
	sizeExtByte, err := r.U8()
	if err != nil {
		return nil, err
	}
	relocatedByte, err := r.U8()
	if err != nil {
		return nil, err
	}
	fsmRaw, err := r.U16()
	if err != nil {
		return nil, err
	}
	unknownA, err := r.U16()
	if err != nil {
		return nil, err
	}
	totalSize, err := r.U32()
	if err != nil {
		return nil, err
	}
	dirCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	dirTableOffset, err := r.U32()
	if err != nil {
		return nil, err
	}
	fileCount, err := r.U32()
	if err != nil {
		return nil, err
	}
	fileTableOffset, err := r.U32()
	if err != nil {
		return nil, err
	}

	fsm := FileSizeMode(fsmRaw)
	if fsm == config.WriteSize && uint64(totalSize) > uint64(len(data)) {
		return nil, ErrTruncatedArchive
	}

	a := &Archive{
		Platform:     platform,
		Endianness:   end,
		SizeExtended: sizeExtByte != 0,
		Relocated:    relocatedByte != 0,
		FileSizeMode: fsm,
		UnknownA:     unknownA,
	}

	// Name tables: directory names then file names, 0x40 bytes each.
	dirNames := make([]string, dirCount)
	for i := range dirNames {
		s, err := r.FixedString(NameEntrySize)
		if err != nil {
			return nil, fmt.Errorf("parc: directory name table: %w", err)
		}
		dirNames[i] = s
	}
	fileNames := make([]string, fileCount)
	for i := range fileNames {
		s, err := r.FixedString(NameEntrySize)
		if err != nil {
			return nil, fmt.Errorf("parc: file name table: %w", err)
		}
		fileNames[i] = s
	}

	a.Directories = make([]*Directory, dirCount)
	for i := uint32(0); i < dirCount; i++ {
		if err := r.Seek(int(dirTableOffset) + int(i)*DirEntrySize); err != nil {
			return nil, fmt.Errorf("parc: directory entry %d: %w", i, err)
		}
		d, err := readDirHeader(r)
		if err != nil {
			return nil, fmt.Errorf("parc: directory entry %d: %w", i, err)
		}
		d.Name = dirNames[i]
		a.Directories[i] = d
	}

	dataReader := bytes.NewReader(data)
	a.Files = make([]*File, fileCount)
	for i := uint32(0); i < fileCount; i++ {
		if err := r.Seek(int(fileTableOffset) + int(i)*FileEntrySize); err != nil {
			return nil, fmt.Errorf("parc: file entry %d: %w", i, err)
		}
		f, err := readFileHeader(r)
		if err != nil {
			return nil, fmt.Errorf("parc: file entry %d: %w", i, err)
		}
		f.Name = fileNames[i]
		a.Files[i] = f
		if loadAllData {
			if err := f.LoadData(dataReader, nil); err != nil {
				return nil, err
			}
		}
	}

	a.archiveInitialized = true

	if err := a.wireTree(); err != nil {
		return nil, err
	}
	a.treeInitialized = true

	if loadAllData {
		a.dataLoaded = true
	}

	return a, nil
}

// wireTree resolves containing-directory back-references for every
// file and establishes RootDirectory, synthesizing one if no
// directory entry is named "" or "." (§4.7 step 6).
func (a *Archive) wireTree() error {
	var root *Directory
	for _, d := range a.Directories {
		if IsRootName(d.Name) {
			root = d
			break
		}
	}

	if root == nil {
		root = a.synthesizeRoot()
	}
	a.RootDirectory = root

	for _, d := range a.Directories {
		for _, f := range d.FileList(a) {
			f.ContainingDirectory = d
		}
	}
	for _, f := range root.FileList(a) {
		f.ContainingDirectory = root
	}

	return nil
}

// synthesizeRoot builds a root directory when the archive carries no
// explicit root entry: its subdirectories are the top-level runs of
// Directories (walked by repeatedly skipping each entry's own
// immediate-child count), and any files not claimed by any
// directory's own range become its direct files (§3.2, §4.7 step 6).
func (a *Archive) synthesizeRoot() *Directory {
	root := &Directory{synthesized: true}

	claimed := make([]bool, len(a.Files))
	var markSubtree func(d *Directory)
	markSubtree = func(d *Directory) {
		for i := d.FirstFileIndex; i < d.FirstFileIndex+d.FileCount && int(i) < len(claimed); i++ {
			claimed[i] = true
		}
		for _, child := range d.Subdirectories(a) {
			markSubtree(child)
		}
	}

	for idx := 0; idx < len(a.Directories); {
		d := a.Directories[idx]
		root.ownSubdirs = append(root.ownSubdirs, d)
		markSubtree(d)
		idx += int(d.DirCount) + 1
	}

	for i, f := range a.Files {
		if !claimed[i] {
			root.ownFiles = append(root.ownFiles, f)
		}
	}

	return root
}

// Emit serializes the archive to PARC binary form (§4.8). encoding, if
// non-nil, is applied to every file before it is written (subject to
// each File.Encode's shorter-or-force rule).
func (a *Archive) Emit(opts config.Options, encoding *EncodeParams) ([]byte, error) {
	if !a.Ready() {
		return nil, ErrNotEmittable
	}

	align := opts.FileAlignment
	if align == 0 {
		align = config.DefaultFileAlignment
	}

	dirCount := uint32(len(a.Directories))
	fileCount := uint32(len(a.Files))

	dirTableOffset := ArchiveHeaderSize + (dirCount+fileCount)*NameEntrySize
	fileTableOffset := dirTableOffset + dirCount*DirEntrySize
	endOfHeaders := fileTableOffset + fileCount*FileEntrySize
	endOfHeaders = alignUp(endOfHeaders, align)

	w := binio.NewWriter(a.Endianness)
	w.Truncate(int(endOfHeaders))

	// Header (backpatched for size below).
	w.WriteBytes(archiveMagic[:])
	w.WriteU8(a.Platform)
	var endTag uint8
	if a.Endianness == binio.BigEndian {
		endTag = 1
	}
	w.WriteU8(endTag)
	w.WriteU8(boolByte(a.SizeExtended))
	w.WriteU8(boolByte(a.Relocated))
	w.WriteU16(uint16(a.FileSizeMode))
	w.WriteU16(a.UnknownA)
	totalSizeFieldPos := w.Pos()
	w.WriteU32(0) // backpatched
	w.WriteU32(dirCount)
	w.WriteU32(dirTableOffset)
	w.WriteU32(fileCount)
	w.WriteU32(fileTableOffset)

	for _, d := range a.Directories {
		w.WriteFixedString(d.Name, NameEntrySize)
	}
	for _, f := range a.Files {
		w.WriteFixedString(f.Name, NameEntrySize)
	}

	if err := w.Seek(int(dirTableOffset)); err != nil {
		return nil, err
	}
	for _, d := range a.Directories {
		writeDirHeader(w, d)
	}

	for i, f := range a.Files {
		if err := w.Seek(int(fileTableOffset) + i*FileEntrySize); err != nil {
			return nil, err
		}
		if err := f.ToArchiveEntry(w, align, encoding, a.SizeExtended); err != nil {
			return nil, err
		}
	}

	if a.FileSizeMode == config.WriteSize {
		totalLen := w.Len()
		if opts.WriteAligned {
			totalLen = int(alignUp(uint32(totalLen), align))
		}
		var sizeBuf [4]byte
		order := a.Endianness
		wTmp := binio.NewWriter(order)
		wTmp.WriteU32(uint32(totalLen))
		copy(sizeBuf[:], wTmp.Bytes())
		w.WriteAt(totalSizeFieldPos, sizeBuf[:])
	}

	w.PadTo(DefaultFinalPadding)

	return w.Bytes(), nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func alignUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	if rem := v % align; rem != 0 {
		return v + (align - rem)
	}
	return v
}
