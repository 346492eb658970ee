package parc

import (
	"fmt"
	"io"

	"github.com/aposteriorist/parctool/internal/binio"
	"github.com/aposteriorist/parctool/internal/sllz"
)

// CompressionVersion selects the SLLZ variant (or none) a File is
// encoded with.
type CompressionVersion uint8

const (
	Uncompressed CompressionVersion = 0
	SLLZv1       CompressionVersion = sllz.Version1
	SLLZv2       CompressionVersion = sllz.Version2
)

// EncodeParams configures File.Encode / ToArchiveEntry's optional
// re-encode step.
type EncodeParams struct {
	Version    CompressionVersion
	Endianness binio.Endianness
}

// File is one archived file: its header fields plus the bounded
// payload history described in §3.4.
type File struct {
	Name string

	OrigCompressed bool // payload in the source archive was SLLZ-compressed
	WasCompressed  bool // set once a Decode has run, regardless of current state

	Size        uint32 // declared uncompressed size
	EntryLength uint32 // on-disk length of the stored (possibly compressed) payload
	Attributes  uint32
	Timestamp   uint64 // seconds since 1970-01-01 UTC
	DataOffset  uint64 // absolute byte offset of the payload in the archive

	ContainingDirectory *Directory // weak back-reference, not owning

	History *DataHistory
}

// NewFile returns an empty File ready to receive payload via LoadData
// or a direct History.Add.
func NewFile(name string) *File {
	return &File{Name: name, History: NewDataHistory()}
}

// IsLoaded reports whether the file currently has a payload in memory.
func (f *File) IsLoaded() bool {
	_, ok := f.History.Current()
	return ok
}

// IsCompressed reports whether the file's current payload is
// SLLZ-compressed.
func (f *File) IsCompressed() bool {
	rec, ok := f.History.Current()
	if !ok {
		return f.OrigCompressed
	}
	return rec.IsCompressed
}

func joinOffset(low32, high32 uint32) uint64 {
	high24 := high32 & 0xFFFFFF
	return uint64(high24)<<32 | uint64(low32)
}

// splitOffset encodes a data offset into the header's low32/high24
// pair. When the archive isn't running with extended-size addressing
// and the offset doesn't fit 32 bits, the low32 field is written as
// the overflow sentinel (§8 "Offset split") since the high24 field
// isn't considered meaningful outside extended mode.
func splitOffset(offset uint64, sizeExtended bool) (low32, high24 uint32) {
	if !sizeExtended {
		if offset > 0xFFFFFFFF {
			return offsetOverflowSentinel, 0
		}
		return uint32(offset), 0
	}
	return uint32(offset & 0xFFFFFFFF), uint32((offset >> 32) & 0xFFFFFF)
}

// readFileHeader parses one 0x20-byte file-entry header (§4.5).
func readFileHeader(r *binio.Reader) (*File, error) {
	compFlag, err := r.U32()
	if err != nil {
		return nil, err
	}
	size, err := r.U32()
	if err != nil {
		return nil, err
	}
	entryLen, err := r.U32()
	if err != nil {
		return nil, err
	}
	low32, err := r.U32()
	if err != nil {
		return nil, err
	}
	attrs, err := r.U32()
	if err != nil {
		return nil, err
	}
	high32, err := r.U32()
	if err != nil {
		return nil, err
	}
	ts, err := r.U64()
	if err != nil {
		return nil, err
	}

	return &File{
		OrigCompressed: compFlag&compressionFlagBit != 0,
		Size:           size,
		EntryLength:    entryLen,
		Attributes:     attrs,
		Timestamp:      ts,
		DataOffset:     joinOffset(low32, high32),
		History:        NewDataHistory(),
	}, nil
}

// writeFileHeader emits one 0x20-byte file-entry header at the
// writer's current position.
func writeFileHeader(w *binio.Writer, f *File, sizeExtended bool) {
	var compFlag uint32
	if f.IsCompressed() {
		compFlag = compressionFlagBit
	}
	low32, high24 := splitOffset(f.DataOffset, sizeExtended)

	w.WriteU32(compFlag)
	w.WriteU32(f.Size)
	w.WriteU32(f.EntryLength)
	w.WriteU32(low32)
	w.WriteU32(f.Attributes)
	w.WriteU32(high24)
	w.WriteU64(f.Timestamp)
}

// LoadData reads EntryLength bytes from r, seeking to offset first if
// given (otherwise using the file's own DataOffset), and records them
// as the current history entry.
func (f *File) LoadData(r io.ReaderAt, offset *int64) error {
	off := int64(f.DataOffset)
	if offset != nil {
		off = *offset
	}
	buf := make([]byte, f.EntryLength)
	if f.EntryLength > 0 {
		if _, err := r.ReadAt(buf, off); err != nil {
			return fmt.Errorf("parc: load data for %q: %w", f.Name, err)
		}
	}
	f.History.Add(HistoryRecord{Data: buf, IsCompressed: f.OrigCompressed})
	return nil
}

// Decode decompresses the current payload via SLLZ if it is
// compressed; it is a no-op warning if the payload is already
// plaintext. If the SLLZ header's declared decompressed size disagrees
// with f.Size, the actual decoded length wins and f.Size is updated.
func (f *File) Decode() (*Warning, error) {
	cur, ok := f.History.Current()
	if !ok {
		return nil, ErrDataNotLoaded
	}
	if !cur.IsCompressed {
		return newWarning("decode requested on %q but payload is already plaintext", f.Name), nil
	}

	decoded, _, err := sllz.Decode(cur.Data)
	if err != nil {
		return nil, fmt.Errorf("parc: decode %q: %w", f.Name, err)
	}

	var warn *Warning
	if uint32(len(decoded)) != f.Size {
		warn = newWarning("%q: declared size %d disagrees with decoded length %d, using actual length",
			f.Name, f.Size, len(decoded))
		f.Size = uint32(len(decoded))
	}

	f.WasCompressed = true
	f.History.Add(HistoryRecord{Data: decoded, IsCompressed: false})
	return warn, nil
}

// Encode compresses the current payload with SLLZ unless it's already
// compressed (warning, no-op) or params requests Uncompressed
// (silent no-op). The encoded form is kept only if it is shorter than
// the plaintext, unless force is set.
func (f *File) Encode(params EncodeParams, force bool) (*Warning, error) {
	cur, ok := f.History.Current()
	if !ok {
		return nil, ErrDataNotLoaded
	}
	if params.Version == Uncompressed {
		return nil, nil
	}
	if cur.IsCompressed {
		return newWarning("encode requested on %q but payload is already compressed", f.Name), nil
	}

	encoded, err := sllz.Encode(cur.Data, uint8(params.Version), params.Endianness)
	if err != nil {
		return nil, fmt.Errorf("parc: encode %q: %w", f.Name, err)
	}

	if len(encoded) >= len(cur.Data) && !force {
		return newWarning("encoding %q expanded %d -> %d bytes, keeping plaintext",
			f.Name, len(cur.Data), len(encoded)), nil
	}

	f.Size = uint32(len(cur.Data))
	f.History.Add(HistoryRecord{Data: encoded, IsCompressed: true})
	return nil, nil
}

// ToArchiveEntry writes this file's payload to the end of the stream
// (optionally encoding it first), aligns the placement per §4.5, and
// backpatches the 0x20-byte header at the writer's position on entry.
func (f *File) ToArchiveEntry(w *binio.Writer, align uint32, encoding *EncodeParams, sizeExtended bool) error {
	if !f.IsLoaded() {
		return fmt.Errorf("parc: emit %q: %w", f.Name, ErrDataNotLoaded)
	}

	if encoding != nil {
		if _, err := f.Encode(*encoding, false); err != nil {
			return err
		}
	}
	cur, _ := f.History.Current()

	w.PushForwardToEnd()

	if align > 0 {
		pos := uint32(w.Pos())
		if rem := pos % align; rem != 0 {
			space := align - rem
			if space <= uint32(len(cur.Data)) {
				w.PadTo(int(align))
				if err := w.Seek(w.Len()); err != nil {
					return err
				}
			}
		}
	}

	f.DataOffset = uint64(w.Pos())
	f.EntryLength = uint32(len(cur.Data))
	w.WriteBytes(cur.Data)

	if err := w.PopBack(); err != nil {
		return err
	}

	writeFileHeader(w, f, sizeExtended)
	return nil
}
