// Package binio provides endian-aware binary stream primitives used to
// parse and emit PARC archives and SLLZ payloads: scalar and byte-slice
// reads/writes over an in-memory buffer, a position stack for two-pass
// layout (reserve a header slot, write the payload, backpatch the
// header), and alignment padding.
package binio

import (
	"encoding/binary"
	"fmt"
)

// Endianness selects the byte order used by scalar reads and writes.
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

// String implements fmt.Stringer for diagnostic output.
func (e Endianness) String() string {
	if e == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

func (e Endianness) order() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// Reader reads scalar and byte-slice values from a fixed byte slice at a
// cursor position, honoring a configurable stream endianness.
type Reader struct {
	data []byte
	pos  int
	end  Endianness
}

// NewReader wraps data for sequential reads starting at offset 0.
func NewReader(data []byte, end Endianness) *Reader {
	return &Reader{data: data, end: end}
}

// SetEndianness switches the byte order used by subsequent scalar reads.
func (r *Reader) SetEndianness(end Endianness) { r.end = end }

// Pos returns the current cursor position.
func (r *Reader) Pos() int { return r.pos }

// Len returns the total length of the underlying buffer.
func (r *Reader) Len() int { return len(r.data) }

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return fmt.Errorf("binio: seek %d out of range [0,%d]", offset, len(r.data))
	}
	r.pos = offset
	return nil
}

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("binio: read past end of stream at %d (need %d, have %d)", r.pos, n, len(r.data)-r.pos)
	}
	return nil
}

// Bytes reads n raw bytes and advances the cursor.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// U8 reads an unsigned 8-bit value.
func (r *Reader) U8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads an unsigned 16-bit value in the stream's endianness.
func (r *Reader) U16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return r.end.order().Uint16(b), nil
}

// U32 reads an unsigned 32-bit value in the stream's endianness.
func (r *Reader) U32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return r.end.order().Uint32(b), nil
}

// U64 reads an unsigned 64-bit value in the stream's endianness.
func (r *Reader) U64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return r.end.order().Uint64(b), nil
}

// FixedString reads n bytes and strips trailing NUL padding.
func (r *Reader) FixedString(n int) (string, error) {
	b, err := r.Bytes(n)
	if err != nil {
		return "", err
	}
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end]), nil
}

// Writer accumulates bytes into a growable buffer with the same scalar
// helpers as Reader, plus the position stack §4.1 specifies.
type Writer struct {
	buf   []byte
	pos   int
	end   Endianness
	stack []int
}

// NewWriter creates an empty writer.
func NewWriter(end Endianness) *Writer {
	return &Writer{end: end}
}

// SetEndianness switches the byte order used by subsequent scalar writes.
func (w *Writer) SetEndianness(end Endianness) { w.end = end }

// Pos returns the current write cursor.
func (w *Writer) Pos() int { return w.pos }

// Len returns the number of bytes written so far (the high-water mark).
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// ensure grows the buffer so that writing n bytes at w.pos is valid,
// zero-filling any gap between the old high-water mark and w.pos.
func (w *Writer) ensure(n int) {
	need := w.pos + n
	if need > len(w.buf) {
		grown := make([]byte, need)
		copy(grown, w.buf)
		w.buf = grown
	}
}

// WriteBytes writes raw bytes at the cursor and advances it.
func (w *Writer) WriteBytes(b []byte) {
	w.ensure(len(b))
	copy(w.buf[w.pos:], b)
	w.pos += len(b)
}

// WriteU8 writes an unsigned 8-bit value.
func (w *Writer) WriteU8(v uint8) {
	w.WriteBytes([]byte{v})
}

// WriteU16 writes an unsigned 16-bit value in the stream's endianness.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	w.end.order().PutUint16(b[:], v)
	w.WriteBytes(b[:])
}

// WriteU32 writes an unsigned 32-bit value in the stream's endianness.
func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	w.end.order().PutUint32(b[:], v)
	w.WriteBytes(b[:])
}

// WriteU64 writes an unsigned 64-bit value in the stream's endianness.
func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	w.end.order().PutUint64(b[:], v)
	w.WriteBytes(b[:])
}

// WriteFixedString writes s into an n-byte, zero-padded field. s is
// truncated if it doesn't fit.
func (w *Writer) WriteFixedString(s string, n int) {
	b := make([]byte, n)
	copy(b, s)
	w.WriteBytes(b)
}

// WriteAt overwrites n bytes at an absolute offset without disturbing
// the current cursor; used to backpatch header fields after the full
// layout (and therefore the true offsets) is known.
func (w *Writer) WriteAt(offset int, b []byte) {
	if offset+len(b) > len(w.buf) {
		grown := make([]byte, offset+len(b))
		copy(grown, w.buf)
		w.buf = grown
	}
	copy(w.buf[offset:], b)
}

// PushForward saves the current position and seeks to an absolute
// offset. Pair with PopBack.
func (w *Writer) PushForward(offset int) {
	w.stack = append(w.stack, w.pos)
	w.pos = offset
}

// PushForwardToEnd saves the current position and seeks to the current
// high-water mark (end of stream). Pair with PopBack.
func (w *Writer) PushForwardToEnd() {
	w.stack = append(w.stack, w.pos)
	w.pos = len(w.buf)
}

// PopBack restores the position saved by the most recent Push*.
func (w *Writer) PopBack() error {
	if len(w.stack) == 0 {
		return fmt.Errorf("binio: pop with empty position stack")
	}
	n := len(w.stack) - 1
	w.pos = w.stack[n]
	w.stack = w.stack[:n]
	return nil
}

// Seek moves the write cursor to an absolute offset, growing the
// buffer (zero-filled) if needed. Unlike PushForward it does not touch
// the position stack.
func (w *Writer) Seek(offset int) error {
	if offset < 0 {
		return fmt.Errorf("binio: seek %d out of range", offset)
	}
	w.ensureEnd(offset)
	w.pos = offset
	return nil
}

// PadTo zero-extends the buffer so its length is a multiple of
// boundary. It does not move the cursor.
func (w *Writer) PadTo(boundary int) {
	if boundary <= 0 {
		return
	}
	rem := len(w.buf) % boundary
	if rem == 0 {
		return
	}
	pad := boundary - rem
	w.ensureEnd(len(w.buf) + pad)
}

// ensureEnd grows the high-water mark to at least n bytes, zero-filled.
func (w *Writer) ensureEnd(n int) {
	if n > len(w.buf) {
		grown := make([]byte, n)
		copy(grown, w.buf)
		w.buf = grown
	}
}

// Truncate cuts the buffer down to exactly n bytes, or grows it
// zero-filled if n is larger than the current length.
func (w *Writer) Truncate(n int) {
	w.ensureEnd(n)
	w.buf = w.buf[:n]
}
