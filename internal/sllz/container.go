// Package sllz implements the SLLZ compression container: a 16-byte
// header (magic, endianness, version, data offset, decompressed size,
// total size) wrapping either a v1 LZSS stream or a v2 chunked DEFLATE
// stream.
package sllz

import (
	"github.com/aposteriorist/parctool/internal/binio"
)

const (
	headerSize = 16
	dataOffset = 0x0010

	// Version1 is the raw LZSS-style stream (see v1.go).
	Version1 = 1
	// Version2 is the chunked DEFLATE wrapper (see v2.go).
	Version2 = 2

	// v2MinInput is the smallest input the chunked v2 framing is worth
	// using for; shorter inputs must use v1 instead.
	v2MinInput = 27
)

var magic = [4]byte{'S', 'L', 'L', 'Z'}

// Header is the decoded 16-byte SLLZ container header.
type Header struct {
	Endianness       binio.Endianness
	Version          uint8
	DecompressedSize uint32
	TotalSize        uint32
}

// Decode unwraps an SLLZ container, dispatching on its version byte,
// and returns the decompressed payload.
func Decode(data []byte) ([]byte, *Header, error) {
	if len(data) < headerSize || string(data[:4]) != string(magic[:]) {
		return nil, nil, ErrBadMagic
	}

	end := binio.LittleEndian
	if data[4] == 1 {
		end = binio.BigEndian
	}

	r := binio.NewReader(data, end)
	if _, err := r.Bytes(4); err != nil { // magic, already checked
		return nil, nil, err
	}
	if _, err := r.U8(); err != nil { // endianness tag, already read
		return nil, nil, err
	}
	version, err := r.U8()
	if err != nil {
		return nil, nil, err
	}
	if _, err := r.U16(); err != nil { // data offset
		return nil, nil, err
	}
	decompSize, err := r.U32()
	if err != nil {
		return nil, nil, err
	}
	totalSize, err := r.U32()
	if err != nil {
		return nil, nil, err
	}

	hdr := &Header{Endianness: end, Version: version, DecompressedSize: decompSize, TotalSize: totalSize}

	body := data[headerSize:]
	if int(totalSize) <= len(data) {
		body = data[headerSize:totalSize]
	}

	var out []byte
	switch version {
	case Version1:
		out, err = decodeV1(body, int(decompSize))
	case Version2:
		out, err = decodeV2(body)
	default:
		return nil, nil, ErrUnknownVersion
	}
	if err != nil {
		return nil, nil, err
	}
	return out, hdr, nil
}

// Encode wraps src in an SLLZ container of the requested version using
// the requested stream endianness. Version 2 rejects inputs shorter
// than v2MinInput bytes.
func Encode(src []byte, version uint8, end binio.Endianness) ([]byte, error) {
	var body []byte
	var err error

	switch version {
	case Version1:
		body, err = encodeV1(src)
	case Version2:
		if len(src) < v2MinInput {
			return nil, ErrInputTooSmall
		}
		body, err = encodeV2(src)
	default:
		return nil, ErrUnknownVersion
	}
	if err != nil {
		return nil, err
	}

	w := binio.NewWriter(end)
	w.WriteBytes(magic[:])
	var endTag uint8
	if end == binio.BigEndian {
		endTag = 1
	}
	w.WriteU8(endTag)
	w.WriteU8(version)
	w.WriteU16(dataOffset)
	w.WriteU32(uint32(len(src)))
	w.WriteU32(uint32(headerSize + len(body)))
	w.WriteBytes(body)

	return w.Bytes(), nil
}

// IsSLLZ reports whether data begins with the SLLZ magic.
func IsSLLZ(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == string(magic[:])
}
