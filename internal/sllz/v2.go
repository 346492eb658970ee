package sllz

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/flate"
)

// SLLZ v2 splits its payload into chunks of up to 64KiB, each prefixed
// by a 5-byte big-endian header (independent of the container's own
// stream endianness): a 24-bit "chunk total" whose high bit marks a
// stored (uncompressed) chunk, and a 16-bit "chunk size minus one".
const (
	maxChunkSize  = 65536
	chunkHdrSize  = 5
	storedFlagBit = 0x800000
)

func encodeV2(src []byte) ([]byte, error) {
	var out bytes.Buffer

	for pos := 0; pos < len(src); {
		end := pos + maxChunkSize
		if end > len(src) {
			end = len(src)
		}
		chunk := src[pos:end]
		pos = end

		compressed, err := deflateCompress(chunk)
		if err != nil {
			return nil, err
		}

		var hdr [chunkHdrSize]byte
		chunkSizeMinus1 := uint16(len(chunk) - 1)

		if len(compressed) >= len(chunk) {
			putChunkTotal(hdr[:3], storedFlagBit)
			binary.BigEndian.PutUint16(hdr[3:5], chunkSizeMinus1)
			out.Write(hdr[:])
			out.Write(chunk)
		} else {
			putChunkTotal(hdr[:3], uint32(len(compressed))+chunkHdrSize)
			binary.BigEndian.PutUint16(hdr[3:5], chunkSizeMinus1)
			out.Write(hdr[:])
			out.Write(compressed)
		}
	}

	return out.Bytes(), nil
}

func decodeV2(src []byte) ([]byte, error) {
	var out bytes.Buffer

	for pos := 0; pos < len(src); {
		if pos+chunkHdrSize > len(src) {
			return nil, io.ErrUnexpectedEOF
		}
		chunkTotal := getChunkTotal(src[pos : pos+3])
		chunkSize := int(binary.BigEndian.Uint16(src[pos+3:pos+5])) + 1
		pos += chunkHdrSize

		if chunkTotal&storedFlagBit != 0 {
			if pos+chunkSize > len(src) {
				return nil, io.ErrUnexpectedEOF
			}
			out.Write(src[pos : pos+chunkSize])
			pos += chunkSize
			continue
		}

		payloadLen := int(chunkTotal) - chunkHdrSize
		if payloadLen < 0 || pos+payloadLen > len(src) {
			return nil, io.ErrUnexpectedEOF
		}

		decoded, err := deflateDecompress(src[pos : pos+payloadLen])
		if err != nil {
			return nil, err
		}
		if len(decoded) != chunkSize {
			return nil, ErrChunkSizeMismatch
		}
		out.Write(decoded)
		pos += payloadLen
	}

	return out.Bytes(), nil
}

func putChunkTotal(dst []byte, v uint32) {
	dst[0] = byte(v >> 16)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v)
}

func getChunkTotal(src []byte) uint32 {
	return uint32(src[0])<<16 | uint32(src[1])<<8 | uint32(src[2])
}

func deflateCompress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deflateDecompress(src []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()
	return io.ReadAll(r)
}
