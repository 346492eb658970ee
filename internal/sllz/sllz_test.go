package sllz

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/aposteriorist/parctool/internal/binio"
)

func TestV1SingleLiteral(t *testing.T) {
	enc, err := encodeV1([]byte("A"))
	if err != nil {
		t.Fatalf("encodeV1 failed: %s", err)
	}
	want := []byte{0x00, 0x41}
	if !bytes.Equal(enc, want) {
		t.Errorf("encodeV1(\"A\") = %x, want %x", enc, want)
	}

	dec, err := decodeV1(enc, 1)
	if err != nil {
		t.Fatalf("decodeV1 failed: %s", err)
	}
	if string(dec) != "A" {
		t.Errorf("decodeV1 = %q, want %q", dec, "A")
	}
}

func TestV1Match(t *testing.T) {
	src := []byte("abababab")
	enc, err := encodeV1(src)
	if err != nil {
		t.Fatalf("encodeV1 failed: %s", err)
	}
	dec, err := decodeV1(enc, len(src))
	if err != nil {
		t.Fatalf("decodeV1 failed: %s", err)
	}
	if !bytes.Equal(dec, src) {
		t.Errorf("roundtrip mismatch: got %q, want %q", dec, src)
	}
}

func TestV1RoundtripRandom(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	sizes := []int{0, 1, 2, 17, 18, 19, 100, 4095, 4096, 4097, 20000}

	for _, n := range sizes {
		src := make([]byte, n)
		r.Read(src)
		enc, err := encodeV1(src)
		if err != nil {
			t.Fatalf("encodeV1(n=%d) failed: %s", n, err)
		}
		dec, err := decodeV1(enc, n)
		if err != nil {
			t.Fatalf("decodeV1(n=%d) failed: %s", n, err)
		}
		if !bytes.Equal(dec, src) {
			t.Errorf("roundtrip mismatch at n=%d", n)
		}
	}
}

func TestV1RoundtripRepetitive(t *testing.T) {
	src := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 500)
	enc, err := encodeV1(src)
	if err != nil {
		t.Fatalf("encodeV1 failed: %s", err)
	}
	if len(enc) >= len(src) {
		t.Errorf("expected compression, got %d bytes for %d byte input", len(enc), len(src))
	}
	dec, err := decodeV1(enc, len(src))
	if err != nil {
		t.Fatalf("decodeV1 failed: %s", err)
	}
	if !bytes.Equal(dec, src) {
		t.Errorf("roundtrip mismatch")
	}
}

func TestV2RoundtripChunkBoundary(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	src := make([]byte, 70000)
	r.Read(src)

	enc, err := encodeV2(src)
	if err != nil {
		t.Fatalf("encodeV2 failed: %s", err)
	}

	dec, err := decodeV2(enc)
	if err != nil {
		t.Fatalf("decodeV2 failed: %s", err)
	}
	if !bytes.Equal(dec, src) {
		t.Errorf("roundtrip mismatch for 70000-byte random input")
	}

	chunks := 0
	for pos := 0; pos < len(enc); {
		size := int(enc[pos+3])<<8 | int(enc[pos+4])
		size++
		chunks++
		chunkTotal := getChunkTotal(enc[pos : pos+3])
		if chunkTotal&storedFlagBit != 0 {
			pos += chunkHdrSize + size
		} else {
			pos += chunkHdrSize + int(chunkTotal) - chunkHdrSize
		}
	}
	if chunks != 2 {
		t.Errorf("expected 2 chunks for 70000-byte input, got %d", chunks)
	}
}

func TestV2RoundtripCompressible(t *testing.T) {
	src := bytes.Repeat([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), 3000)
	enc, err := encodeV2(src)
	if err != nil {
		t.Fatalf("encodeV2 failed: %s", err)
	}
	dec, err := decodeV2(enc)
	if err != nil {
		t.Fatalf("decodeV2 failed: %s", err)
	}
	if !bytes.Equal(dec, src) {
		t.Errorf("roundtrip mismatch")
	}
}

func TestContainerRoundtrip(t *testing.T) {
	for _, version := range []uint8{Version1, Version2} {
		for _, end := range []binio.Endianness{binio.LittleEndian, binio.BigEndian} {
			src := bytes.Repeat([]byte("hello sllz container "), 200)
			enc, err := Encode(src, version, end)
			if err != nil {
				t.Fatalf("Encode(version=%d) failed: %s", version, err)
			}
			if !IsSLLZ(enc) {
				t.Fatalf("Encode output doesn't carry SLLZ magic")
			}
			dec, hdr, err := Decode(enc)
			if err != nil {
				t.Fatalf("Decode(version=%d) failed: %s", version, err)
			}
			if hdr.Version != version {
				t.Errorf("header version = %d, want %d", hdr.Version, version)
			}
			if !bytes.Equal(dec, src) {
				t.Errorf("container roundtrip mismatch for version=%d", version)
			}
		}
	}
}

func TestEncodeV2RejectsShortInput(t *testing.T) {
	_, err := Encode([]byte("short"), Version2, binio.LittleEndian)
	if err != ErrInputTooSmall {
		t.Errorf("expected ErrInputTooSmall, got %v", err)
	}
}
