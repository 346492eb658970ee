package parc

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aposteriorist/parctool/internal/binio"
	"github.com/aposteriorist/parctool/internal/config"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("MkdirAll: %s", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile: %s", err)
		}
	}
	return root
}

func TestEmitParseRoundtripEmpty(t *testing.T) {
	root := writeTree(t, nil)
	opts := config.Default()

	a, err := BuildFromDirectory(root, opts)
	if err != nil {
		t.Fatalf("BuildFromDirectory: %s", err)
	}

	data, err := a.Emit(opts, nil)
	if err != nil {
		t.Fatalf("Emit: %s", err)
	}
	if len(data)%config.DefaultFileAlignment != 0 {
		t.Errorf("emitted archive length %d not padded to %#x", len(data), config.DefaultFileAlignment)
	}

	parsed, err := Parse(data, true)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if len(parsed.Files) != 0 {
		t.Errorf("parsed.Files = %d entries, want 0", len(parsed.Files))
	}
	if len(parsed.Directories) != 1 {
		t.Errorf("parsed.Directories = %d entries, want 1 (explicit root)", len(parsed.Directories))
	}
}

func TestEmitParseRoundtripOneTopLevelFile(t *testing.T) {
	root := writeTree(t, map[string]string{"hello.txt": "hello, parc"})
	opts := config.Default()

	a, err := BuildFromDirectory(root, opts)
	if err != nil {
		t.Fatalf("BuildFromDirectory: %s", err)
	}
	data, err := a.Emit(opts, nil)
	if err != nil {
		t.Fatalf("Emit: %s", err)
	}

	parsed, err := Parse(data, true)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}
	if len(parsed.Files) != 1 {
		t.Fatalf("parsed.Files = %d, want 1", len(parsed.Files))
	}
	f := parsed.Files[0]
	if f.Name != "hello.txt" {
		t.Errorf("file name = %q, want hello.txt", f.Name)
	}
	rec, ok := f.History.Current()
	if !ok || string(rec.Data) != "hello, parc" {
		t.Errorf("file payload = %q, want %q", rec.Data, "hello, parc")
	}
}

func TestEmitParseRoundtripNestedTree(t *testing.T) {
	root := writeTree(t, map[string]string{
		"readme.txt":        "top",
		"a/one.txt":         "a-one",
		"a/b/two.txt":        "a-b-two",
		"c/three.txt":        "c-three",
	})
	opts := config.Default()

	a, err := BuildFromDirectory(root, opts)
	if err != nil {
		t.Fatalf("BuildFromDirectory: %s", err)
	}
	data, err := a.Emit(opts, nil)
	if err != nil {
		t.Fatalf("Emit: %s", err)
	}

	parsed, err := Parse(data, true)
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}

	if len(parsed.Files) != 4 {
		t.Fatalf("parsed.Files = %d, want 4", len(parsed.Files))
	}
	if len(parsed.Directories) != 4 {
		t.Fatalf("parsed.Directories = %d, want 4 (root, a, a/b, c)", len(parsed.Directories))
	}

	names := map[string]bool{}
	var walk func(d *Directory)
	walk = func(d *Directory) {
		for _, f := range d.FileList(parsed) {
			names[f.Name] = true
		}
		for _, c := range d.Subdirectories(parsed) {
			walk(c)
		}
	}
	walk(parsed.RootDirectory)

	for _, want := range []string{"readme.txt", "one.txt", "two.txt", "three.txt"} {
		if !names[want] {
			t.Errorf("missing file %q after roundtrip", want)
		}
	}
}

func TestEmitRejectsUnreadyArchive(t *testing.T) {
	a := NewArchive("broken")
	if _, err := a.Emit(config.Default(), nil); err != ErrNotEmittable {
		t.Errorf("Emit on unready archive = %v, want ErrNotEmittable", err)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	if _, err := Parse([]byte("not a parc archive at all"), false); err != ErrBadMagic {
		t.Errorf("Parse(bad magic) = %v, want ErrBadMagic", err)
	}
}

func TestOffsetSplitRoundtrip(t *testing.T) {
	cases := []uint64{0, 1, 0xFFFFFFFE, 1 << 33}
	for _, off := range cases {
		low, high := splitOffset(off, true)
		got := joinOffset(low, high)
		if got != off {
			t.Errorf("splitOffset/joinOffset(%d, sizeExtended=true) roundtrip = %d", off, got)
		}
	}

	low, high := splitOffset(1<<33, false)
	if low != offsetOverflowSentinel || high != 0 {
		t.Errorf("splitOffset(overflow, sizeExtended=false) = (%#x, %#x), want sentinel", low, high)
	}
}

func TestEncodeAllThenDecodeAllRoundtrip(t *testing.T) {
	payload := strings.Repeat("the quick brown fox jumps over the lazy dog, repeated, ", 20)
	root := writeTree(t, map[string]string{
		"a.txt": payload,
		"b.txt": payload,
	})
	opts := config.Default()

	a, err := BuildFromDirectory(root, opts)
	if err != nil {
		t.Fatalf("BuildFromDirectory: %s", err)
	}

	params := EncodeParams{Version: SLLZv1, Endianness: binio.LittleEndian}
	ctx := context.Background()
	if _, err := a.EncodeAll(ctx, params, false, opts); err != nil {
		t.Fatalf("EncodeAll: %s", err)
	}
	for _, f := range a.Files {
		if !f.IsCompressed() {
			t.Errorf("file %q not compressed after EncodeAll", f.Name)
		}
	}

	if _, err := a.DecodeAll(ctx, opts); err != nil {
		t.Fatalf("DecodeAll: %s", err)
	}
	for _, f := range a.Files {
		rec, _ := f.History.Current()
		if string(rec.Data) != payload {
			t.Errorf("file %q payload mismatch after DecodeAll: %q", f.Name, rec.Data)
		}
	}
}

func TestFlashRequiresSimilarStructure(t *testing.T) {
	rootA := writeTree(t, map[string]string{"x.txt": "a"})
	rootB := writeTree(t, map[string]string{"x.txt": "b", "y.txt": "c"})
	opts := config.Default()

	a, _ := BuildFromDirectory(rootA, opts)
	b, _ := BuildFromDirectory(rootB, opts)

	if err := a.Flash(b); err != ErrNotSimilar {
		t.Errorf("Flash across dissimilar archives = %v, want ErrNotSimilar", err)
	}
}

func TestFlashCopiesAttributesAndPayload(t *testing.T) {
	rootA := writeTree(t, map[string]string{"x.txt": "a"})
	rootB := writeTree(t, map[string]string{"x.txt": "b"})
	opts := config.Default()

	a, _ := BuildFromDirectory(rootA, opts)
	b, _ := BuildFromDirectory(rootB, opts)
	b.Files[0].Attributes = 0x42
	b.Files[0].Timestamp = 12345

	if err := a.Flash(b); err != nil {
		t.Fatalf("Flash: %s", err)
	}
	rec, _ := a.Files[0].History.Current()
	if string(rec.Data) != "b" {
		t.Errorf("Flash did not copy payload, got %q", rec.Data)
	}
	if a.Files[0].Attributes != 0x42 || a.Files[0].Timestamp != 12345 {
		t.Errorf("Flash did not copy attributes/timestamp")
	}
}
