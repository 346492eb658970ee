package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aposteriorist/parctool/internal/config"
	"github.com/aposteriorist/parctool/internal/parc"
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

func TestWriteReadRoundtrip(t *testing.T) {
	root := writeTree(t, map[string]string{
		"readme.txt":  "top level",
		"sub/a.txt":   "nested a",
		"sub/b.txt":   "nested b",
	})
	opts := config.Default()

	a, err := parc.BuildFromDirectory(root, opts)
	if err != nil {
		t.Fatalf("BuildFromDirectory: %s", err)
	}

	text := Write(a)
	if text[:len(HeaderLine)] != HeaderLine {
		t.Fatalf("manifest missing header line, got %q", text[:len(HeaderLine)])
	}

	parsed, err := Read(text, root)
	if err != nil {
		t.Fatalf("Read: %s", err)
	}

	if !a.SimilarTo(parsed) {
		t.Fatalf("manifest roundtrip archive not SimilarTo the original")
	}
	for i, f := range parsed.Files {
		orig := a.Files[i]
		origRec, _ := orig.History.Current()
		parsedRec, _ := f.History.Current()
		if string(origRec.Data) != string(parsedRec.Data) {
			t.Errorf("file %q payload mismatch: got %q, want %q", f.Name, parsedRec.Data, origRec.Data)
		}
	}
}

func TestReadRejectsMissingHeader(t *testing.T) {
	_, err := Read("not a manifest\n", t.TempDir())
	if err == nil {
		t.Fatalf("Read should reject a document missing the manifest header")
	}
}

func TestReadRejectsCountMismatch(t *testing.T) {
	root := writeTree(t, map[string]string{"x.txt": "x"})
	bad := HeaderLine + "\n" +
		"Name\tarc\nPlat\t2\nEndi\tLE\nSExt\tN\nRelo\tN\nFSM\t1\nUnkA\t1\nDC\t1\nFC\t1\n" +
		"<dir>\nName\t.\nDC\t0\nFDI\t0\nFC\t2\nFFI\t0\n" +
		"<file>\nName\tx.txt\nComp\tN\nTime\t0\n</file>\n" +
		"</dir>\n"

	if _, err := Read(bad, root); err == nil {
		t.Fatalf("Read should reject a directory whose declared FC disagrees with its actual file count")
	}
}
