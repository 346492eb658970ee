package parc

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// fileAttrReadOnly mirrors Windows' FILE_ATTRIBUTE_READONLY bit, the
// one piece of the opaque attributes bitmap with an obvious mode-bit
// analogue on a POSIX filesystem.
const fileAttrReadOnly = 0x1

// FilterFunc reports whether a file at the given archive-relative path
// should be extracted. A nil filter extracts everything.
type FilterFunc func(path string) bool

// ExtractTo writes every file in the archive to destDir, recreating
// its directory structure, decoding any compressed payload along the
// way. Files rejected by filter (if non-nil) are skipped; every
// directory of the tree is still created, even if none of its files
// pass the filter.
func (a *Archive) ExtractTo(destDir string, filter FilterFunc) error {
	return extractDir(a.RootDirectory, a, destDir, "", filter)
}

func extractDir(d *Directory, a *Archive, destRoot, relPath string, filter FilterFunc) error {
	dirPath := filepath.Join(destRoot, relPath)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return err
	}

	for _, f := range d.FileList(a) {
		rel := filepath.Join(relPath, f.Name)
		if filter != nil && !filter(rel) {
			continue
		}
		if err := extractFile(f, destRoot, rel); err != nil {
			return err
		}
	}

	for _, child := range d.Subdirectories(a) {
		if err := extractDir(child, a, destRoot, filepath.Join(relPath, child.Name), filter); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *File, destRoot, rel string) error {
	if !f.IsLoaded() {
		return fmt.Errorf("parc: extract %q: %w", f.Name, ErrDataNotLoaded)
	}
	if f.IsCompressed() {
		if _, err := f.Decode(); err != nil {
			return err
		}
	}
	cur, _ := f.History.Current()

	outPath := filepath.Join(destRoot, rel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if f.Attributes&fileAttrReadOnly != 0 {
		mode = 0o444
	}
	if err := os.WriteFile(outPath, cur.Data, mode); err != nil {
		return err
	}

	// Best-effort: a destination filesystem that rejects timestamp
	// changes shouldn't fail the whole extraction.
	mtime := time.Unix(int64(f.Timestamp), 0)
	_ = os.Chtimes(outPath, mtime, mtime)
	return nil
}
