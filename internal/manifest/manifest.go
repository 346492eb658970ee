// Package manifest implements the plaintext manifest sidecar described
// in §4.10: a TAB-separated key/value header plus nested XML-style
// <dir>/<file> tags, used to round-trip archive metadata when an
// archive's payload lives as real files on disk rather than packed
// PARC bytes.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aposteriorist/parctool/internal/binio"
	"github.com/aposteriorist/parctool/internal/config"
	"github.com/aposteriorist/parctool/internal/parc"
	"github.com/aposteriorist/parctool/internal/sllz"
)

// HeaderLine is the mandatory first line of a manifest file.
const HeaderLine = "PXD ARCHIVE MANIFEST"

// DefaultFilename returns the conventional sidecar name for an
// archive (§6.3): "<archive-name>.par.manifest".
func DefaultFilename(archiveName string) string {
	return archiveName + ".par.manifest"
}

// dirNode and fileNode are the manifest's own parsed tree, built
// before flattening into a parc.Archive: the manifest nests tags by
// hierarchy, while parc.Archive wants a level-ordered flat array, so
// the two shapes are kept separate until Read finishes parsing.
type dirNode struct {
	name             string
	declDC, declFC   uint32
	attr             uint32
	hasAttr          bool
	dirs             []*dirNode
	files            []*fileNode
}

type fileNode struct {
	name       string
	compressed bool
	endianness binio.Endianness
	version    uint8
	attr       uint32
	hasAttr    bool
	timestamp  uint64
}

type archiveHeader struct {
	name         string
	plat         uint8
	endi         binio.Endianness
	sext, relo   bool
	fsm          config.FileSizeMode
	unkA         uint16
	dc, fc       uint32
}

// lineCursor walks a slice of already-trimmed, non-empty lines.
type lineCursor struct {
	lines []string
	pos   int
}

func (c *lineCursor) peek() (string, bool) {
	if c.pos >= len(c.lines) {
		return "", false
	}
	return c.lines[c.pos], true
}

func (c *lineCursor) next() (string, bool) {
	l, ok := c.peek()
	if ok {
		c.pos++
	}
	return l, ok
}

func splitLines(text string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		l := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Read parses a manifest document and assembles a parc.Archive whose
// file payloads are loaded from diskRoot, re-encoding any file the
// manifest marks compressed with the SLLZ parameters it declares
// (§4.10 invariant).
func Read(text string, diskRoot string) (*parc.Archive, error) {
	lines := splitLines(text)
	cur := &lineCursor{lines: lines}

	first, ok := cur.next()
	if !ok || first != HeaderLine {
		return nil, fmt.Errorf("%w: manifest missing %q header", parc.ErrMalformedInput, HeaderLine)
	}

	hdr, err := parseArchiveHeader(cur)
	if err != nil {
		return nil, err
	}

	root := &dirNode{name: hdr.name}
	tag, ok := cur.next()
	if !ok || tag != "<dir>" {
		return nil, fmt.Errorf("%w: manifest missing root <dir>", parc.ErrMalformedInput)
	}
	if err := parseDirHeader(cur, root); err != nil {
		return nil, err
	}
	if err := parseDirBody(cur, root); err != nil {
		return nil, err
	}

	if uint32(len(root.dirs)) != root.declDC || uint32(len(root.files)) != root.declFC {
		return nil, fmt.Errorf("%w: root directory count mismatch", parc.ErrMalformedInput)
	}
	// The root <dir> itself counts toward the archive-wide DC (it always
	// becomes an explicit directory row on output, via flatten's rootOut),
	// so the header total is nested dirs plus one for the root.
	if hdr.dc != countDirs(root)+1 || hdr.fc != countFiles(root) {
		return nil, fmt.Errorf("%w: archive header count mismatch", parc.ErrMalformedInput)
	}

	dirs, files, err := flatten(root, diskRoot, "")
	if err != nil {
		return nil, err
	}

	return parc.FromFlatTree(hdr.name, hdr.plat, hdr.endi, hdr.sext, hdr.relo, hdr.fsm, hdr.unkA, dirs, files)
}

func countDirs(n *dirNode) uint32 {
	total := uint32(len(n.dirs))
	for _, c := range n.dirs {
		total += countDirs(c)
	}
	return total
}

func countFiles(n *dirNode) uint32 {
	total := uint32(len(n.files))
	for _, c := range n.dirs {
		total += countFiles(c)
	}
	return total
}

func parseArchiveHeader(cur *lineCursor) (*archiveHeader, error) {
	h := &archiveHeader{}
	for {
		line, ok := cur.peek()
		if !ok {
			return nil, fmt.Errorf("%w: manifest ends before root <dir>", parc.ErrMalformedInput)
		}
		if line == "<dir>" {
			return h, nil
		}
		cur.next()
		key, val, err := splitKV(line)
		if err != nil {
			return nil, err
		}
		switch key {
		case "Name":
			h.name = val
		case "Plat":
			n, err := strconv.ParseUint(val, 10, 8)
			if err != nil {
				return nil, err
			}
			h.plat = uint8(n)
		case "Endi":
			h.endi = parseEndi(val)
		case "SExt":
			h.sext = val == "Y"
		case "Relo":
			h.relo = val == "Y"
		case "FSM":
			n, err := strconv.ParseUint(val, 10, 16)
			if err != nil {
				return nil, err
			}
			h.fsm = config.FileSizeMode(n)
		case "UnkA":
			n, err := strconv.ParseUint(val, 10, 16)
			if err != nil {
				return nil, err
			}
			h.unkA = uint16(n)
		case "DC":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, err
			}
			h.dc = uint32(n)
		case "FC":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, err
			}
			h.fc = uint32(n)
		default:
			return nil, fmt.Errorf("%w: unknown archive key %q", parc.ErrMalformedInput, key)
		}
	}
}

// parseDirHeader reads this <dir>'s own key/value lines up to its
// first nested tag (or </dir> if it has no children).
func parseDirHeader(cur *lineCursor, d *dirNode) error {
	for {
		line, ok := cur.peek()
		if !ok {
			return fmt.Errorf("%w: unexpected EOF in <dir>", parc.ErrMalformedInput)
		}
		if line == "<dir>" || line == "<file>" || line == "</dir>" {
			return nil
		}
		cur.next()
		key, val, err := splitKV(line)
		if err != nil {
			return err
		}
		switch key {
		case "Name":
			d.name = val
		case "DC":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return err
			}
			d.declDC = uint32(n)
		case "FC":
			n, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return err
			}
			d.declFC = uint32(n)
		case "FDI", "FFI":
			// Accepted but deliberately not trusted: indices are
			// recomputed from the flattened layout (SPEC_FULL.md §D).
		case "Attr":
			n, err := strconv.ParseUint(val, 16, 32)
			if err != nil {
				return err
			}
			d.attr = uint32(n)
			d.hasAttr = true
		default:
			return fmt.Errorf("%w: unknown directory key %q", parc.ErrMalformedInput, key)
		}
	}
}

func parseDirBody(cur *lineCursor, d *dirNode) error {
	for {
		line, ok := cur.next()
		if !ok {
			return fmt.Errorf("%w: unexpected EOF inside <dir>", parc.ErrMalformedInput)
		}
		switch line {
		case "</dir>":
			return nil
		case "<dir>":
			child := &dirNode{}
			if err := parseDirHeader(cur, child); err != nil {
				return err
			}
			if err := parseDirBody(cur, child); err != nil {
				return err
			}
			if uint32(len(child.dirs)) != child.declDC || uint32(len(child.files)) != child.declFC {
				return fmt.Errorf("%w: directory %q count mismatch", parc.ErrMalformedInput, child.name)
			}
			d.dirs = append(d.dirs, child)
		case "<file>":
			f, err := parseFile(cur)
			if err != nil {
				return err
			}
			d.files = append(d.files, f)
		default:
			return fmt.Errorf("%w: unexpected line %q inside <dir>", parc.ErrMalformedInput, line)
		}
	}
}

func parseFile(cur *lineCursor) (*fileNode, error) {
	f := &fileNode{}
	sawTime := false
	for {
		line, ok := cur.next()
		if !ok {
			return nil, fmt.Errorf("%w: unexpected EOF inside <file>", parc.ErrMalformedInput)
		}
		if line == "</file>" {
			if !sawTime {
				return nil, fmt.Errorf("%w: file %q missing mandatory Time", parc.ErrMalformedInput, f.name)
			}
			return f, nil
		}
		key, val, err := splitKV(line)
		if err != nil {
			return nil, err
		}
		switch key {
		case "Name":
			f.name = val
		case "Comp":
			f.compressed = val == "Y"
		case "Endi":
			f.endianness = parseEndi(val)
		case "SLLZ":
			n, err := strconv.ParseUint(val, 10, 8)
			if err != nil {
				return nil, err
			}
			f.version = uint8(n)
		case "Attr":
			n, err := strconv.ParseUint(val, 16, 32)
			if err != nil {
				return nil, err
			}
			f.attr = uint32(n)
			f.hasAttr = true
		case "Time":
			n, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, err
			}
			f.timestamp = n
			sawTime = true
		default:
			return nil, fmt.Errorf("%w: unknown file key %q", parc.ErrMalformedInput, key)
		}
	}
}

func splitKV(line string) (key, val string, err error) {
	parts := strings.SplitN(line, "\t", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: malformed key/value line %q", parc.ErrMalformedInput, line)
	}
	return parts[0], parts[1], nil
}

func parseEndi(val string) binio.Endianness {
	if val == "BE" {
		return binio.BigEndian
	}
	return binio.LittleEndian
}

func endiString(e binio.Endianness) string {
	if e == binio.BigEndian {
		return "BE"
	}
	return "LE"
}

func yn(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

// flatten walks the manifest's nested dirNode tree in the same BFS,
// level order BuildFromDirectory uses, loading payload bytes from
// diskRoot/relPath and re-encoding compressed entries with their
// declared SLLZ parameters.
func flatten(root *dirNode, diskRoot, relPath string) ([]*parc.Directory, []*parc.File, error) {
	type pending struct {
		node    *dirNode
		rel     string
		out     *parc.Directory
	}

	// The root directory's own name carries no content; force it to
	// "." so parc.FromFlatTree's root-detection recognizes it (§4.7).
	rootOut := &parc.Directory{Name: ".", Attributes: root.attr}
	dirs := []*parc.Directory{rootOut}
	var files []*parc.File

	queue := []pending{{node: root, rel: relPath, out: rootOut}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		firstFileIndex := uint32(len(files))
		for _, fn := range cur.node.files {
			f, err := loadManifestFile(fn, diskRoot, cur.rel)
			if err != nil {
				return nil, nil, err
			}
			f.ContainingDirectory = cur.out
			files = append(files, f)
		}

		firstDirIndex := uint32(len(dirs))
		for _, dn := range cur.node.dirs {
			childOut := &parc.Directory{Name: dn.name, Attributes: dn.attr}
			dirs = append(dirs, childOut)
			queue = append(queue, pending{node: dn, rel: filepath.Join(cur.rel, dn.name), out: childOut})
		}

		cur.out.DirCount = uint32(len(cur.node.dirs))
		cur.out.FirstDirIndex = firstDirIndex
		cur.out.FileCount = uint32(len(cur.node.files))
		cur.out.FirstFileIndex = firstFileIndex
	}

	return dirs, files, nil
}

func loadManifestFile(fn *fileNode, diskRoot, relDir string) (*parc.File, error) {
	data, err := os.ReadFile(filepath.Join(diskRoot, relDir, fn.name))
	if err != nil {
		return nil, fmt.Errorf("manifest: load %q: %w", fn.name, err)
	}

	f := parc.NewFile(fn.name)
	f.Size = uint32(len(data))
	f.Attributes = fn.attr
	f.Timestamp = fn.timestamp
	f.History.Add(parc.HistoryRecord{Data: data, IsCompressed: false})

	if fn.compressed {
		encoded, err := sllz.Encode(data, fn.version, fn.endianness)
		if err != nil {
			return nil, fmt.Errorf("manifest: encode %q: %w", fn.name, err)
		}
		f.EntryLength = uint32(len(encoded))
		f.OrigCompressed = true
		f.History.Add(parc.HistoryRecord{Data: encoded, IsCompressed: true})
	} else {
		f.EntryLength = uint32(len(data))
	}

	return f, nil
}

// Write renders an archive's metadata tree as a manifest document.
func Write(a *parc.Archive) string {
	var b strings.Builder
	b.WriteString(HeaderLine + "\n")

	fmt.Fprintf(&b, "Name\t%s\n", a.Name)
	fmt.Fprintf(&b, "Plat\t%d\n", a.Platform)
	fmt.Fprintf(&b, "Endi\t%s\n", endiString(a.Endianness))
	fmt.Fprintf(&b, "SExt\t%s\n", yn(a.SizeExtended))
	fmt.Fprintf(&b, "Relo\t%s\n", yn(a.Relocated))
	fmt.Fprintf(&b, "FSM\t%d\n", a.FileSizeMode)
	fmt.Fprintf(&b, "UnkA\t%d\n", a.UnknownA)
	fmt.Fprintf(&b, "DC\t%d\n", countArchiveDirs(a.RootDirectory, a))
	fmt.Fprintf(&b, "FC\t%d\n", len(a.Files))

	writeDir(&b, a.RootDirectory, a)
	return b.String()
}

// countArchiveDirs recursively counts d and every descendant directory,
// resolved through Subdirectories rather than trusted against
// a.Directories' raw length, since a synthesized root (no explicit root
// entry) isn't itself a member of that flat array.
func countArchiveDirs(d *parc.Directory, a *parc.Archive) uint32 {
	total := uint32(1)
	for _, child := range d.Subdirectories(a) {
		total += countArchiveDirs(child, a)
	}
	return total
}

func writeDir(b *strings.Builder, d *parc.Directory, a *parc.Archive) {
	b.WriteString("<dir>\n")
	fmt.Fprintf(b, "Name\t%s\n", d.Name)
	subdirs := d.Subdirectories(a)
	fileList := d.FileList(a)
	fmt.Fprintf(b, "DC\t%d\n", len(subdirs))
	fmt.Fprintf(b, "FDI\t%d\n", d.FirstDirIndex)
	fmt.Fprintf(b, "FC\t%d\n", len(fileList))
	fmt.Fprintf(b, "FFI\t%d\n", d.FirstFileIndex)
	if d.Attributes != 0 {
		fmt.Fprintf(b, "Attr\t%X\n", d.Attributes)
	}

	names := make([]*parc.File, len(fileList))
	copy(names, fileList)
	sort.SliceStable(names, func(i, j int) bool { return names[i].Name < names[j].Name })
	for _, f := range names {
		writeFile(b, f)
	}
	for _, child := range subdirs {
		writeDir(b, child, a)
	}

	b.WriteString("</dir>\n")
}

func writeFile(b *strings.Builder, f *parc.File) {
	b.WriteString("<file>\n")
	fmt.Fprintf(b, "Name\t%s\n", f.Name)
	fmt.Fprintf(b, "Comp\t%s\n", yn(f.IsCompressed()))
	if f.IsCompressed() {
		end, version := binio.LittleEndian, uint8(sllz.Version1)
		if rec, ok := f.History.Current(); ok && sllz.IsSLLZ(rec.Data) && len(rec.Data) >= 6 {
			if rec.Data[4] == 1 {
				end = binio.BigEndian
			}
			version = rec.Data[5]
		}
		fmt.Fprintf(b, "Endi\t%s\n", endiString(end))
		fmt.Fprintf(b, "SLLZ\t%d\n", version)
	}
	if f.Attributes != 0 {
		fmt.Fprintf(b, "Attr\t%X\n", f.Attributes)
	}
	fmt.Fprintf(b, "Time\t%d\n", f.Timestamp)
	b.WriteString("</file>\n")
}
