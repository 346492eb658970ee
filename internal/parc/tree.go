package parc

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/aposteriorist/parctool/internal/config"
)

// pendingDir is one directory still waiting to have its children
// visited during the BFS walk in BuildFromDirectory.
type pendingDir struct {
	diskPath string
	node     *Directory
}

// BuildFromDirectory walks a real filesystem directory tree and
// constructs a fresh Archive whose flat Directories/Files arrays are
// populated in level order: every directory at depth N is appended to
// the flat array, contiguously, before any directory at depth N+1
// (§4.9, and see DESIGN.md for why level order was chosen over the
// parse path's order-agnostic acceptance of whatever a binary already
// contains). Each directory's own files are appended to the flat
// files array when that directory is visited, which follows the same
// order as the directories array, so FirstFileIndex ranges stay
// contiguous per directory.
func BuildFromDirectory(root string, opts config.Options) (*Archive, error) {
	a := NewArchive(filepath.Base(root))

	var rootDir *Directory
	if opts.EmitRootEntry {
		rootDir = &Directory{Name: "."}
		a.Directories = append(a.Directories, rootDir)
	} else {
		rootDir = &Directory{synthesized: true}
	}
	a.RootDirectory = rootDir

	queue := []pendingDir{{diskPath: root, node: rootDir}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(cur.diskPath)
		if err != nil {
			return nil, err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		var childDirNames, childFileNames []os.DirEntry
		for _, e := range entries {
			if e.IsDir() {
				childDirNames = append(childDirNames, e)
			} else {
				childFileNames = append(childFileNames, e)
			}
		}

		firstFileIndex := uint32(len(a.Files))
		for _, e := range childFileNames {
			f, err := loadFileFromDisk(filepath.Join(cur.diskPath, e.Name()), e.Name())
			if err != nil {
				return nil, err
			}
			f.ContainingDirectory = cur.node
			a.Files = append(a.Files, f)
		}

		firstDirIndex := uint32(len(a.Directories))
		children := make([]*Directory, 0, len(childDirNames))
		for _, e := range childDirNames {
			child := &Directory{Name: e.Name(), Attributes: DefaultDirAttributes}
			children = append(children, child)
			a.Directories = append(a.Directories, child)
			queue = append(queue, pendingDir{diskPath: filepath.Join(cur.diskPath, e.Name()), node: child})
		}

		if cur.node.synthesized {
			cur.node.ownSubdirs = children
			cur.node.ownFiles = append([]*File(nil), a.Files[firstFileIndex:firstFileIndex+uint32(len(childFileNames))]...)
		} else {
			cur.node.DirCount = uint32(len(children))
			cur.node.FirstDirIndex = firstDirIndex
			cur.node.FileCount = uint32(len(childFileNames))
			cur.node.FirstFileIndex = firstFileIndex
		}
	}

	a.archiveInitialized = true
	a.treeInitialized = true
	a.dataLoaded = true

	return a, nil
}

func loadFileFromDisk(path, name string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) >= 1<<31 {
		return nil, ErrSizeOverflow
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	f := NewFile(name)
	f.Size = uint32(len(data))
	f.EntryLength = uint32(len(data))
	f.Timestamp = uint64(info.ModTime().Unix())
	f.History.Add(HistoryRecord{Data: data, IsCompressed: false})
	return f, nil
}
