// Package vault exposes a directory of notes as a tags.Tree.
package vault

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"

	"github.com/Paintersrp/tagdex/internal/pathutil"
	"github.com/Paintersrp/tagdex/internal/tags"
)

// FSTree reads a document hierarchy from an fs.FS.
type FSTree struct {
	fsys fs.FS
	root string
}

// NewFSTree wraps fsys. root is only used for display and may be empty.
func NewFSTree(fsys fs.FS, root string) *FSTree {
	return &FSTree{fsys: fsys, root: root}
}

// NewDirTree returns a tree rooted at the vault directory on disk.
func NewDirTree(dir string) (*FSTree, error) {
	normalized := pathutil.NormalizePath(dir)
	if normalized == "" {
		return nil, errors.New("vault directory cannot be empty")
	}

	info, err := os.Stat(normalized)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault: %s is not a directory", normalized)
	}

	return NewFSTree(os.DirFS(normalized), normalized), nil
}

// Root returns the directory the tree was opened on.
func (t *FSTree) Root() string {
	return t.root
}

// List returns the children of dir sorted by name.
func (t *FSTree) List(dir string) ([]tags.Entry, error) {
	name := toFSName(dir)
	entries, err := fs.ReadDir(t.fsys, name)
	if err != nil {
		return nil, err
	}

	out := make([]tags.Entry, 0, len(entries))
	for _, entry := range entries {
		child := entry.Name()
		if name != "." {
			child = path.Join(name, child)
		}
		out = append(out, tags.Entry{Path: child, IsDir: entry.IsDir()})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out, nil
}

// ReadPrefix returns at most n leading bytes of the file at p.
func (t *FSTree) ReadPrefix(p string, n int) ([]byte, error) {
	f, err := t.fsys.Open(toFSName(p))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if n <= 0 {
		return io.ReadAll(f)
	}
	return io.ReadAll(io.LimitReader(f, int64(n)))
}

func toFSName(p string) string {
	key := pathutil.ToKey(p)
	if key == "" {
		return "."
	}
	return key
}
