package tags

import (
	"slices"
	"strings"

	"github.com/Paintersrp/tagdex/internal/pathutil"
)

// Maintainer applies document deltas to a Store without rescanning the
// vault. Applying any sequence of deltas from an empty store yields the same
// associations a Scanner build over the resulting documents would.
type Maintainer struct {
	store *Store
}

// NewMaintainer returns a Maintainer mutating store in place.
func NewMaintainer(store *Store) *Maintainer {
	return &Maintainer{store: store}
}

// Update re-extracts the labels of the document at path from its new
// content. Labels the document keeps retain their position in the reverse
// index, so repeating an update with identical content changes nothing.
func (m *Maintainer) Update(path string, content []byte) {
	key := pathutil.ToKey(path)
	if key == "" {
		return
	}

	next := dedupe(Extract(content))
	previous := m.store.labelsOf(key)

	for _, label := range previous {
		if !slices.Contains(next, label) {
			m.store.unlink(key, label)
		}
	}
	for _, label := range next {
		if !slices.Contains(previous, label) {
			m.store.link(key, label)
		}
	}
	m.store.setLabels(key, next)
	m.store.commit(Change{Kind: ChangeUpdated, Paths: []string{key}})
}

// Remove drops every association of the document at path.
func (m *Maintainer) Remove(path string) {
	key := pathutil.ToKey(path)
	if key == "" {
		return
	}

	m.strikeAll(key)
	m.store.commit(Change{Kind: ChangeRemoved, Paths: []string{key}})
}

// Rename moves the entry for oldPath to newPath, keeping each label's
// document order. Unknown oldPath is a no-op. An existing entry at newPath
// is replaced.
func (m *Maintainer) Rename(oldPath, newPath string) {
	from := pathutil.ToKey(oldPath)
	to := pathutil.ToKey(newPath)
	if from == "" || to == "" || from == to || !m.store.has(from) {
		return
	}

	m.move(from, to)
	m.store.commit(Change{Kind: ChangeRenamed, Paths: []string{from, to}})
}

// RemoveDir drops every document inside dir. It reports the removed keys.
func (m *Maintainer) RemoveDir(dir string) []string {
	key := pathutil.ToKey(dir)
	if key == "" {
		return nil
	}

	paths := m.store.pathsUnder(key)
	if len(paths) == 0 {
		return nil
	}
	for _, path := range paths {
		m.strikeAll(path)
	}
	m.store.commit(Change{Kind: ChangeRemoved, Paths: paths})
	return paths
}

// RenameDir moves every document inside oldDir to the same relative path
// inside newDir, replacing entries already recorded there. It reports the
// number of documents moved.
func (m *Maintainer) RenameDir(oldDir, newDir string) int {
	from := pathutil.ToKey(oldDir)
	to := pathutil.ToKey(newDir)
	if from == "" || to == "" || from == to {
		return 0
	}

	paths := m.store.pathsUnder(from)
	if len(paths) == 0 {
		return 0
	}
	moved := make([]string, 0, 2*len(paths))
	for _, path := range paths {
		target := to + strings.TrimPrefix(path, from)
		m.move(path, target)
		moved = append(moved, path, target)
	}
	m.store.commit(Change{Kind: ChangeRenamed, Paths: moved})
	return len(paths)
}

func (m *Maintainer) move(from, to string) {
	if m.store.has(to) {
		m.strikeAll(to)
	}

	labels := m.store.labelsOf(from)
	for _, label := range labels {
		m.store.repoint(label, from, to)
	}
	m.store.dropFile(from)
	m.store.setLabels(to, labels)
}

func (m *Maintainer) strikeAll(key string) {
	for _, label := range m.store.labelsOf(key) {
		m.store.unlink(key, label)
	}
	m.store.dropFile(key)
}

func dedupe(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if !slices.Contains(out, label) {
			out = append(out, label)
		}
	}
	return out
}
