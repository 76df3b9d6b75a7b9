package tags

import (
	"slices"
	"strings"

	"github.com/Paintersrp/tagdex/internal/pathutil"
)

// ChangeKind identifies the mutation that produced a Change.
type ChangeKind uint8

const (
	ChangeReset ChangeKind = iota
	ChangeReplaced
	ChangeUpdated
	ChangeRemoved
	ChangeRenamed
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeReset:
		return "reset"
	case ChangeReplaced:
		return "replaced"
	case ChangeUpdated:
		return "updated"
	case ChangeRemoved:
		return "removed"
	case ChangeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// Change describes a committed mutation of the store. Paths lists the
// documents involved; it is empty for Reset and Replaced.
type Change struct {
	Kind  ChangeKind
	Paths []string
}

// Store owns the TagIndex of an open vault and notifies subscribers after
// every mutation.
//
// Store is not safe for concurrent use. Callers must not interleave a
// ReplaceAll from a full build with incremental mutations.
type Store struct {
	index     *TagIndex
	observers map[int]func(Change)
	nextID    int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		index:     NewTagIndex(),
		observers: make(map[int]func(Change)),
	}
}

// Subscribe registers fn to be called synchronously after each mutation. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		delete(s.observers, id)
	}
}

// Reset discards every entry.
func (s *Store) Reset() {
	s.index = NewTagIndex()
	s.notify(Change{Kind: ChangeReset})
}

// ReplaceAll swaps in a complete index produced by a scan or a cache load.
// The store takes ownership of idx.
func (s *Store) ReplaceAll(idx *TagIndex) {
	if idx == nil {
		idx = NewTagIndex()
	}
	if idx.FilesToTags == nil {
		idx.FilesToTags = make(map[string][]string)
	}
	if idx.TagsToFiles == nil {
		idx.TagsToFiles = make(map[string][]string)
	}
	idx.refreshVocabulary()
	s.index = idx
	s.notify(Change{Kind: ChangeReplaced})
}

// IsBuilt reports whether at least one document or label is present.
func (s *Store) IsBuilt() bool {
	return len(s.index.FilesToTags) > 0 || len(s.index.TagsToFiles) > 0
}

// Documents returns the number of indexed documents.
func (s *Store) Documents() int {
	return len(s.index.FilesToTags)
}

// FilesForTag returns the documents bearing label. Unknown labels yield an
// empty list.
func (s *Store) FilesForTag(label string) []string {
	return append([]string{}, s.index.TagsToFiles[NormalizeLabel(label)]...)
}

// TagsForFile returns the labels recorded for the document at path.
func (s *Store) TagsForFile(path string) []string {
	return append([]string{}, s.index.FilesToTags[pathutil.ToKey(path)]...)
}

// Vocabulary returns the labels in use with their document counts.
func (s *Store) Vocabulary() []TagCount {
	return append([]TagCount{}, s.index.Vocabulary...)
}

// Snapshot returns a deep copy of the current index.
func (s *Store) Snapshot() *TagIndex {
	return s.index.Clone()
}

func (s *Store) notify(change Change) {
	for _, fn := range s.observers {
		fn(change)
	}
}

// The helpers below are the mutation surface of the Maintainer.

func (s *Store) labelsOf(path string) []string {
	return s.index.FilesToTags[path]
}

func (s *Store) has(path string) bool {
	_, ok := s.index.FilesToTags[path]
	return ok
}

// pathsUnder lists the documents inside dir, sorted.
func (s *Store) pathsUnder(dir string) []string {
	prefix := dir + "/"
	var paths []string
	for path := range s.index.FilesToTags {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	slices.Sort(paths)
	return paths
}

func (s *Store) setLabels(path string, labels []string) {
	if len(labels) == 0 {
		delete(s.index.FilesToTags, path)
		return
	}
	s.index.FilesToTags[path] = labels
}

func (s *Store) link(path, label string) {
	s.index.TagsToFiles[label] = append(s.index.TagsToFiles[label], path)
}

func (s *Store) unlink(path, label string) {
	s.index.strike(path, label)
}

func (s *Store) dropFile(path string) {
	delete(s.index.FilesToTags, path)
}

func (s *Store) repoint(label, oldPath, newPath string) {
	paths := s.index.TagsToFiles[label]
	for i, p := range paths {
		if p == oldPath {
			paths[i] = newPath
		}
	}
}

func (s *Store) commit(change Change) {
	s.index.refreshVocabulary()
	s.notify(change)
}
