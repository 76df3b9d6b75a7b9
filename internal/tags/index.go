package tags

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// TagCount is one vocabulary entry: a label and the number of documents
// bearing it.
type TagCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TagIndex is the bidirectional mapping between documents and labels.
//
// For every path p and label t, t is in FilesToTags[p] exactly when p is in
// TagsToFiles[t]. TagsToFiles never holds an empty list.
type TagIndex struct {
	FilesToTags map[string][]string `json:"files_to_tags"`
	TagsToFiles map[string][]string `json:"tags_to_files"`
	Vocabulary  []TagCount          `json:"vocabulary"`
}

// NewTagIndex returns an empty index.
func NewTagIndex() *TagIndex {
	return &TagIndex{
		FilesToTags: make(map[string][]string),
		TagsToFiles: make(map[string][]string),
		Vocabulary:  []TagCount{},
	}
}

// Clone returns a deep copy of the index.
func (idx *TagIndex) Clone() *TagIndex {
	if idx == nil {
		return NewTagIndex()
	}
	return &TagIndex{
		FilesToTags: cloneMapping(idx.FilesToTags),
		TagsToFiles: cloneMapping(idx.TagsToFiles),
		Vocabulary:  append([]TagCount{}, idx.Vocabulary...),
	}
}

// Documents returns the number of indexed documents.
func (idx *TagIndex) Documents() int {
	return len(idx.FilesToTags)
}

// Equal reports whether both indexes hold the same set of associations.
// Ordering inside the lists is ignored.
func (idx *TagIndex) Equal(other *TagIndex) bool {
	return sameAssociations(idx.FilesToTags, other.FilesToTags) &&
		sameAssociations(idx.TagsToFiles, other.TagsToFiles)
}

// Validate checks the index invariants.
func (idx *TagIndex) Validate() error {
	if idx.FilesToTags == nil || idx.TagsToFiles == nil {
		return errors.New("index maps must not be nil")
	}

	for label, paths := range idx.TagsToFiles {
		if len(paths) == 0 {
			return fmt.Errorf("label %q has no documents", label)
		}
		for _, p := range paths {
			if !slices.Contains(idx.FilesToTags[p], label) {
				return fmt.Errorf("label %q lists %q which does not carry it", label, p)
			}
		}
	}

	for p, labels := range idx.FilesToTags {
		if len(labels) == 0 {
			return fmt.Errorf("document %q has no labels", p)
		}
		for _, label := range labels {
			if !slices.Contains(idx.TagsToFiles[label], p) {
				return fmt.Errorf("document %q carries %q without a reverse entry", p, label)
			}
		}
	}

	if len(idx.Vocabulary) != len(idx.TagsToFiles) {
		return fmt.Errorf("vocabulary has %d entries for %d labels", len(idx.Vocabulary), len(idx.TagsToFiles))
	}
	for _, entry := range idx.Vocabulary {
		if got := len(idx.TagsToFiles[entry.Label]); got != entry.Count {
			return fmt.Errorf("vocabulary count for %q is %d, want %d", entry.Label, entry.Count, got)
		}
	}
	return nil
}

// add associates path with labels. Duplicate labels are collapsed, keeping
// the first occurrence.
func (idx *TagIndex) add(path string, labels []string) {
	for _, label := range labels {
		if slices.Contains(idx.FilesToTags[path], label) {
			continue
		}
		idx.FilesToTags[path] = append(idx.FilesToTags[path], label)
		idx.TagsToFiles[label] = append(idx.TagsToFiles[label], path)
	}
}

// strike removes the association between path and label, deleting the label
// entry when its list empties.
func (idx *TagIndex) strike(path, label string) {
	paths := slices.DeleteFunc(idx.TagsToFiles[label], func(p string) bool { return p == path })
	if len(paths) == 0 {
		delete(idx.TagsToFiles, label)
		return
	}
	idx.TagsToFiles[label] = paths
}

// refreshVocabulary recomputes the vocabulary from TagsToFiles, ordered by
// count descending then label ascending.
func (idx *TagIndex) refreshVocabulary() {
	vocab := make([]TagCount, 0, len(idx.TagsToFiles))
	for label, paths := range idx.TagsToFiles {
		vocab = append(vocab, TagCount{Label: label, Count: len(paths)})
	}
	SortVocabulary(vocab)
	idx.Vocabulary = vocab
}

// SortVocabulary orders entries by count descending, breaking ties by label.
func SortVocabulary(vocab []TagCount) {
	sort.Slice(vocab, func(i, j int) bool {
		if vocab[i].Count != vocab[j].Count {
			return vocab[i].Count > vocab[j].Count
		}
		return vocab[i].Label < vocab[j].Label
	})
}

func cloneMapping(values map[string][]string) map[string][]string {
	cloned := make(map[string][]string, len(values))
	for key, vals := range values {
		cloned[key] = append([]string(nil), vals...)
	}
	return cloned
}

func sameAssociations(a, b map[string][]string) bool {
	if len(a) != len(b) {
		return false
	}
	for key, left := range a {
		right, ok := b[key]
		if !ok || len(left) != len(right) {
			return false
		}
		l := slices.Clone(left)
		r := slices.Clone(right)
		slices.Sort(l)
		slices.Sort(r)
		if !slices.Equal(l, r) {
			return false
		}
	}
	return true
}
