package fzf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/Paintersrp/tagdex/internal/tags"
)

// ErrNoSelection is returned when the picker is dismissed without a choice.
var ErrNoSelection = errors.New("no tag selected")

// FindFunc matches the signature of fuzzyfinder.Find.
type FindFunc func(slice any, itemFunc func(int) string, opts ...fuzzyfinder.Option) (int, error)

// TagPicker lets the user choose a label from the vocabulary, previewing the
// documents that carry it.
type TagPicker struct {
	Header string
	files  func(label string) ([]string, error)
	find   FindFunc
}

func NewTagPicker(header string, files func(label string) ([]string, error)) *TagPicker {
	return &TagPicker{Header: header, files: files, find: fuzzyfinder.Find}
}

// Pick runs the finder over vocab, starting from query when it is set.
func (p *TagPicker) Pick(vocab []tags.TagCount, query string) (tags.TagCount, error) {
	if len(vocab) == 0 {
		return tags.TagCount{}, fmt.Errorf("no tags indexed")
	}

	options := []fuzzyfinder.Option{
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			return p.preview(vocab, i, h)
		}),
	}
	if query != "" {
		options = append(options, fuzzyfinder.WithQuery(query))
	}
	if p.Header != "" {
		options = append(options, fuzzyfinder.WithHeader(p.Header))
	}

	idx, err := p.find(vocab, func(i int) string {
		return fmt.Sprintf("%s (%d)", vocab[i].Label, vocab[i].Count)
	}, options...)
	if errors.Is(err, fuzzyfinder.ErrAbort) {
		return tags.TagCount{}, ErrNoSelection
	}
	if err != nil {
		return tags.TagCount{}, fmt.Errorf("error selecting tag: %w", err)
	}
	if idx < 0 || idx >= len(vocab) {
		return tags.TagCount{}, ErrNoSelection
	}

	return vocab[idx], nil
}

// preview lists the documents for the highlighted label, truncated to the
// window height.
func (p *TagPicker) preview(vocab []tags.TagCount, i, height int) string {
	if i < 0 || i >= len(vocab) || p.files == nil {
		return ""
	}

	files, err := p.files(vocab[i].Label)
	if err != nil {
		return "Error loading documents"
	}
	if len(files) == 0 {
		return "No documents"
	}

	limit := height - 1
	if limit < 1 {
		limit = 1
	}
	lines := []string{fmt.Sprintf("%s: %d documents", vocab[i].Label, len(files))}
	for j, f := range files {
		if j == limit-1 && len(files) > limit {
			lines = append(lines, fmt.Sprintf("... %d more", len(files)-j))
			break
		}
		lines = append(lines, f)
	}
	return strings.Join(lines, "\n")
}
