package fzf

import (
	"errors"
	"testing"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/Paintersrp/tagdex/internal/tags"
)

var vocab = []tags.TagCount{{Label: "project", Count: 2}, {Label: "go", Count: 1}}

func pickerWith(find FindFunc) *TagPicker {
	p := NewTagPicker("Tags", func(label string) ([]string, error) {
		if label == "project" {
			return []string{"a.md", "b.md", "c.md", "d.md", "e.md"}, nil
		}
		return nil, nil
	})
	p.find = find
	return p
}

func TestPickReturnsSelectedTag(t *testing.T) {
	var items []string
	p := pickerWith(func(slice any, itemFunc func(int) string, opts ...fuzzyfinder.Option) (int, error) {
		for i := range slice.([]tags.TagCount) {
			items = append(items, itemFunc(i))
		}
		return 1, nil
	})

	got, err := p.Pick(vocab, "g")
	if err != nil {
		t.Fatalf("Pick returned error: %v", err)
	}
	if got.Label != "go" {
		t.Fatalf("expected go, got %#v", got)
	}
	if len(items) != 2 || items[0] != "project (2)" {
		t.Fatalf("unexpected finder items %v", items)
	}
}

func TestPickMapsAbortToNoSelection(t *testing.T) {
	p := pickerWith(func(any, func(int) string, ...fuzzyfinder.Option) (int, error) {
		return -1, fuzzyfinder.ErrAbort
	})

	if _, err := p.Pick(vocab, ""); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", err)
	}
}

func TestPickWrapsFinderErrors(t *testing.T) {
	boom := errors.New("terminal unavailable")
	p := pickerWith(func(any, func(int) string, ...fuzzyfinder.Option) (int, error) {
		return -1, boom
	})

	if _, err := p.Pick(vocab, ""); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped finder error, got %v", err)
	}
}

func TestPickRejectsEmptyVocabulary(t *testing.T) {
	p := pickerWith(nil)
	if _, err := p.Pick(nil, ""); err == nil {
		t.Fatalf("expected error for empty vocabulary")
	}
}

func TestPreviewTruncatesToWindow(t *testing.T) {
	p := pickerWith(nil)

	got := p.preview(vocab, 0, 4)
	want := "project: 5 documents\na.md\nb.md\n... 3 more"
	if got != want {
		t.Fatalf("preview mismatch: got %q, want %q", got, want)
	}
	if got := p.preview(vocab, 1, 10); got != "No documents" {
		t.Fatalf("unexpected preview for empty tag %q", got)
	}
	if got := p.preview(vocab, -1, 10); got != "" {
		t.Fatalf("expected blank preview without a cursor, got %q", got)
	}
}
