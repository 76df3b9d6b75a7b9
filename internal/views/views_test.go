package views

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Paintersrp/tagdex/internal/matcher"
	"github.com/Paintersrp/tagdex/internal/tags"
)

func fields(output string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		rows = append(rows, strings.Fields(line))
	}
	return rows
}

func TestVocabularyRendersAlignedRows(t *testing.T) {
	var buf bytes.Buffer
	err := Vocabulary(&buf, []tags.TagCount{
		{Label: "project", Count: 12},
		{Label: "go", Count: 3},
	})
	if err != nil {
		t.Fatalf("Vocabulary returned error: %v", err)
	}

	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected plain output for a buffer, got %q", buf.String())
	}

	want := [][]string{{"TAG", "DOCS"}, {"project", "12"}, {"go", "3"}}
	if diff := cmp.Diff(want, fields(buf.String())); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines[1]) != len(lines[2]) {
		t.Fatalf("expected aligned rows, got %q and %q", lines[1], lines[2])
	}
}

func TestMatchesIncludesScore(t *testing.T) {
	var buf bytes.Buffer
	err := Matches(&buf, "pro", []matcher.Match{{Label: "project", Count: 5, Score: 0.8}})
	if err != nil {
		t.Fatalf("Matches returned error: %v", err)
	}

	want := [][]string{{"TAG", "DOCS", "SCORE"}, {"project", "5", "0.80"}}
	if diff := cmp.Diff(want, fields(buf.String())); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFilesListsDocuments(t *testing.T) {
	var buf bytes.Buffer
	if err := Files(&buf, "go", []string{"a.md", "notes/b.md"}); err != nil {
		t.Fatalf("Files returned error: %v", err)
	}

	want := "go (2)\n  a.md\n  notes/b.md\n"
	if buf.String() != want {
		t.Fatalf("unexpected output %q, want %q", buf.String(), want)
	}
}

func TestEmptyResultsPrintNotice(t *testing.T) {
	cases := map[string]struct {
		render func(*bytes.Buffer) error
		want   string
	}{
		"vocabulary": {func(b *bytes.Buffer) error { return Vocabulary(b, nil) }, "No tags indexed.\n"},
		"matches":    {func(b *bytes.Buffer) error { return Matches(b, "zz", nil) }, "No tags match \"zz\".\n"},
		"files":      {func(b *bytes.Buffer) error { return Files(b, "go", nil) }, "No documents tagged \"go\".\n"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tc.render(&buf); err != nil {
				t.Fatalf("render returned error: %v", err)
			}
			if buf.String() != tc.want {
				t.Fatalf("unexpected output %q, want %q", buf.String(), tc.want)
			}
		})
	}
}

func TestMatchesHeaderKeepsColumnWidths(t *testing.T) {
	var buf bytes.Buffer
	err := Matches(&buf, "pro", []matcher.Match{{Label: "project", Count: 5, Score: 0.8}})
	if err != nil {
		t.Fatalf("Matches returned error: %v", err)
	}

	want := "TAG      DOCS  SCORE\nproject     5  0.80\n"
	if buf.String() != want {
		t.Fatalf("unexpected output %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := Vocabulary(&buf, []tags.TagCount{{Label: "project", Count: 5}}); err != nil {
		t.Fatalf("Vocabulary returned error: %v", err)
	}
	if want := "TAG      DOCS\nproject     5\n"; buf.String() != want {
		t.Fatalf("unexpected output %q, want %q", buf.String(), want)
	}
}
