// Package views renders index query results for the terminal.
package views

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Paintersrp/tagdex/internal/matcher"
	"github.com/Paintersrp/tagdex/internal/tags"
)

// styles are bound to a renderer so output written to a pipe or buffer
// carries no escape sequences. Copy a style before sizing it: copies share
// their rules otherwise.
type styles struct {
	title  lipgloss.Style
	label  lipgloss.Style
	number lipgloss.Style
	muted  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title:  r.NewStyle().Bold(true),
		label:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#0AF")),
		number: r.NewStyle().Foreground(lipgloss.Color("#666666")).Align(lipgloss.Right),
		muted:  r.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

// Vocabulary writes one row per label with the number of documents bearing it.
func Vocabulary(w io.Writer, vocab []tags.TagCount) error {
	st := newStyles(w)
	if len(vocab) == 0 {
		_, err := fmt.Fprintln(w, st.muted.Render("No tags indexed."))
		return err
	}

	labelWidth, countWidth := len("TAG"), len("DOCS")
	for _, tc := range vocab {
		labelWidth = max(labelWidth, lipgloss.Width(tc.Label))
		countWidth = max(countWidth, len(strconv.Itoa(tc.Count)))
	}

	var b strings.Builder
	b.WriteString(row(st.title.Copy().Width(labelWidth).Render("TAG"), st.title.Copy().Width(countWidth).Align(lipgloss.Right).Render("DOCS")))
	for _, tc := range vocab {
		b.WriteString(row(
			st.label.Copy().Width(labelWidth).Render(tc.Label),
			st.number.Copy().Width(countWidth).Render(strconv.Itoa(tc.Count)),
		))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Matches writes ranked search results with their score.
func Matches(w io.Writer, query string, matches []matcher.Match) error {
	st := newStyles(w)
	if len(matches) == 0 {
		_, err := fmt.Fprintln(w, st.muted.Render(fmt.Sprintf("No tags match %q.", query)))
		return err
	}

	labelWidth, countWidth := len("TAG"), len("DOCS")
	for _, m := range matches {
		labelWidth = max(labelWidth, lipgloss.Width(m.Label))
		countWidth = max(countWidth, len(strconv.Itoa(m.Count)))
	}

	var b strings.Builder
	b.WriteString(row(
		st.title.Copy().Width(labelWidth).Render("TAG"),
		st.title.Copy().Width(countWidth).Align(lipgloss.Right).Render("DOCS"),
		st.title.Render("SCORE"),
	))
	for _, m := range matches {
		b.WriteString(row(
			st.label.Copy().Width(labelWidth).Render(m.Label),
			st.number.Copy().Width(countWidth).Render(strconv.Itoa(m.Count)),
			st.muted.Render(strconv.FormatFloat(m.Score, 'f', 2, 64)),
		))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Files writes the documents bearing label, one per line.
func Files(w io.Writer, label string, files []string) error {
	st := newStyles(w)
	if len(files) == 0 {
		_, err := fmt.Fprintln(w, st.muted.Render(fmt.Sprintf("No documents tagged %q.", label)))
		return err
	}

	var b strings.Builder
	b.WriteString(st.title.Render(fmt.Sprintf("%s (%d)", label, len(files))))
	b.WriteByte('\n')
	for _, f := range files {
		b.WriteString("  ")
		b.WriteString(f)
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func row(cells ...string) string {
	return strings.Join(cells, "  ") + "\n"
}
