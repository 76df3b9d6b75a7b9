package tags

import (
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync/atomic"

	"github.com/Paintersrp/tagdex/internal/pathutil"
)

// DefaultPrefixBytes bounds how much of each document a scan reads. Headers
// sit at the top of a document, so the I/O cost of a scan is independent of
// document size.
const DefaultPrefixBytes = 4096

// DefaultExtensions lists the file extensions treated as documents.
var DefaultExtensions = []string{".md"}

// ErrIndexing is returned when a scan is requested while another is running.
var ErrIndexing = errors.New("tags: scan already in progress")

// Entry is a single item of a document hierarchy listing.
type Entry struct {
	// Path is slash separated and relative to the hierarchy root.
	Path  string
	IsDir bool
}

// Name returns the final path element.
func (e Entry) Name() string {
	return path.Base(e.Path)
}

// Tree is the read-only view of a document hierarchy consumed by the Scanner.
type Tree interface {
	// List returns the direct children of dir. The root is "".
	List(dir string) ([]Entry, error)
	// ReadPrefix returns at most n leading bytes of the document at p.
	ReadPrefix(p string, n int) ([]byte, error)
}

// ScanOptions controls which entries a scan visits.
type ScanOptions struct {
	// PrefixBytes is the number of leading bytes read from each document.
	PrefixBytes int
	// Extensions lists document file extensions, compared case-insensitively.
	Extensions []string
	// IgnoredFolders contains directory names skipped during the walk.
	IgnoredFolders []string
}

func (o ScanOptions) withDefaults() ScanOptions {
	if o.PrefixBytes <= 0 {
		o.PrefixBytes = DefaultPrefixBytes
	}
	if len(o.Extensions) == 0 {
		o.Extensions = append([]string(nil), DefaultExtensions...)
	}
	return o
}

// Scanner builds a complete TagIndex from a document hierarchy.
type Scanner struct {
	opts     ScanOptions
	ignored  map[string]struct{}
	logger   *slog.Logger
	indexing atomic.Bool
}

// NewScanner returns a Scanner. A nil logger falls back to slog.Default.
func NewScanner(opts ScanOptions, logger *slog.Logger) *Scanner {
	opts = opts.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	ignored := make(map[string]struct{}, len(opts.IgnoredFolders))
	for _, dir := range opts.IgnoredFolders {
		if trimmed := strings.TrimSpace(dir); trimmed != "" {
			ignored[strings.ToLower(trimmed)] = struct{}{}
		}
	}

	return &Scanner{opts: opts, ignored: ignored, logger: logger}
}

// Options returns the effective scan options.
func (s *Scanner) Options() ScanOptions {
	return s.opts
}

// IsIndexing reports whether a scan is in flight.
func (s *Scanner) IsIndexing() bool {
	return s.indexing.Load()
}

// Scan walks tree and returns the index of every document found. Unreadable
// documents and subdirectories are logged and skipped; only a failure to
// list the root aborts the scan. A started scan always runs to completion.
func (s *Scanner) Scan(tree Tree) (*TagIndex, error) {
	if !s.indexing.CompareAndSwap(false, true) {
		return nil, ErrIndexing
	}
	defer s.indexing.Store(false)

	root, err := tree.List("")
	if err != nil {
		return nil, fmt.Errorf("tags: listing vault root: %w", err)
	}

	idx := NewTagIndex()
	stack := [][]Entry{root}
	var documents, skipped int

	for len(stack) > 0 {
		entries := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, entry := range entries {
			if strings.HasPrefix(entry.Name(), ".") {
				continue
			}

			if entry.IsDir {
				if s.isIgnored(entry.Name()) {
					continue
				}
				children, err := tree.List(entry.Path)
				if err != nil {
					s.logger.Warn("skipping unreadable directory",
						slog.String("path", entry.Path),
						slog.String("error", err.Error()))
					continue
				}
				stack = append(stack, children)
				continue
			}

			if !pathutil.HasExtension(entry.Name(), s.opts.Extensions) {
				continue
			}

			key := pathutil.ToKey(entry.Path)
			prefix, err := tree.ReadPrefix(entry.Path, s.opts.PrefixBytes)
			if err != nil {
				skipped++
				s.logger.Warn("skipping unreadable document",
					slog.String("path", key),
					slog.String("error", err.Error()))
				continue
			}

			documents++
			if labels := Extract(prefix); len(labels) > 0 {
				idx.add(key, labels)
			}
		}
	}

	idx.refreshVocabulary()
	s.logger.Debug("scan complete",
		slog.Int("documents", documents),
		slog.Int("tagged", len(idx.FilesToTags)),
		slog.Int("labels", len(idx.TagsToFiles)),
		slog.Int("skipped", skipped))
	return idx, nil
}

func (s *Scanner) isIgnored(name string) bool {
	_, skip := s.ignored[strings.ToLower(name)]
	return skip
}
