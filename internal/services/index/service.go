package index

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/Paintersrp/tagdex/internal/kv"
	"github.com/Paintersrp/tagdex/internal/matcher"
	"github.com/Paintersrp/tagdex/internal/pathutil"
	"github.com/Paintersrp/tagdex/internal/persist"
	"github.com/Paintersrp/tagdex/internal/tags"
)

// ErrClosed signals that the index service has been shut down.
var ErrClosed = errors.New("index service closed")

// DefaultMaxAge is how old a cached index may be before Open rescans.
const DefaultMaxAge = 24 * time.Hour

// Stats captures lightweight instrumentation about the shared index.
type Stats struct {
	LastRebuild time.Time
	Pending     int
	Documents   int
	Tags        int
}

// Options tunes a Service. Zero values select defaults.
type Options struct {
	Scanner *tags.Scanner
	Matcher matcher.Matcher
	MaxAge  time.Duration
	Now     func() time.Time
}

type deltaKind uint8

const (
	deltaUpdate deltaKind = iota
	deltaRemove
	deltaRename
	deltaRemoveDir
	deltaRenameDir
)

type delta struct {
	kind    deltaKind
	path    string
	target  string
	content []byte
}

// Service owns the tag index of one vault. It serializes every mutation,
// queues deltas that arrive while a full build runs, keeps the matcher in
// step with the vocabulary and writes the index through to the cache.
type Service struct {
	mu          sync.Mutex
	tree        tags.Tree
	scanner     *tags.Scanner
	store       *tags.Store
	maintainer  *tags.Maintainer
	matcher     matcher.Matcher
	cache       *persist.Adapter
	pending     []delta
	building    bool
	batching    bool
	lastRebuild time.Time
	closed      bool
	unsubscribe func()

	now    func() time.Time
	maxAge time.Duration
	logger *slog.Logger
}

// NewService constructs the index service for tree. A nil store disables
// caching.
func NewService(tree tags.Tree, opts Options, store kv.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Scanner == nil {
		opts.Scanner = tags.NewScanner(tags.ScanOptions{}, logger)
	}
	if opts.Matcher == nil {
		opts.Matcher = matcher.NewFuzzyMatcher(0)
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Service{
		tree:    tree,
		scanner: opts.Scanner,
		store:   tags.NewStore(),
		matcher: opts.Matcher,
		now:     opts.Now,
		maxAge:  opts.MaxAge,
		logger:  logger,
	}
	s.maintainer = tags.NewMaintainer(s.store)
	if store != nil {
		s.cache = persist.NewAdapter(store, persist.WithClock(opts.Now), persist.WithLogger(logger))
	}
	s.unsubscribe = s.store.Subscribe(s.onChange)
	return s
}

// Open restores the cached index when it is fresh and rebuilds otherwise.
func (s *Service) Open() error {
	if s.cache != nil && !s.cache.IsStale(s.maxAge) {
		if idx, ok := s.cache.Load(); ok {
			last, _ := s.cache.LastIndexed()

			s.mu.Lock()
			defer s.mu.Unlock()
			if s.closed {
				return ErrClosed
			}

			s.batching = true
			s.store.ReplaceAll(idx)
			s.batching = false
			s.lastRebuild = last
			s.logger.Info("restored cached index",
				slog.Int("documents", idx.Documents()),
				slog.Time("last_indexed", last))
			return nil
		}
	}
	return s.Rebuild()
}

// Rebuild scans the vault and replaces the index. Deltas received during the
// scan are applied afterwards in the order they arrived. A second Rebuild
// while one is running returns tags.ErrIndexing.
func (s *Service) Rebuild() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.building {
		s.mu.Unlock()
		return tags.ErrIndexing
	}
	s.building = true
	s.mu.Unlock()

	started := s.now()
	idx, err := s.scanner.Scan(s.tree)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.building = false

	if s.closed {
		return ErrClosed
	}

	pending := s.pending
	s.pending = nil

	if err != nil {
		// The previous index stays in place; queued deltas still apply to it.
		if len(pending) > 0 {
			s.replay(pending)
			s.save()
		}
		return fmt.Errorf("rebuild index: %w", err)
	}

	s.batching = true
	s.store.ReplaceAll(idx)
	s.replay(pending)
	s.batching = false

	s.lastRebuild = s.now()
	s.save()
	s.logger.Info("index rebuilt",
		slog.Int("documents", s.store.Documents()),
		slog.Int("tags", len(s.store.Vocabulary())),
		slog.Int("replayed", len(pending)),
		slog.Duration("elapsed", s.lastRebuild.Sub(started)))
	return nil
}

// Update re-indexes the document at path from content. Only the leading
// bytes a scan would read are considered.
func (s *Service) Update(path string, content []byte) error {
	if limit := s.scanner.Options().PrefixBytes; len(content) > limit {
		content = content[:limit]
	}
	return s.submit(delta{kind: deltaUpdate, path: path, content: append([]byte(nil), content...)})
}

// Remove drops the document at path from the index.
func (s *Service) Remove(path string) error {
	return s.submit(delta{kind: deltaRemove, path: path})
}

// Rename moves the entry for oldPath to newPath.
func (s *Service) Rename(oldPath, newPath string) error {
	return s.submit(delta{kind: deltaRename, path: oldPath, target: newPath})
}

// RemoveDir drops every document inside the directory dir.
func (s *Service) RemoveDir(dir string) error {
	return s.submit(delta{kind: deltaRemoveDir, path: dir})
}

// RenameDir moves every document inside oldDir below newDir.
func (s *Service) RenameDir(oldDir, newDir string) error {
	return s.submit(delta{kind: deltaRenameDir, path: oldDir, target: newDir})
}

// Refresh re-reads the header of the document at path through the tree. A
// document that no longer exists is removed.
func (s *Service) Refresh(path string) error {
	key := pathutil.ToKey(path)
	if key == "" {
		return nil
	}

	content, err := s.tree.ReadPrefix(key, s.scanner.Options().PrefixBytes)
	if errors.Is(err, fs.ErrNotExist) {
		return s.Remove(key)
	}
	if err != nil {
		return fmt.Errorf("refresh %s: %w", key, err)
	}
	return s.submit(delta{kind: deltaUpdate, path: key, content: content})
}

func (s *Service) submit(d delta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.building {
		s.pending = append(s.pending, d)
		return nil
	}
	s.apply(d)
	return nil
}

// replay applies queued deltas in arrival order. The caller saves.
func (s *Service) replay(pending []delta) {
	batching := s.batching
	s.batching = true
	for _, d := range pending {
		s.apply(d)
	}
	s.batching = batching
}

func (s *Service) apply(d delta) {
	switch d.kind {
	case deltaUpdate:
		s.maintainer.Update(d.path, d.content)
	case deltaRemove:
		s.maintainer.Remove(d.path)
	case deltaRename:
		s.maintainer.Rename(d.path, d.target)
	case deltaRemoveDir:
		if removed := s.maintainer.RemoveDir(d.path); len(removed) > 0 {
			s.logger.Debug("removed directory from index",
				slog.String("dir", d.path),
				slog.Int("documents", len(removed)))
		}
	case deltaRenameDir:
		if moved := s.maintainer.RenameDir(d.path, d.target); moved > 0 {
			s.logger.Debug("moved directory in index",
				slog.String("from", d.path),
				slog.String("to", d.target),
				slog.Int("documents", moved))
		}
	}
}

// onChange runs synchronously inside every store mutation, with s.mu held.
func (s *Service) onChange(change tags.Change) {
	s.matcher.Build(s.store.Vocabulary())
	if s.batching {
		return
	}
	s.logger.Debug("index changed",
		slog.String("kind", change.Kind.String()),
		slog.Any("paths", change.Paths))
	s.save()
}

// save writes the index stamped with the last full scan, so incremental
// changes never make a cache look freshly scanned.
func (s *Service) save() {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveAt(s.store.Snapshot(), s.lastRebuild); err != nil {
		s.logger.Warn("failed to cache index", slog.String("error", err.Error()))
	}
}

// Search returns the ranked vocabulary matches for query.
func (s *Service) Search(query string) ([]matcher.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	return s.matcher.Search(query), nil
}

// FilesForTag lists the documents bearing label.
func (s *Service) FilesForTag(label string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	return s.store.FilesForTag(label), nil
}

// TagsForFile lists the labels recorded for the document at path.
func (s *Service) TagsForFile(path string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	return s.store.TagsForFile(path), nil
}

// Vocabulary returns every label with its document count, most used first.
func (s *Service) Vocabulary() ([]tags.TagCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	return s.store.Vocabulary(), nil
}

// IsBuilt reports whether the index holds any association.
func (s *Service) IsBuilt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed && s.store.IsBuilt()
}

// IsIndexing reports whether a full build is in flight.
func (s *Service) IsIndexing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.building
}

// Stats returns instrumentation about the index lifecycle.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Stats{LastRebuild: s.lastRebuild}
	}
	return Stats{
		LastRebuild: s.lastRebuild,
		Pending:     len(s.pending),
		Documents:   s.store.Documents(),
		Tags:        len(s.store.Vocabulary()),
	}
}

// Close releases the service and discards the index. Subsequent calls
// return ErrClosed. The kv store passed to NewService is left open.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.unsubscribe()
	s.store.Reset()
	s.matcher.Build(nil)
	s.pending = nil
	return nil
}
