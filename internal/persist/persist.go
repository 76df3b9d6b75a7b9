// Package persist caches a TagIndex in a kv.Store between runs.
package persist

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Paintersrp/tagdex/internal/kv"
	"github.com/Paintersrp/tagdex/internal/tags"
)

// DefaultKey is the entry the index is written under.
const DefaultKey = "tag-index"

// formatVersion changes whenever the payload layout does. Entries written
// with another version are treated as absent.
const formatVersion = 1

type payload struct {
	Version     int                 `json:"version"`
	LastIndexed time.Time           `json:"last_indexed"`
	Vocabulary  []tags.TagCount     `json:"vocabulary"`
	FilesToTags map[string][]string `json:"files_to_tags"`
	TagsToFiles map[string][]string `json:"tags_to_files"`
}

// Adapter saves and restores a TagIndex as a single kv entry.
type Adapter struct {
	store  kv.Store
	key    string
	now    func() time.Time
	logger *slog.Logger
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(a *Adapter) {
		if key != "" {
			a.key = key
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger used for recovered load failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewAdapter(store kv.Store, opts ...Option) *Adapter {
	a := &Adapter{
		store:  store,
		key:    DefaultKey,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Save writes idx with the current time as its build time.
func (a *Adapter) Save(idx *tags.TagIndex) error {
	return a.SaveAt(idx, a.now())
}

// SaveAt writes idx recording indexedAt as the time of the full scan it
// descends from. Incremental changes keep the original scan time, so a cache
// kept current by deltas still ages out. A zero indexedAt is stored as is
// and reads back as stale.
func (a *Adapter) SaveAt(idx *tags.TagIndex, indexedAt time.Time) error {
	if idx == nil {
		idx = tags.NewTagIndex()
	}

	data, err := json.Marshal(payload{
		Version:     formatVersion,
		LastIndexed: indexedAt.UTC(),
		Vocabulary:  idx.Vocabulary,
		FilesToTags: idx.FilesToTags,
		TagsToFiles: idx.TagsToFiles,
	})
	if err != nil {
		return fmt.Errorf("persist: encode index: %w", err)
	}
	if err := a.store.Set(a.key, data); err != nil {
		return fmt.Errorf("persist: save index: %w", err)
	}
	return nil
}

// Load returns the cached index. Any failure, from a missing entry to a
// payload whose associations are inconsistent, reports ok == false.
func (a *Adapter) Load() (*tags.TagIndex, bool) {
	p, ok := a.read()
	if !ok {
		return nil, false
	}

	idx := &tags.TagIndex{
		FilesToTags: p.FilesToTags,
		TagsToFiles: p.TagsToFiles,
		Vocabulary:  p.Vocabulary,
	}
	if idx.FilesToTags == nil {
		idx.FilesToTags = make(map[string][]string)
	}
	if idx.TagsToFiles == nil {
		idx.TagsToFiles = make(map[string][]string)
	}
	if err := idx.Validate(); err != nil {
		a.logger.Debug("discarding inconsistent cached index", slog.String("error", err.Error()))
		return nil, false
	}
	return idx, true
}

// LastIndexed returns the time of the full scan the cached index descends
// from.
func (a *Adapter) LastIndexed() (time.Time, bool) {
	p, ok := a.read()
	if !ok {
		return time.Time{}, false
	}
	return p.LastIndexed, true
}

// IsStale reports whether the cached index is missing, unreadable, or older
// than maxAge.
func (a *Adapter) IsStale(maxAge time.Duration) bool {
	last, ok := a.LastIndexed()
	if !ok {
		return true
	}
	return a.now().Sub(last) > maxAge
}

func (a *Adapter) read() (payload, bool) {
	data, ok, err := a.store.Get(a.key)
	if err != nil {
		a.logger.Debug("cached index unreadable", slog.String("error", err.Error()))
		return payload{}, false
	}
	if !ok {
		return payload{}, false
	}

	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		a.logger.Debug("cached index corrupt", slog.String("error", err.Error()))
		return payload{}, false
	}
	if p.Version != formatVersion {
		a.logger.Debug("cached index version mismatch", slog.Int("version", p.Version))
		return payload{}, false
	}
	return p, true
}
