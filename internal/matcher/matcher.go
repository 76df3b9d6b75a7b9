package matcher

import (
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/Paintersrp/tagdex/internal/cache"
	"github.com/Paintersrp/tagdex/internal/tags"
)

// DefaultCacheSize bounds the number of memoized query results.
const DefaultCacheSize = 128

// runesPerEdit fixes the typo tolerance: one edit per three query runes.
const runesPerEdit = 3

// Match is a ranked search result.
type Match struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Score float64 `json:"score"`
}

// Matcher answers ranked queries over a vocabulary snapshot. Build must be
// called again after the vocabulary changes.
type Matcher interface {
	Build(vocab []tags.TagCount)
	Search(query string) []Match
}

// FuzzyMatcher ranks labels by exact, prefix, token prefix and subsequence
// similarity and tolerates small typos. It is safe for concurrent use.
type FuzzyMatcher struct {
	mu      sync.RWMutex
	vocab   []tags.TagCount
	results *cache.LRUCache[string, []Match]
}

// NewFuzzyMatcher returns an empty matcher memoizing up to cacheSize queries.
func NewFuzzyMatcher(cacheSize int) *FuzzyMatcher {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	results, _ := cache.NewLRUCache[string, []Match](cacheSize)
	return &FuzzyMatcher{results: results}
}

// Build replaces the snapshot and drops memoized results.
func (m *FuzzyMatcher) Build(vocab []tags.TagCount) {
	snapshot := append([]tags.TagCount(nil), vocab...)

	m.mu.Lock()
	m.vocab = snapshot
	m.results.Purge()
	m.mu.Unlock()
}

// Len returns the number of labels in the snapshot.
func (m *FuzzyMatcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vocab)
}

// Search returns matches for query ordered by score, then count, then label.
// A blank query yields an empty list.
func (m *FuzzyMatcher) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []Match{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if cached, ok := m.results.Get(q); ok {
		return append([]Match{}, cached...)
	}

	matches := rank(q, m.vocab)
	m.results.Put(q, matches)
	return append([]Match{}, matches...)
}

// SortedVocabulary returns vocab ordered by count descending, the usual
// fallback for an empty query.
func SortedVocabulary(vocab []tags.TagCount) []tags.TagCount {
	sorted := append([]tags.TagCount{}, vocab...)
	tags.SortVocabulary(sorted)
	return sorted
}

type vocabSource []tags.TagCount

func (s vocabSource) String(i int) string {
	return s[i].Label
}

func (s vocabSource) Len() int {
	return len(s)
}

func rank(q string, vocab []tags.TagCount) []Match {
	scores := make(map[int]float64)
	for _, found := range fuzzy.FindFrom(q, vocabSource(vocab)) {
		scores[found.Index] = similarity(q, found.Str)
	}

	budget := utf8.RuneCountInString(q) / runesPerEdit
	if budget > 0 {
		for i, entry := range vocab {
			if _, ok := scores[i]; ok {
				continue
			}
			if score, ok := typoScore(q, entry.Label, budget); ok {
				scores[i] = score
			}
		}
	}

	matches := make([]Match, 0, len(scores))
	for i, score := range scores {
		matches = append(matches, Match{Label: vocab[i].Label, Count: vocab[i].Count, Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if matches[i].Count != matches[j].Count {
			return matches[i].Count > matches[j].Count
		}
		return matches[i].Label < matches[j].Label
	})
	return matches
}

// similarity scores a label that contains q as a subsequence. Each tier
// occupies its own band so an exact match always outranks a prefix match,
// which outranks a token prefix match, which outranks a plain subsequence.
func similarity(q, label string) float64 {
	coverage := ratio(q, label)
	switch {
	case q == label:
		return 1
	case strings.HasPrefix(label, q):
		return 0.75 + 0.2*coverage
	}

	for _, token := range tokenize(label) {
		if strings.HasPrefix(token, q) {
			return 0.55 + 0.15*ratio(q, token)
		}
	}
	return 0.2 + 0.3*coverage
}

// typoScore reports whether q is within budget edits of the label, one of
// its tokens, or a prefix of one of its tokens. Scores stay below the
// subsequence band ceiling.
func typoScore(q, label string, budget int) (float64, bool) {
	best := budget + 1
	qr := []rune(q)

	candidates := append([]string{label}, tokenize(label)...)
	for _, candidate := range candidates {
		cr := []rune(candidate)
		lo := max(1, len(qr)-budget)
		hi := min(len(cr), len(qr)+budget)
		for n := lo; n <= hi; n++ {
			if d := distance(qr, cr[:n]); d < best {
				best = d
			}
		}
		if d := distance(qr, cr); d < best {
			best = d
		}
	}

	if best > budget {
		return 0, false
	}
	return 0.1 + 0.3*(1-float64(best)/float64(budget+1)), true
}

func tokenize(label string) []string {
	return strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func ratio(q, s string) float64 {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	return float64(utf8.RuneCountInString(q)) / float64(n)
}
