// Package search provides a simple, deterministic, concurrency-safe in-memory
// search layer over indexed documents. It is intentionally small, but
// engineered with production-grade ergonomics:
//
//   - No logging in the library (callers decide how/what to log)
//   - Clear, documented types and functional options (Option pattern)
//   - Unicode-aware tokenization with case folding and optional stop words
//   - Guarded by RWMutex: reads run concurrently with the scheduler's writes
//   - Deterministic scoring and sorting (stable order for ties)
//   - Backward-compatible query surface (TopK(query, k int) []Hit)
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Hit is a ranked document id with its similarity score.
type Hit struct {
	DocID string
	Score float64
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	stopwords map[string]struct{}
}

func defaultConfig() config {
	return config{stopwords: nil}
}

// WithStopwords removes the given words from every token set. Words are case
// folded before matching.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = Fold(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// ----------------------------------------------------------------------------
// Index

type entry struct {
	text   string
	tokens map[string]struct{}
	tLen   int
}

// Index holds the token sets for a single named index's documents. Unlike a
// build-once snapshot, it mutates as document tasks execute, so all access is
// mutex-guarded.
type Index struct {
	cfg config

	mu   sync.RWMutex
	docs map[string]entry
}

// NewIndex returns an empty document index.
func NewIndex(opts ...Option) *Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Index{cfg: cfg, docs: make(map[string]entry)}
}

// Add indexes (or re-indexes) one document's searchable text under docID.
// Documents whose text yields no tokens are still tracked so Remove and Len
// stay consistent with the persisted rows.
func (i *Index) Add(docID, text string) {
	toks := tokenize(text, i.cfg.stopwords)
	i.mu.Lock()
	i.docs[docID] = entry{text: text, tokens: toks, tLen: len(toks)}
	i.mu.Unlock()
}

// Remove drops a document from the index. Unknown ids are a no-op.
func (i *Index) Remove(docID string) {
	i.mu.Lock()
	delete(i.docs, docID)
	i.mu.Unlock()
}

// Clear drops every document.
func (i *Index) Clear() {
	i.mu.Lock()
	i.docs = make(map[string]entry)
	i.mu.Unlock()
}

// Len returns the number of indexed documents.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.docs)
}

// TopK returns up to k best-matching document ids by Jaccard similarity.
// Ties break deterministically: higher score first, then shorter text, then
// lexicographic docID.
func (i *Index) TopK(q string, k int) []Hit {
	if strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		docID    string
		score    float64
		lenRunes int
	}

	i.mu.RLock()
	buf := make([]scored, 0, len(i.docs))
	for id, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + d.tLen - over)
		if union <= 0 {
			continue
		}
		score := float64(over) / union
		if score <= 0 {
			continue
		}
		buf = append(buf, scored{
			docID:    id,
			score:    score,
			lenRunes: utf8.RuneCountInString(d.text),
		})
	}
	i.mu.RUnlock()

	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if buf[a].lenRunes != buf[b].lenRunes {
			return buf[a].lenRunes < buf[b].lenRunes
		}
		return buf[a].docID < buf[b].docID
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Hit, k)
	for n := 0; n < k; n++ {
		out[n] = Hit{DocID: buf[n].docID, Score: buf[n].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Registry

// Registry maps index UIDs to their in-memory search indexes. The scheduler
// creates and mutates entries as tasks execute; search handlers only read.
type Registry struct {
	opts []Option

	mu      sync.RWMutex
	indexes map[string]*Index
}

// NewRegistry returns an empty registry. The options are applied to every
// index it creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{opts: opts, indexes: make(map[string]*Index)}
}

// Get returns the search index for uid, or (nil, false) if absent.
func (r *Registry) Get(uid string) (*Index, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indexes[uid]
	return idx, ok
}

// GetOrCreate returns the search index for uid, creating it if absent.
func (r *Registry) GetOrCreate(uid string) *Index {
	r.mu.RLock()
	idx, ok := r.indexes[uid]
	r.mu.RUnlock()
	if ok {
		return idx
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok = r.indexes[uid]; ok {
		return idx
	}
	idx = NewIndex(r.opts...)
	r.indexes[uid] = idx
	return idx
}

// Drop removes an index's search data entirely.
func (r *Registry) Drop(uid string) {
	r.mu.Lock()
	delete(r.indexes, uid)
	r.mu.Unlock()
}

// Len returns the number of live indexes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.indexes)
}

// ----------------------------------------------------------------------------
// Helpers

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	n := 0
	if len(a) > len(b) {
		a, b = b, a
	}
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}
