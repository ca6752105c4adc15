package lexical

import (
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kirillkom/hybrid-retrieval/internal/core/domain"
)

// RebuildObserver receives the size and duration of every published rebuild.
type RebuildObserver func(collection string, docs int, took time.Duration)

type entry struct {
	mu      sync.Mutex
	dropped bool
	docs    []domain.LexicalDoc
	index   atomic.Pointer[indexHolder]
}

type indexHolder struct {
	index Index
}

// Registry maps collection names to lexical indexes. Every write rebuilds
// the collection's index from its full document list and publishes it with
// a single pointer swap, so readers see either the old or the new index.
type Registry struct {
	build    Builder
	observer RebuildObserver

	mu      sync.RWMutex
	entries map[string]*entry
}

type RegistryOption func(*Registry)

func WithBuilder(b Builder) RegistryOption {
	return func(r *Registry) {
		if b != nil {
			r.build = b
		}
	}
}

func WithRebuildObserver(o RebuildObserver) RegistryOption {
	return func(r *Registry) {
		r.observer = o
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		build:   BM25Builder(DefaultBM25Config()),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddDocs appends docs to the collection and rebuilds its index. Empty docs is a no-op.
func (r *Registry) AddDocs(collection string, docs []domain.LexicalDoc) {
	if len(docs) == 0 {
		return
	}
	r.write(collection, func(current []domain.LexicalDoc) []domain.LexicalDoc {
		next := make([]domain.LexicalDoc, 0, len(current)+len(docs))
		next = append(next, current...)
		return append(next, docs...)
	})
}

// Replace swaps the collection's documents for docs. An empty docs resets it.
func (r *Registry) Replace(collection string, docs []domain.LexicalDoc) {
	if len(docs) == 0 {
		r.Reset(collection)
		return
	}
	r.write(collection, func([]domain.LexicalDoc) []domain.LexicalDoc {
		next := make([]domain.LexicalDoc, len(docs))
		copy(next, docs)
		return next
	})
}

func (r *Registry) Reset(collection string) {
	r.mu.Lock()
	e, ok := r.entries[collection]
	delete(r.entries, collection)
	r.mu.Unlock()
	if !ok {
		return
	}

	e.mu.Lock()
	e.dropped = true
	e.docs = nil
	e.index.Store(nil)
	e.mu.Unlock()
	slog.Debug("lexical_reset", "collection", collection)
}

// Search returns nothing for unknown or reset collections.
func (r *Registry) Search(collection, query string, topk int) []domain.LexicalHit {
	r.mu.RLock()
	e, ok := r.entries[collection]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	holder := e.index.Load()
	if holder == nil {
		return nil
	}
	return holder.index.Search(query, topk)
}

func (r *Registry) Len(collection string) int {
	r.mu.RLock()
	e, ok := r.entries[collection]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	holder := e.index.Load()
	if holder == nil {
		return 0
	}
	return holder.index.Len()
}

func (r *Registry) Collections() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.entries))
	for name := range r.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) write(collection string, next func([]domain.LexicalDoc) []domain.LexicalDoc) {
	for {
		e := r.entryFor(collection)
		e.mu.Lock()
		if e.dropped {
			// Reset raced with us; retry against the fresh entry.
			e.mu.Unlock()
			continue
		}

		start := time.Now()
		docs := next(e.docs)
		idx := r.build(docs)
		e.docs = docs
		e.index.Store(&indexHolder{index: idx})
		e.mu.Unlock()

		took := time.Since(start)
		slog.Debug("lexical_rebuild", "collection", collection, "docs", len(docs), "duration_ms", float64(took.Microseconds())/1000.0)
		if r.observer != nil {
			r.observer(collection, len(docs), took)
		}
		return
	}
}

func (r *Registry) entryFor(collection string) *entry {
	r.mu.RLock()
	e, ok := r.entries[collection]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.entries[collection]; ok {
		return e
	}
	e = &entry{}
	r.entries[collection] = e
	return e
}
