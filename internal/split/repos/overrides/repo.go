package overrides

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/velden/splitgen/internal/split/domain"
)

// cached is the memoized outcome of one Lookup, hit or miss. Upstream lists
// repeat the same parents millions of times, so negative results are worth
// caching too.
type cached struct {
	match Match
	ok    bool
}

// Repository composes the Index with an LRU cache of lookup decisions and
// tracks basic metrics.
type Repository struct {
	index *Index
	cache *lru.Cache[string, cached]

	hits   uint64
	misses uint64
}

// NewRepository wraps an Index with a decision cache of the given size.
// size <= 0 disables caching.
func NewRepository(index *Index, size int) (*Repository, error) {
	r := &Repository{index: index}
	if size > 0 {
		c, err := lru.New[string, cached](size)
		if err != nil {
			return nil, err
		}
		r.cache = c
	}
	return r, nil
}

// Decide returns the override match for name, consulting the cache first.
func (r *Repository) Decide(name string) (Match, bool) {
	if r.cache != nil {
		if v, ok := r.cache.Get(name); ok {
			atomic.AddUint64(&r.hits, 1)
			return v.match, v.ok
		}
	}
	atomic.AddUint64(&r.misses, 1)
	m, ok := r.index.Lookup(name)
	if r.cache != nil {
		r.cache.Add(name, cached{match: m, ok: ok})
	}
	return m, ok
}

// Len returns the number of override entries behind the repository.
func (r *Repository) Len() int { return r.index.Len() }

// Index exposes the underlying index for emitters that need the raw
// override patterns.
func (r *Repository) Index() *Index { return r.index }

// Patterns lists the override patterns declared for a category.
func (r *Repository) Patterns(c domain.Category) []string { return r.index.Patterns(c) }

// Stats returns cumulative cache hit/miss counters.
func (r *Repository) Stats() (hits, misses uint64) {
	return atomic.LoadUint64(&r.hits), atomic.LoadUint64(&r.misses)
}
