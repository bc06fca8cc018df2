package pipeline

import (
	"context"
	"time"

	"github.com/velden/splitgen/internal/split/domain"
	"github.com/velden/splitgen/internal/split/repos/listcache"
	"github.com/velden/splitgen/internal/split/repos/overrides"
)

// Fetcher retrieves a raw list body from an upstream URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// ListCache stores the last good copy of each fetched source so a run can
// degrade gracefully when an upstream is unreachable.
type ListCache interface {
	// Put stores a body under the source name and returns its hex checksum.
	Put(name string, body []byte, fetchedAt time.Time) (string, error)

	// Get returns the cached body for a source name, if any.
	Get(name string) ([]byte, listcache.Entry, bool, error)
}

// Overrides answers authoritative user classifications.
type Overrides interface {
	// Decide returns the override match covering name, if one exists. The
	// most specific matching entry wins.
	Decide(name string) (overrides.Match, bool)

	// Patterns lists the override patterns declared for a category.
	Patterns(c domain.Category) []string
}

// Emitter renders an aggregation result into output files.
type Emitter interface {
	Emit(ctx context.Context, res *Result) error
}
