// Package overrides holds the user override lists and answers the question
// "did the user pin this domain to a category?". Overrides are authoritative:
// a hit here always beats upstream affinity.
package overrides

import (
	"strings"

	"github.com/velden/splitgen/internal/split/common/utils"
	"github.com/velden/splitgen/internal/split/domain"
)

// Match is a positive override lookup result with provenance.
type Match struct {
	Category domain.Category // the override's category
	Pattern  string          // the override entry that matched
	Source   string          // override file the entry came from
}

type entry struct {
	category domain.Category
	source   string
}

// Index maps override patterns to their pinned category. All entries match
// their whole subtree (the entry itself and any subdomain), so lookup walks
// the name from most-specific to least.
type Index struct {
	entries map[string]entry
}

// NewIndex builds an Index from the parsed override rules. A pattern pinned
// to both categories is a policy contradiction the user must resolve, so it
// returns a ConflictError rather than picking a side.
func NewIndex(domestic, foreign []domain.Rule) (*Index, error) {
	idx := &Index{entries: make(map[string]entry, len(domestic)+len(foreign))}
	for _, r := range domestic {
		idx.entries[r.Pattern] = entry{category: domain.CategoryDomestic, source: r.Source}
	}
	for _, r := range foreign {
		if prev, ok := idx.entries[r.Pattern]; ok && prev.category == domain.CategoryDomestic {
			return nil, &domain.ConflictError{
				Pattern:         r.Pattern,
				DomesticSources: []string{prev.source},
				ForeignSources:  []string{r.Source},
			}
		}
		idx.entries[r.Pattern] = entry{category: domain.CategoryForeign, source: r.Source}
	}
	return idx, nil
}

// Len returns the number of override entries.
func (idx *Index) Len() int { return len(idx.entries) }

// Lookup finds the most specific override covering name, walking parent
// labels down to the TLD. Returns false when no override applies.
func (idx *Index) Lookup(name string) (Match, bool) {
	cn := utils.CanonicalDNSName(name)
	for cn != "" {
		if e, ok := idx.entries[cn]; ok {
			return Match{Category: e.category, Pattern: cn, Source: e.source}, true
		}
		i := strings.IndexByte(cn, '.')
		if i < 0 {
			break
		}
		cn = cn[i+1:]
	}
	return Match{}, false
}

// Patterns returns all override patterns for a category, unordered.
func (idx *Index) Patterns(c domain.Category) []string {
	var out []string
	for p, e := range idx.entries {
		if e.category == c {
			out = append(out, p)
		}
	}
	return out
}
