package domain

import "fmt"

// Origin records which precedence tier decided a classification.
type Origin uint8

const (
	// OriginOverride means a user override (exact or parent-domain) decided it.
	OriginOverride Origin = iota
	// OriginAffinity means the source list's category affinity decided it.
	OriginAffinity
	// OriginTieBreak means the pattern arrived from both affinities and the
	// configured tie-break policy decided it.
	OriginTieBreak
)

// String returns a stable string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginOverride:
		return "override"
	case OriginAffinity:
		return "affinity"
	case OriginTieBreak:
		return "tiebreak"
	default:
		return fmt.Sprintf("Origin(%d)", o)
	}
}

// Decision is the classification outcome for one pattern, with enough
// provenance to explain why it landed in its category.
type Decision struct {
	Pattern     string
	Category    Category
	Origin      Origin
	MatchedRule string   // override pattern that matched, when Origin is override
	Sources     []string // contributing source names, first-seen order
}

// ConflictError reports a pattern that survived classification in both
// categories. Precedence is total, so this is a policy bug; the run must
// abort rather than silently pick a side.
type ConflictError struct {
	Pattern         string
	DomesticSources []string
	ForeignSources  []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("classification conflict: %q claimed as domestic by %v and foreign by %v",
		e.Pattern, e.DomesticSources, e.ForeignSources)
}
