package domain

import "sort"

// RuleSet is the final deduplicated collection of rules for one category.
// Insertion order is preserved; Sorted returns a lexicographic copy for
// reproducible emission. A RuleSet is a plain value passed between pipeline
// stages and is never mutated concurrently.
type RuleSet struct {
	Category Category

	order []string
	rules map[string]Rule
}

// NewRuleSet returns an empty RuleSet for the given category.
func NewRuleSet(c Category) *RuleSet {
	return &RuleSet{
		Category: c,
		rules:    make(map[string]Rule),
	}
}

// Add inserts a rule, deduplicating by pattern. The first rule for a pattern
// wins; later duplicates are dropped and Add reports false.
func (s *RuleSet) Add(r Rule) bool {
	if _, ok := s.rules[r.Pattern]; ok {
		return false
	}
	s.rules[r.Pattern] = r
	s.order = append(s.order, r.Pattern)
	return true
}

// Remove deletes a pattern from the set. Reports whether it was present.
func (s *RuleSet) Remove(pattern string) bool {
	if _, ok := s.rules[pattern]; !ok {
		return false
	}
	delete(s.rules, pattern)
	for i, p := range s.order {
		if p == pattern {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether the pattern is in the set.
func (s *RuleSet) Contains(pattern string) bool {
	_, ok := s.rules[pattern]
	return ok
}

// Get returns the rule stored for a pattern.
func (s *RuleSet) Get(pattern string) (Rule, bool) {
	r, ok := s.rules[pattern]
	return r, ok
}

// Len returns the number of unique patterns in the set.
func (s *RuleSet) Len() int { return len(s.order) }

// Patterns returns the patterns in first-seen insertion order.
func (s *RuleSet) Patterns() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Sorted returns the patterns in lexicographic order. Emission uses this so
// that identical inputs produce byte-identical output files.
func (s *RuleSet) Sorted() []string {
	out := s.Patterns()
	sort.Strings(out)
	return out
}
