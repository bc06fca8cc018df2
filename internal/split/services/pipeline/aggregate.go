package pipeline

import (
	"github.com/bits-and-blooms/bloom/v3"

	"github.com/velden/splitgen/internal/split/domain"
)

// falsePositiveRate for the exclusivity prescreen filter.
const falsePositiveRate = 0.01

// aggregate folds classified rules into the two rule sets and verifies the
// exclusivity invariant: no pattern may appear in both. Classification is
// total so a violation indicates a bug, and the run aborts with a
// ConflictError naming the offending pattern and its claimants.
func (p *Pipeline) aggregate(rules []classified, lists []domain.SourceList, stats Stats) (*Result, error) {
	res := &Result{
		Domestic:  domain.NewRuleSet(domain.CategoryDomestic),
		Foreign:   domain.NewRuleSet(domain.CategoryForeign),
		Decisions: make(map[string]domain.Decision, len(rules)),
		Lists:     lists,
		Stats:     stats,
	}

	for _, c := range rules {
		res.Decisions[c.decision.Pattern] = c.decision
		switch c.decision.Category {
		case domain.CategoryDomestic:
			res.Domestic.Add(c.rule)
		case domain.CategoryForeign:
			res.Foreign.Add(c.rule)
		}
	}

	if err := checkExclusive(res.Domestic, res.Foreign); err != nil {
		return nil, err
	}

	res.Stats.Domestic = res.Domestic.Len()
	res.Stats.Foreign = res.Foreign.Len()
	return res, nil
}

// checkExclusive screens the foreign set against a bloom filter of the
// domestic set, confirming any probable hit against the authoritative set
// before declaring a conflict.
func checkExclusive(domestic, foreign *domain.RuleSet) error {
	n := domestic.Len()
	if n == 0 || foreign.Len() == 0 {
		return nil
	}

	filter := bloom.NewWithEstimates(uint(n), falsePositiveRate)
	for _, pattern := range domestic.Patterns() {
		filter.AddString(pattern)
	}

	for _, pattern := range foreign.Patterns() {
		if !filter.TestString(pattern) {
			continue
		}
		dr, ok := domestic.Get(pattern)
		if !ok {
			continue // bloom false positive
		}
		fr, _ := foreign.Get(pattern)
		return &domain.ConflictError{
			Pattern:         pattern,
			DomesticSources: []string{dr.Source},
			ForeignSources:  []string{fr.Source},
		}
	}
	return nil
}
