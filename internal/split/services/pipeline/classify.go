package pipeline

import (
	"github.com/velden/splitgen/internal/split/domain"
)

// candidate accumulates everything the run learned about one pattern before
// classification: the first rule seen for it and which affinities claim it.
type candidate struct {
	rule     domain.Rule
	domestic []string
	foreign  []string
}

// classified pairs a pattern's decision with the rule that carries it into a
// rule set.
type classified struct {
	rule     domain.Rule
	decision domain.Decision
}

// classify folds all parsed rules into per-pattern candidates and decides a
// single category for each. Precedence is total: a user override always wins,
// then the source affinity, and only a pattern claimed by both affinities
// falls through to the configured tie-break.
func (p *Pipeline) classify(parsed []sourceRules) []classified {
	order := make([]string, 0, 4096)
	byPattern := make(map[string]*candidate, 4096)

	add := func(r domain.Rule, affinity domain.Category) {
		c, ok := byPattern[r.Pattern]
		if !ok {
			c = &candidate{rule: r}
			byPattern[r.Pattern] = c
			order = append(order, r.Pattern)
		} else if r.IsSuffix() && c.rule.IsExact() {
			// a suffix claim widens an earlier exact claim
			c.rule.Kind = domain.RuleSuffix
		}
		switch affinity {
		case domain.CategoryDomestic:
			c.domestic = appendSource(c.domestic, r.Source)
		case domain.CategoryForeign:
			c.foreign = appendSource(c.foreign, r.Source)
		}
	}

	for _, sr := range parsed {
		for _, r := range sr.rules {
			add(r, sr.list.Source.Affinity)
		}
	}

	// Override patterns are part of the output even when no upstream list
	// mentions them.
	now := p.clock.Now()
	for _, cat := range []domain.Category{domain.CategoryDomestic, domain.CategoryForeign} {
		for _, pattern := range p.overrides.Patterns(cat) {
			if _, ok := byPattern[pattern]; ok {
				continue
			}
			r, err := domain.NewSuffixRule(pattern, "overrides", now)
			if err != nil {
				continue
			}
			byPattern[pattern] = &candidate{rule: r}
			order = append(order, pattern)
		}
	}

	out := make([]classified, 0, len(order))
	for _, pattern := range order {
		c := byPattern[pattern]
		d := p.decide(pattern, c)
		c.rule.Category = d.Category
		out = append(out, classified{rule: c.rule, decision: d})
	}
	return out
}

// decide applies the precedence ladder to one candidate.
func (p *Pipeline) decide(pattern string, c *candidate) domain.Decision {
	d := domain.Decision{
		Pattern: pattern,
		Sources: append(append([]string{}, c.domestic...), c.foreign...),
	}

	if m, ok := p.overrides.Decide(pattern); ok {
		d.Category = m.Category
		d.Origin = domain.OriginOverride
		d.MatchedRule = m.Pattern
		return d
	}

	switch {
	case len(c.domestic) > 0 && len(c.foreign) > 0:
		d.Category = p.tieBreak
		d.Origin = domain.OriginTieBreak
		p.logger.Debug(map[string]any{
			"pattern":  pattern,
			"domestic": c.domestic,
			"foreign":  c.foreign,
			"category": d.Category.String(),
		}, "tie-break applied")
	case len(c.foreign) > 0:
		d.Category = domain.CategoryForeign
		d.Origin = domain.OriginAffinity
	default:
		d.Category = domain.CategoryDomestic
		d.Origin = domain.OriginAffinity
	}
	return d
}

// appendSource appends name unless already present. A pattern is only ever
// claimed by a handful of sources, so the linear scan is fine.
func appendSource(list []string, name string) []string {
	for _, s := range list {
		if s == name {
			return list
		}
	}
	return append(list, name)
}
