package parsers

import (
	"time"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/domain"
)

// collector accumulates rules for one parse run: canonicalization,
// validation, first-seen de-duplication, and skip accounting live here so
// each format parser only decides what a line means.
type collector struct {
	source    string
	logger    logpkg.Logger
	now       time.Time
	allowTLDs bool // override files may route bare country TLDs
	seen      map[string]struct{}
	out       []domain.Rule
	stats     Stats
}

func newCollector(source string, logger logpkg.Logger, now time.Time) *collector {
	return &collector{
		source: source,
		logger: logger,
		now:    now,
		seen:   make(map[string]struct{}),
		out:    make([]domain.Rule, 0, 256),
	}
}

// add normalizes and validates a raw entry and appends a rule when it holds
// up. Reports whether a rule was emitted.
func (c *collector) add(lineNum int, raw string, kind domain.RuleKind) bool {
	c.stats.Lines++
	name := normalizeDomainName(raw)

	if !isValidDomainPattern(name) {
		if !(c.allowTLDs && isBareTLD(name)) {
			c.stats.Skipped++
			c.logger.Debug(map[string]any{"line": lineNum, "raw": raw, "name": name}, "skip_invalid_pattern")
			return false
		}
		// a bare TLD matches as a suffix regardless of the raw marker
		kind = domain.RuleSuffix
	}

	// seen key combines name and kind to allow both for the same domain
	seenKey := name + "|" + kind.String()
	if _, ok := c.seen[seenKey]; ok {
		c.stats.Duplicates++
		c.logger.Debug(map[string]any{"line": lineNum, "name": name, "kind": kind.String()}, "skip_duplicate")
		return false
	}

	rule, err := domain.NewRule(name, kind, c.source, c.now)
	if err != nil {
		c.stats.Skipped++
		c.logger.Debug(map[string]any{"line": lineNum, "name": name, "error": err.Error()}, "skip_constructor_error")
		return false
	}

	c.out = append(c.out, rule)
	c.seen[seenKey] = struct{}{}
	c.stats.Emitted++
	c.logger.Debug(map[string]any{"line": lineNum, "name": rule.Pattern, "kind": rule.Kind.String()}, "emit_rule")
	return true
}

// skip records a content line that produced no rule.
func (c *collector) skip(lineNum int, raw string, reason string) {
	c.stats.Lines++
	c.stats.Skipped++
	c.logger.Debug(map[string]any{"line": lineNum, "raw": raw}, reason)
}

// done logs the parse summary and returns the results.
func (c *collector) done(parser string) ([]domain.Rule, Stats) {
	c.logger.Debug(map[string]any{
		"source":  c.source,
		"parser":  parser,
		"lines":   c.stats.Lines,
		"rules":   c.stats.Emitted,
		"skipped": c.stats.Skipped,
	}, "parse_done")
	return c.out, c.stats
}
