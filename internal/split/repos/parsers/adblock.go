package parsers

import (
	"bufio"
	"io"
	"strings"
	"time"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/domain"
)

// ParseAdblock parses an Adblock-style filter list. ||example.com^ anchors
// the domain and all subdomains, so it maps to a suffix rule. Comments start
// with '!' or '#'. Element-hiding and the more exotic filter syntaxes have
// no domain-rule representation and are skipped silently.
func ParseAdblock(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.Rule, Stats, error) {
	c := newCollector(source, logger, now)
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())
		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}
		raw := strings.TrimSpace(line)
		if raw == "" || strings.HasPrefix(raw, "[") {
			continue // section headers like [Adblock Plus 2.0]
		}
		addAdblockLine(c, lineNum, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, Stats{}, err
	}

	rules, stats := c.done("adblock")
	return rules, stats, nil
}

// addAdblockLine interprets one filter line shared by the Adblock and
// GFWList parsers.
func addAdblockLine(c *collector, lineNum int, raw string) {
	switch {
	case strings.HasPrefix(raw, "@@"):
		// exception rules whitelist within the blocker; irrelevant here
	case strings.HasPrefix(raw, "||"):
		rest := raw[2:]
		if i := strings.IndexAny(rest, "^/$"); i >= 0 {
			rest = rest[:i]
		}
		if isValidDomainPattern(normalizeDomainName(rest)) {
			c.add(lineNum, rest, domain.RuleSuffix)
		} else {
			c.skip(lineNum, raw, "adblock_skip_invalid_anchor")
		}
	case strings.HasPrefix(raw, "|http"):
		if host := extractURLHost(raw[1:]); host != "" {
			c.add(lineNum, host, domain.RuleExact)
		} else {
			c.skip(lineNum, raw, "adblock_skip_invalid_url")
		}
	case !strings.ContainsAny(raw, "/^$*") && strings.ContainsRune(raw, '.'):
		if isValidDomainPattern(normalizeDomainName(raw)) {
			c.add(lineNum, raw, domain.RuleExact)
		} else {
			c.skip(lineNum, raw, "adblock_skip_invalid_domain")
		}
	default:
		if host := extractURLHost(raw); host != "" {
			c.add(lineNum, host, domain.RuleExact)
		}
		// regex and path filters carry no usable domain; drop without
		// counting them as malformed
	}
}
