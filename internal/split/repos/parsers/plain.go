package parsers

import (
	"bufio"
	"io"
	"time"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/domain"
)

// ParsePlain parses a newline-delimited list of domains into Rules.
// Default is exact; a leading "*.", "+." or "." marks an apex-inclusive
// suffix rule.
//
// Behavior:
// - Supports comments starting with '#' (inline or whole-line)
// - Tolerates the header blocks some list projects prepend (all comments)
// - Extracts the host when a line carries a full URL instead of a domain
// - Skips malformed entries, counting them in Stats.Skipped
// - De-duplicates by canonical name while preserving first-seen order
func ParsePlain(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.Rule, Stats, error) {
	c := newCollector(source, logger, now)
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())

		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}
		raw := stripInlineComment(line)
		if raw == "" {
			continue
		}

		if !isValidDomainPattern(normalizeDomainName(raw)) {
			// not a bare domain; maybe the line embeds a URL
			if host := extractURLHost(raw); host != "" {
				c.add(lineNum, host, domain.RuleExact)
			} else {
				c.skip(lineNum, raw, "skip_invalid_pattern")
			}
			continue
		}
		c.add(lineNum, raw, ruleKindFromRaw(raw))
	}
	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "parse_scan_error")
		return nil, Stats{}, err
	}

	rules, stats := c.done("plain")
	return rules, stats, nil
}

// ParseOverrides parses a user override file. Same syntax as ParsePlain, but
// every entry is authoritative for its whole subtree, so all rules come back
// as suffix kind, and bare country TLD labels ("cn", "hk") are accepted.
func ParseOverrides(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.Rule, Stats, error) {
	c := newCollector(source, logger, now)
	c.allowTLDs = true
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())

		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}
		raw := stripInlineComment(line)
		if raw == "" {
			continue
		}
		c.add(lineNum, raw, domain.RuleSuffix)
	}
	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "parse_scan_error")
		return nil, Stats{}, err
	}

	rules, stats := c.done("overrides")
	return rules, stats, nil
}
