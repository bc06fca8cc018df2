package parsers

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/domain"
)

// clashDocument covers the rule-provider shapes seen in the wild: provider
// files carry "payload", full configs carry "rules", domain-set exports
// carry "domains".
type clashDocument struct {
	Payload []string `yaml:"payload"`
	Rules   []string `yaml:"rules"`
	Domains []string `yaml:"domains"`
}

// ParseClash parses a Clash rule list (YAML). Entries of interest are
// DOMAIN (exact) and DOMAIN-SUFFIX (suffix); other rule types (IP-CIDR,
// PROCESS-NAME, ...) are ignored rather than counted as malformed. Bodies
// that fail YAML parsing fall back to a plain line scan, since several
// upstream "YAML" lists are really annotated text.
func ParseClash(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.Rule, Stats, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, Stats{}, err
	}

	var doc clashDocument
	if err := yaml.Unmarshal(body, &doc); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "clash_yaml_fallback")
		return parseClashLines(bytes.NewReader(body), source, logger, now)
	}

	entries := doc.Payload
	if len(entries) == 0 {
		entries = doc.Rules
	}
	if len(entries) == 0 && len(doc.Domains) > 0 {
		entries = doc.Domains
	}
	if len(entries) == 0 {
		// valid YAML but none of the known keys; scan it as text
		return parseClashLines(bytes.NewReader(body), source, logger, now)
	}

	c := newCollector(source, logger, now)
	for i, entry := range entries {
		addClashEntry(c, i+1, entry)
	}
	rules, stats := c.done("clash")
	return rules, stats, nil
}

// parseClashLines extracts DOMAIN/DOMAIN-SUFFIX entries and bare domains
// from a text body.
func parseClashLines(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.Rule, Stats, error) {
	c := newCollector(source, logger, now)
	scanner := bufio.NewScanner(r)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())
		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}
		entry := strings.TrimSpace(strings.TrimPrefix(stripInlineComment(line), "- "))
		if entry == "" {
			continue
		}
		addClashEntry(c, lineNum, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, Stats{}, err
	}

	rules, stats := c.done("clash_lines")
	return rules, stats, nil
}

// clashRuleValue strips a trailing policy segment from a rule value.
func clashRuleValue(rest string) string {
	if i := strings.IndexByte(rest, ','); i >= 0 {
		rest = rest[:i]
	}
	return rest
}

// addClashEntry interprets one payload entry or rule line.
func addClashEntry(c *collector, lineNum int, entry string) {
	entry = strings.TrimSpace(entry)
	upper := strings.ToUpper(entry)

	// both rule kinds may trail a policy: DOMAIN-SUFFIX,example.com,DIRECT
	switch {
	case strings.HasPrefix(upper, "DOMAIN-SUFFIX,") || strings.HasPrefix(upper, "DOMAIN-SUFFIX:"):
		c.add(lineNum, clashRuleValue(entry[len("DOMAIN-SUFFIX,"):]), domain.RuleSuffix)
	case strings.HasPrefix(upper, "DOMAIN,") || strings.HasPrefix(upper, "DOMAIN:"):
		c.add(lineNum, clashRuleValue(entry[len("DOMAIN,"):]), domain.RuleExact)
	case strings.HasPrefix(upper, "DOMAIN-KEYWORD,") || strings.HasPrefix(upper, "DOMAIN-REGEX,"):
		// keyword/regex rules have no file representation here
		c.skip(lineNum, entry, "clash_skip_unsupported_rule")
	case strings.ContainsRune(entry, ','):
		// some other rule type (IP-CIDR, PROCESS-NAME, ...); not malformed
	default:
		// bare domain, optionally with a suffix marker
		if isValidDomainPattern(normalizeDomainName(entry)) {
			c.add(lineNum, entry, ruleKindFromRaw(entry))
		} else if host := extractURLHost(entry); host != "" {
			c.add(lineNum, host, domain.RuleExact)
		} else {
			c.skip(lineNum, entry, "clash_skip_invalid_entry")
		}
	}
}
