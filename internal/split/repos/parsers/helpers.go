package parsers

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/velden/splitgen/internal/split/common/utils"
	"github.com/velden/splitgen/internal/split/domain"
)

// urlHostPattern extracts the host from a URL embedded in a rule line, for
// lists that ship full URLs instead of bare domains.
var urlHostPattern = regexp.MustCompile(`https?://([a-zA-Z0-9][-a-zA-Z0-9]*(?:\.[a-zA-Z0-9][-a-zA-Z0-9]*)+)`)

// stripLineBOM removes a UTF-8 byte order mark from the start of a line.
func stripLineBOM(line string) string {
	return strings.TrimPrefix(line, "\uFEFF")
}

// classifyLine reports whether the trimmed line is empty or a whole-line
// comment ('#' or '!').
func classifyLine(line string) (isEmpty, isComment bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return true, false
	}
	if strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "!") {
		return false, true
	}
	return false, false
}

// stripInlineComment removes everything after an unquoted '#'.
func stripInlineComment(line string) string {
	if idx := strings.IndexByte(line, '#'); idx >= 0 {
		line = line[:idx]
	}
	return strings.TrimSpace(line)
}

// ruleKindFromRaw decides the RuleKind based on the raw, uncanonicalized
// entry. "*.", "+." and "." prefixes all mark apex-inclusive suffix rules in
// the wild; everything else is exact.
func ruleKindFromRaw(raw string) domain.RuleKind {
	if strings.HasPrefix(raw, "*.") || strings.HasPrefix(raw, "+.") || strings.HasPrefix(raw, ".") {
		return domain.RuleSuffix
	}
	return domain.RuleExact
}

// normalizeDomainName trims whitespace, strips suffix markers, and returns
// the canonical DNS name.
func normalizeDomainName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "*.")
	name = strings.TrimPrefix(name, "+.")
	name = strings.TrimPrefix(name, ".")
	return utils.CanonicalDNSName(name)
}

// isValidDomainPattern checks whether the provided string can serve as a
// diversion rule pattern:
//   - total length at most 253 characters
//   - at least two labels, each 1-63 characters
//   - first label starts with a letter or digit
//   - not a bare IPv4 literal
func isValidDomainPattern(name string) bool {
	if name == "" || len(name) > 253 {
		return false
	}
	if utils.IsIPv4(name) {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if !isValidLabel(label) {
			return false
		}
	}
	return true
}

// isValidLabel checks one DNS label: 1-63 characters, ASCII letters, digits,
// hyphens and underscores only, starting with a letter or digit.
func isValidLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	for i, r := range label {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r) && r < 128:
		case (r == '-' || r == '_') && i > 0:
		default:
			return false
		}
	}
	return true
}

// isBareTLD reports whether the entry is a short alphabetic label like "cn"
// or "hk". Override files may route whole country TLDs; upstream lists may
// not.
func isBareTLD(name string) bool {
	if len(name) == 0 || len(name) > 5 || strings.Contains(name, ".") {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// extractURLHost pulls the hostname out of an embedded URL, or "" when the
// line holds none.
func extractURLHost(line string) string {
	m := urlHostPattern.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}
