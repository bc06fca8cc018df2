package parsers

import (
	"bufio"
	"io"
	"strings"
	"time"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/domain"
)

// ParseDnsmasq parses a dnsmasq configuration list. The entry of interest is
// server=/example.cn/114.114.114.114: the domain between the slashes routes
// the whole subtree, so these come back as suffix rules. address=/d/ip lines
// carry the same domain shape and are accepted too. Bare domains on their
// own line are tolerated.
func ParseDnsmasq(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.Rule, Stats, error) {
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

		if name, ok := dnsmasqDomain(raw); ok {
			c.add(lineNum, name, domain.RuleSuffix)
			continue
		}
		if isValidDomainPattern(normalizeDomainName(raw)) {
			c.add(lineNum, raw, ruleKindFromRaw(raw))
			continue
		}
		c.skip(lineNum, raw, "dnsmasq_skip_invalid_line")
	}
	if err := scanner.Err(); err != nil {
		return nil, Stats{}, err
	}

	rules, stats := c.done("dnsmasq")
	return rules, stats, nil
}

// dnsmasqDomain extracts the domain from a server=/d/... or address=/d/...
// directive.
func dnsmasqDomain(line string) (string, bool) {
	rest, ok := strings.CutPrefix(line, "server=/")
	if !ok {
		rest, ok = strings.CutPrefix(line, "address=/")
	}
	if !ok {
		return "", false
	}
	i := strings.IndexByte(rest, '/')
	if i <= 0 {
		return "", false
	}
	return rest[:i], true
}
