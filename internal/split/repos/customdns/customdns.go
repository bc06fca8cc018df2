// Package customdns reads the per-domain DNS rule file: lines of the form
//
//	a.example.com/b.example.com: 223.5.5.5,https://doh.pub/dns-query
//
// Each group pins its domains to an explicit resolver set. These rules are
// emitted as their own section and their domains are excluded from the
// generated category rules so the explicit resolver always wins.
package customdns

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/common/utils"
)

// Group is one rule line: the domains on the left of the colon and the
// resolvers on the right, in file order.
type Group struct {
	Domains []string
	Servers []string
}

// Rules is the parsed rule file plus a matcher over all its domain patterns.
type Rules struct {
	Groups   []Group
	patterns []string
}

// Empty reports whether no custom DNS rules are configured.
func (r *Rules) Empty() bool { return r == nil || len(r.Groups) == 0 }

// Patterns returns every domain pattern across all groups, sorted.
func (r *Rules) Patterns() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.patterns))
	copy(out, r.patterns)
	sort.Strings(out)
	return out
}

// Matches reports whether the domain is covered by any custom DNS pattern.
// "*.base" covers base and its subtree; other '*' patterns glob-match; bare
// patterns match exactly.
func (r *Rules) Matches(name string) bool {
	if r == nil {
		return false
	}
	name = utils.CanonicalDNSName(name)
	for _, pat := range r.patterns {
		if base, ok := strings.CutPrefix(pat, "*."); ok {
			if name == base || strings.HasSuffix(name, "."+base) {
				return true
			}
			continue
		}
		if strings.ContainsRune(pat, '*') {
			if ok, _ := path.Match(pat, name); ok {
				return true
			}
			continue
		}
		if name == pat {
			return true
		}
	}
	return false
}

// Load parses the rule file at path. A missing file means no custom rules.
// Malformed lines are skipped with a warning, matching the override files'
// tolerance for user typos.
func Load(filePath string, logger logpkg.Logger) (*Rules, error) {
	if filePath == "" {
		return &Rules{}, nil
	}
	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug(map[string]any{"path": filePath}, "custom dns file absent")
			return &Rules{}, nil
		}
		return nil, fmt.Errorf("opening custom dns file %s: %w", filePath, err)
	}
	defer f.Close()

	rules := &Rules{}
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		domainsPart, serversPart, ok := strings.Cut(line, ":")
		if !ok {
			logger.Warn(map[string]any{"path": filePath, "line": lineNum}, "custom dns line missing colon")
			continue
		}

		var domains []string
		for _, d := range strings.Split(domainsPart, "/") {
			d = utils.CanonicalDNSName(d)
			if d == "" {
				continue
			}
			domains = append(domains, d)
		}
		var servers []string
		for _, s := range strings.Split(serversPart, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			servers = append(servers, s)
		}
		if len(domains) == 0 || len(servers) == 0 {
			logger.Warn(map[string]any{"path": filePath, "line": lineNum}, "custom dns line incomplete")
			continue
		}

		rules.Groups = append(rules.Groups, Group{Domains: domains, Servers: servers})
		for _, d := range domains {
			if _, dup := seen[d]; dup {
				continue
			}
			seen[d] = struct{}{}
			rules.patterns = append(rules.patterns, d)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading custom dns file %s: %w", filePath, err)
	}

	logger.Info(map[string]any{
		"path":    filePath,
		"groups":  len(rules.Groups),
		"domains": len(rules.patterns),
	}, "custom dns rules loaded")
	return rules, nil
}
