// Package parsers converts raw upstream list bodies into normalized domain
// rules. One parser per format; all of them skip comments and malformed
// lines, canonicalize names, and de-duplicate by first-seen order.
package parsers

import (
	"fmt"
	"io"
	"strings"
	"time"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/domain"
)

// Format identifies an upstream list syntax.
type Format string

const (
	FormatPlain   Format = "plain"
	FormatClash   Format = "clash"
	FormatDnsmasq Format = "dnsmasq"
	FormatAdblock Format = "adblock"
	FormatGFWList Format = "gfwlist"
)

// Stats summarizes one parse run. Skipped counts lines that carried content
// but produced no rule (malformed entries); the contract is to drop them and
// report the count, never to fail the parse.
type Stats struct {
	Lines      int // content lines seen (comments and blanks excluded)
	Emitted    int // rules produced
	Skipped    int // malformed lines dropped
	Duplicates int // valid entries dropped as already seen
}

// SniffFormat guesses the list format from its URL, mirroring the naming
// conventions of the common upstream projects. Unknown names parse as plain.
func SniffFormat(url string) Format {
	lower := strings.ToLower(url)
	name := lower
	if i := strings.LastIndexByte(lower, '/'); i >= 0 {
		name = lower[i+1:]
	}
	switch {
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return FormatClash
	case strings.HasSuffix(name, ".conf"):
		return FormatDnsmasq
	case strings.Contains(name, "gfwlist"):
		return FormatGFWList
	case strings.Contains(name, "adblock") || strings.HasSuffix(name, ".abp"):
		return FormatAdblock
	default:
		return FormatPlain
	}
}

// ParseFormat converts a configured format string into a Format.
// Empty input means "sniff from URL" and is the caller's job.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPlain:
		return FormatPlain, nil
	case FormatClash:
		return FormatClash, nil
	case FormatDnsmasq:
		return FormatDnsmasq, nil
	case FormatAdblock:
		return FormatAdblock, nil
	case FormatGFWList:
		return FormatGFWList, nil
	default:
		return "", fmt.Errorf("unsupported list format: %q", s)
	}
}

// Parse dispatches to the parser for the given format.
func Parse(f Format, r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.Rule, Stats, error) {
	switch f {
	case FormatPlain:
		return ParsePlain(r, source, logger, now)
	case FormatClash:
		return ParseClash(r, source, logger, now)
	case FormatDnsmasq:
		return ParseDnsmasq(r, source, logger, now)
	case FormatAdblock:
		return ParseAdblock(r, source, logger, now)
	case FormatGFWList:
		return ParseGFWList(r, source, logger, now)
	default:
		return nil, Stats{}, fmt.Errorf("unsupported list format: %q", f)
	}
}
