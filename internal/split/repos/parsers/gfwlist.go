package parsers

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"io"
	"strings"
	"time"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
	"github.com/velden/splitgen/internal/split/domain"
)

// ParseGFWList parses the GFWList feed: a base64-encoded Adblock-style list.
// Bodies that do not decode as base64 are scanned as plain filter text, which
// covers mirrors that publish the decoded form.
func ParseGFWList(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.Rule, Stats, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, Stats{}, err
	}

	compact := bytes.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, body)
	decoded, err := base64.StdEncoding.DecodeString(string(compact))
	if err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "gfwlist_not_base64")
		decoded = body
	}

	c := newCollector(source, logger, now)
	scanner := bufio.NewScanner(bytes.NewReader(decoded))

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := stripLineBOM(scanner.Text())
		if isEmpty, isComment := classifyLine(line); isEmpty || isComment {
			continue
		}
		raw := strings.TrimSpace(line)
		if raw == "" || strings.HasPrefix(raw, "[") {
			continue // [AutoProxy 0.2.9] style headers
		}
		addAdblockLine(c, lineNum, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, Stats{}, err
	}

	rules, stats := c.done("gfwlist")
	return rules, stats, nil
}
