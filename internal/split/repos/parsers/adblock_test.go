package parsers

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/velden/splitgen/internal/split/common/log"
)

const filterBody = `[AutoProxy 0.2.9]
! checksum comment
||anchored.example.com^
|https://direct.example.org/path
plain.example.net
@@||whitelisted.example.com^
/^https?:\/\/regex/
`

func TestParseAdblock(t *testing.T) {
	got, _, err := ParseAdblock(bytes.NewBufferString(filterBody), "filter", log.NewNoopLogger(), time.Unix(1723550000, 0))
	if err != nil {
		t.Fatalf("ParseAdblock returned error: %v", err)
	}
	want := []struct {
		pattern string
		suffix  bool
	}{
		{"anchored.example.com", true},
		{"direct.example.org", false},
		{"plain.example.net", false},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d rules, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Pattern != w.pattern || got[i].IsSuffix() != w.suffix {
			t.Errorf("rule[%d] = %+v, want pattern %q suffix=%v", i, got[i], w.pattern, w.suffix)
		}
	}
}

func TestParseAdblock_AnchorVariants(t *testing.T) {
	input := "||path.example.com/ads\n||port.example.com$third-party\n||bad_anchor^\n"
	got, stats, err := ParseAdblock(bytes.NewBufferString(input), "s", log.NewNoopLogger(), time.Now())
	if err != nil {
		t.Fatalf("ParseAdblock returned error: %v", err)
	}
	if len(got) != 2 || got[0].Pattern != "path.example.com" || got[1].Pattern != "port.example.com" {
		t.Fatalf("unexpected rules: %+v", got)
	}
	if stats.Skipped != 1 {
		t.Errorf("stats.Skipped = %d, want 1", stats.Skipped)
	}
}

func TestParseGFWList_Base64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(filterBody))
	// feeds wrap base64 at 64 columns; the decoder must tolerate that
	wrapped := encoded[:30] + "\n" + encoded[30:]

	got, _, err := ParseGFWList(bytes.NewBufferString(wrapped), "gfwlist", log.NewNoopLogger(), time.Unix(1723550000, 0))
	if err != nil {
		t.Fatalf("ParseGFWList returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rules, got %d: %+v", len(got), got)
	}
	if got[0].Pattern != "anchored.example.com" || !got[0].IsSuffix() {
		t.Fatalf("rule[0] unexpected: %+v", got[0])
	}
}

func TestParseGFWList_PlainTextFallback(t *testing.T) {
	// a mirror that serves the decoded list directly
	got, _, err := ParseGFWList(bytes.NewBufferString(filterBody), "mirror", log.NewNoopLogger(), time.Now())
	if err != nil {
		t.Fatalf("ParseGFWList returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 rules, got %d: %+v", len(got), got)
	}
}
