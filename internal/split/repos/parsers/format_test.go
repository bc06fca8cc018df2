package parsers

import (
	"bytes"
	"testing"
	"time"

	"github.com/velden/splitgen/internal/split/common/log"
)

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		url  string
		want Format
	}{
		{"https://example.org/ChinaDomain.yaml", FormatClash},
		{"https://example.org/rules/proxy.yml", FormatClash},
		{"https://example.org/accelerated-domains.china.conf", FormatDnsmasq},
		{"https://example.org/gfwlist.txt", FormatGFWList},
		{"https://example.org/gfwlist_base64.txt", FormatGFWList},
		{"https://mirror.example.org/gfwlist/gfwlist-merged.txt", FormatGFWList},
		{"https://example.org/easylist-adblock.txt", FormatAdblock},
		{"https://example.org/ChinaMax_Domain.txt", FormatPlain},
		{"https://example.org/direct.list", FormatPlain},
		{"https://example.org/whatever", FormatPlain},
	}
	for _, tt := range tests {
		if got := SniffFormat(tt.url); got != tt.want {
			t.Errorf("SniffFormat(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"plain", "CLASH", " dnsmasq ", "adblock", "gfwlist"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) returned error: %v", s, err)
		}
	}
	for _, s := range []string{"", "csv", "hosts?"} {
		if _, err := ParseFormat(s); err == nil {
			t.Errorf("ParseFormat(%q) should fail", s)
		}
	}
}

func TestParse_Dispatch(t *testing.T) {
	now := time.Unix(1723550000, 0)
	got, _, err := Parse(FormatDnsmasq, bytes.NewBufferString("server=/example.cn/1.2.3.4\n"), "s", log.NewNoopLogger(), now)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(got) != 1 || got[0].Pattern != "example.cn" {
		t.Fatalf("unexpected rules: %+v", got)
	}

	if _, _, err := Parse(Format("csv"), bytes.NewBufferString(""), "s", log.NewNoopLogger(), now); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
