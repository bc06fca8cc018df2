package domain

import (
	"testing"
	"time"
)

func TestNewRule_Valid(t *testing.T) {
	now := time.Unix(1723550000, 0)
	r, err := NewRule("example.cn", RuleSuffix, "chinalist", now)
	if err != nil {
		t.Fatalf("NewRule returned error: %v", err)
	}
	if r.Pattern != "example.cn" || !r.IsSuffix() || r.Source != "chinalist" {
		t.Fatalf("unexpected rule: %+v", r)
	}
	if r.Category != CategoryUnassigned {
		t.Fatalf("new rule should be unassigned, got %s", r.Category)
	}
}

func TestNewRule_TrimsFields(t *testing.T) {
	now := time.Unix(1723550000, 0)
	r, err := NewExactRule("  example.com  ", "  src ", now)
	if err != nil {
		t.Fatalf("NewExactRule returned error: %v", err)
	}
	if r.Pattern != "example.com" || r.Source != "src" {
		t.Fatalf("fields not trimmed: %+v", r)
	}
}

func TestNewRule_Invalid(t *testing.T) {
	now := time.Unix(1723550000, 0)
	tests := []struct {
		name    string
		pattern string
		kind    RuleKind
		source  string
		addedAt time.Time
	}{
		{"empty pattern", "", RuleExact, "src", now},
		{"whitespace pattern", "   ", RuleExact, "src", now},
		{"empty source", "example.com", RuleExact, "", now},
		{"zero time", "example.com", RuleExact, "src", time.Time{}},
		{"bad kind", "example.com", RuleKind(42), "src", now},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRule(tt.pattern, tt.kind, tt.source, tt.addedAt); err == nil {
				t.Fatalf("expected error for %s", tt.name)
			}
		})
	}
}

func TestRuleKind_Strings(t *testing.T) {
	if RuleExact.String() != "exact" || RuleSuffix.String() != "suffix" {
		t.Fatal("unexpected kind strings")
	}
	if RuleKind(9).String() != "RuleKind(9)" {
		t.Fatalf("unexpected fallback: %s", RuleKind(9))
	}
	for _, s := range []string{"exact", "EXACT", " suffix "} {
		if _, err := ParseRuleKind(s); err != nil {
			t.Fatalf("ParseRuleKind(%q) error: %v", s, err)
		}
	}
	if _, err := ParseRuleKind("fuzzy"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
