package domain

import (
	"fmt"
	"strings"
	"time"
)

// RuleKind defines how a rule matches domains.
//
// exact  - matches the named domain only
// suffix - matches the named domain and any subdomain (apex-inclusive)
type RuleKind uint8

const (
	// RuleExact matches only the exact domain.
	RuleExact RuleKind = iota
	// RuleSuffix matches the domain and all its subdomains (apex-inclusive).
	RuleSuffix
)

// String returns a stable string representation of the rule kind.
func (k RuleKind) String() string {
	switch k {
	case RuleExact:
		return "exact"
	case RuleSuffix:
		return "suffix"
	default:
		return fmt.Sprintf("RuleKind(%d)", k)
	}
}

// ParseRuleKind converts a string into a RuleKind.
// Accepts: "exact", "suffix" (case-insensitive).
func ParseRuleKind(s string) (RuleKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exact":
		return RuleExact, nil
	case "suffix":
		return RuleSuffix, nil
	default:
		return 0, fmt.Errorf("unsupported RuleKind: %q", s)
	}
}

// Rule is a single normalized domain rule produced by a parser.
//
// Notes:
// - Pattern is canonical: lowercase, no surrounding whitespace, no trailing dot.
// - Source identifies the list the rule came from (source name or file path).
// - Category starts unassigned and is set by the classifier.
// - AddedAt records when the rule was ingested.
type Rule struct {
	Pattern  string
	Kind     RuleKind
	Category Category
	Source   string
	AddedAt  time.Time
}

// NewRule constructs a Rule and validates its fields.
func NewRule(pattern string, kind RuleKind, source string, addedAt time.Time) (Rule, error) {
	r := Rule{
		Pattern: strings.TrimSpace(pattern),
		Kind:    kind,
		Source:  strings.TrimSpace(source),
		AddedAt: addedAt,
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// NewExactRule convenience constructor for an exact rule.
func NewExactRule(pattern, source string, addedAt time.Time) (Rule, error) {
	return NewRule(pattern, RuleExact, source, addedAt)
}

// NewSuffixRule convenience constructor for a suffix rule (apex-inclusive).
func NewSuffixRule(pattern, source string, addedAt time.Time) (Rule, error) {
	return NewRule(pattern, RuleSuffix, source, addedAt)
}

// Validate checks the Rule for required fields and supported values.
func (r Rule) Validate() error {
	if r.Pattern == "" {
		return fmt.Errorf("rule pattern must not be empty")
	}
	if r.Source == "" {
		return fmt.Errorf("rule source must not be empty")
	}
	if r.AddedAt.IsZero() {
		return fmt.Errorf("rule addedAt must be set")
	}
	switch r.Kind {
	case RuleExact, RuleSuffix:
		// ok
	default:
		return fmt.Errorf("unsupported RuleKind: %d", r.Kind)
	}
	return nil
}

// IsExact returns true when the rule kind is exact.
func (r Rule) IsExact() bool { return r.Kind == RuleExact }

// IsSuffix returns true when the rule kind is suffix (apex-inclusive).
func (r Rule) IsSuffix() bool { return r.Kind == RuleSuffix }
