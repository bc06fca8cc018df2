package utils

import "testing"

func TestCanonicalDNSName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already canonical", "example.com", "example.com"},
		{"trailing dot", "example.com.", "example.com"},
		{"multiple trailing dots", "example.com..", "example.com"},
		{"uppercase", "EXAMPLE.COM", "example.com"},
		{"mixed case with whitespace", "  WwW.ExAmPlE.CoM.  ", "www.example.com"},
		{"tabs", "\texample.cn\t", "example.cn"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"idn ascii form", "xn--fiqs8s", "xn--fiqs8s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanonicalDNSName(tt.input); got != tt.expected {
				t.Errorf("CanonicalDNSName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCanonicalDNSName_Idempotent(t *testing.T) {
	for _, input := range []string{"example.com", "EXAMPLE.COM.", "  www.example.cn  "} {
		first := CanonicalDNSName(input)
		second := CanonicalDNSName(first)
		if first != second {
			t.Errorf("not idempotent for %q: first=%q second=%q", input, first, second)
		}
	}
}

func TestIsIPv4(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"192.168.1.1", true},
		{"1.1.1.1", true},
		{"255.255.255.255", true},
		{"256.1.1.1", false},
		{"1.1.1", false},
		{"1.1.1.1.1", false},
		{"example.com", false},
		{"1.1.1.a", false},
		{"", false},
		{"....", false},
	}
	for _, tt := range tests {
		if got := IsIPv4(tt.input); got != tt.want {
			t.Errorf("IsIPv4(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"www.example.com", "example.com"},
		{"example.com", "example.com"},
		{"api.service.example.cn", "example.cn"},
		{"www.example.co.uk", "example.co.uk"},
		{"user.github.io", "user.github.io"},
		{"localhost", "localhost"},
	}
	for _, tt := range tests {
		if got := RegistrableDomain(tt.input); got != tt.expected {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
