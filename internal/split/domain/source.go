package domain

import (
	"fmt"
	"strings"
)

// Source describes one upstream list: where to get it, how to parse it, and
// which category its entries lean toward when no override applies.
type Source struct {
	Name     string   // unique identifier, used in provenance and cache keys
	URL      string   // http(s) location of the raw list
	Format   string   // parser format; empty means sniff from the URL
	Affinity Category // domestic-leaning or foreign-leaning
}

// NewSource constructs a Source and validates its fields.
func NewSource(name, url, format string, affinity Category) (Source, error) {
	s := Source{
		Name:     strings.TrimSpace(name),
		URL:      strings.TrimSpace(url),
		Format:   strings.ToLower(strings.TrimSpace(format)),
		Affinity: affinity,
	}
	if err := s.Validate(); err != nil {
		return Source{}, err
	}
	return s, nil
}

// Validate checks the Source for required fields and supported values.
func (s Source) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("source name must not be empty")
	}
	if s.URL == "" {
		return fmt.Errorf("source url must not be empty")
	}
	switch s.Affinity {
	case CategoryDomestic, CategoryForeign:
		// ok
	default:
		return fmt.Errorf("source %q: affinity must be domestic or foreign, got %s", s.Name, s.Affinity)
	}
	return nil
}

// SourceList is a fetched upstream list: the Source it came from plus the raw
// body and content checksum. Each fetch produces an isolated SourceList; the
// pipeline never shares one between goroutines.
type SourceList struct {
	Source    Source
	Body      []byte
	Checksum  string // hex sha256 of Body
	FromCache bool   // true when the body was served from the local list cache
}
