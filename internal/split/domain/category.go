package domain

import (
	"fmt"
	"strings"
)

// Category labels which DNS resolver group should serve a domain's queries.
//
// unassigned - not yet classified (parser output)
// domestic   - resolved by the domestic DNS servers
// foreign    - resolved by the foreign DNS servers
type Category uint8

const (
	// CategoryUnassigned is the zero value; rules leave the parser in this state.
	CategoryUnassigned Category = iota
	// CategoryDomestic routes queries to the domestic resolver group.
	CategoryDomestic
	// CategoryForeign routes queries to the foreign resolver group.
	CategoryForeign
)

// String returns a stable string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUnassigned:
		return "unassigned"
	case CategoryDomestic:
		return "domestic"
	case CategoryForeign:
		return "foreign"
	default:
		return fmt.Sprintf("Category(%d)", c)
	}
}

// ParseCategory converts a string into a Category.
// Accepts: "domestic", "foreign" (case-insensitive). "cn" and "gfw" are
// recognized aliases used by upstream list conventions.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "domestic", "cn":
		return CategoryDomestic, nil
	case "foreign", "gfw":
		return CategoryForeign, nil
	default:
		return 0, fmt.Errorf("unsupported Category: %q", s)
	}
}

// Other returns the opposite routing category. Unassigned maps to itself.
func (c Category) Other() Category {
	switch c {
	case CategoryDomestic:
		return CategoryForeign
	case CategoryForeign:
		return CategoryDomestic
	default:
		return c
	}
}
