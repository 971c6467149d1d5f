// Package category defines the closed set of search dimensions a unified
// search string can be resolved into.
//
// Category is an enumeration, not a free-form string. Tags typed by users
// go through Parse; anything Parse does not recognize is reported as not
// ok and callers bucket it under Unknown. Switches over Category in this
// module are exhaustive so that adding a value is a compile-visible change
// at every site that needs to care.
package category

import (
	"fmt"
	"strings"
)

// Category identifies one search dimension.
type Category int

const (
	// Unknown is the catch-all for text that could not be resolved.
	Unknown Category = iota
	// Feature is a biomarker / feature type name.
	Feature
	// Attribute is an Attribute:Value pair scoped to a feature.
	Attribute
	// Disease is the disease (oncotree term) of an assertion.
	Disease
	// Therapy is the therapy name of an assertion.
	Therapy
	// Pred is the predictive implication (evidence tier) of an assertion.
	Pred
)

// All lists every category, Unknown last. Categorized queries carry a key
// for each of these.
var All = []Category{Feature, Attribute, Disease, Therapy, Pred, Unknown}

// DefaultPrecedence is the order categories are tried when a phrase is
// resolved without an explicit tag. The first category whose backing
// column holds the phrase wins.
var DefaultPrecedence = []Category{Feature, Disease, Pred, Therapy}

// String returns the tag spelling of the category.
func (c Category) String() string {
	switch c {
	case Feature:
		return "feature"
	case Attribute:
		return "attribute"
	case Disease:
		return "disease"
	case Therapy:
		return "therapy"
	case Pred:
		return "pred"
	case Unknown:
		return "unknown"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Searchable reports whether the category is backed by a single column the
// existence oracle can test a phrase against. Attribute is resolved through
// attribute names instead, and Unknown is never tested.
func (c Category) Searchable() bool {
	switch c {
	case Feature, Disease, Therapy, Pred:
		return true
	case Attribute, Unknown:
		return false
	}
	return false
}

// Parse maps a tag spelling to a Category. Matching ignores case and
// surrounding whitespace. "unknown" is deliberately not accepted as a tag:
// tagging something unknown carries no intent.
func Parse(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "feature":
		return Feature, true
	case "attribute":
		return Attribute, true
	case "disease":
		return Disease, true
	case "therapy":
		return Therapy, true
	case "pred":
		return Pred, true
	}
	return Unknown, false
}

// MarshalText encodes the category as its tag spelling so categories can
// be used as JSON object keys.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a tag spelling, including "unknown".
func (c *Category) UnmarshalText(b []byte) error {
	s := string(b)
	if strings.EqualFold(strings.TrimSpace(s), "unknown") {
		*c = Unknown
		return nil
	}
	parsed, ok := Parse(s)
	if !ok {
		return fmt.Errorf("unknown category %q", s)
	}
	*c = parsed
	return nil
}

// ParseList parses a precedence list, rejecting duplicates and
// non-searchable categories.
func ParseList(names []string) ([]Category, error) {
	out := make([]Category, 0, len(names))
	seen := make(map[Category]bool, len(names))
	for _, name := range names {
		c, ok := Parse(name)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", name)
		}
		if !c.Searchable() {
			return nil, fmt.Errorf("category %q cannot appear in a precedence list", name)
		}
		if seen[c] {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
