package querysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/queryir"
)

// Knowledgebase tables and the aliases compiled queries refer to them by.
var (
	Assertions           = queryir.Table{Name: "assertions", Alias: "a"}
	Features             = queryir.Table{Name: "features", Alias: "f"}
	FeatureDefinitions   = queryir.Table{Name: "feature_definitions", Alias: "fd"}
	FeatureAttributes    = queryir.Table{Name: "feature_attributes", Alias: "fa"}
	AttributeDefinitions = queryir.Table{Name: "attribute_definitions", Alias: "ad"}
)

// categoryTables are the tables a searchable category may be backed by.
var categoryTables = map[string]queryir.Table{
	Assertions.Name:         Assertions,
	FeatureDefinitions.Name: FeatureDefinitions,
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Column is one backing column of a category.
type Column struct {
	Table string // assertions or feature_definitions
	Name  string
	Match queryir.MatchMode
}

// Qualified returns the column qualified with its table alias.
func (c Column) Qualified() string {
	return categoryTables[c.Table].Ref() + "." + c.Name
}

// ParseColumn parses "table.column".
func ParseColumn(s string) (Column, error) {
	table, name, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok {
		return Column{}, fmt.Errorf("column %q is not of the form table.column", s)
	}
	col := Column{Table: table, Name: name}
	if err := col.validate(); err != nil {
		return Column{}, err
	}
	return col, nil
}

// ParseMatchMode parses "exact" or "contains". The empty string selects
// exact matching.
func ParseMatchMode(s string) (queryir.MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "exact":
		return queryir.MatchExact, nil
	case "contains":
		return queryir.MatchContains, nil
	default:
		return queryir.MatchExact, fmt.Errorf("unknown match mode %q (want exact or contains)", s)
	}
}

func (c Column) validate() error {
	if _, ok := categoryTables[c.Table]; !ok {
		return fmt.Errorf("column %s.%s: table must be one of assertions, feature_definitions", c.Table, c.Name)
	}
	if !identifier.MatchString(c.Name) {
		return fmt.Errorf("column %s.%s: invalid column name", c.Table, c.Name)
	}
	return nil
}

// Mapping says which knowledgebase columns back each category. It is
// passed explicitly to everything that builds SQL; there is no global
// mapping.
type Mapping struct {
	// Columns lists the backing columns of each searchable category. A
	// phrase matches when any column matches.
	Columns map[category.Category][]Column

	// AttributeNames are attribute_definitions columns the name half of
	// an Attribute:Value phrase is matched against (internal name OR
	// human-readable name).
	AttributeNames []string

	// AttributeValue is how the value half is matched against
	// feature_attributes.value.
	AttributeValue queryir.MatchMode

	// GeneType is the attribute name that is matched against
	// attribute_definitions.type instead of AttributeNames, so that
	// "gene:EGFR" also finds gene1/gene2 attributes of rearrangements.
	GeneType string
}

// DefaultMapping returns the standard knowledgebase mapping. Every match
// is case-insensitive and exact.
func DefaultMapping() Mapping {
	return Mapping{
		Columns: map[category.Category][]Column{
			category.Feature: {
				{Table: FeatureDefinitions.Name, Name: "readable_name"},
				{Table: FeatureDefinitions.Name, Name: "name"},
			},
			category.Disease: {{Table: Assertions.Name, Name: "disease"}},
			category.Therapy: {{Table: Assertions.Name, Name: "therapy_name"}},
			category.Pred:    {{Table: Assertions.Name, Name: "predictive_implication"}},
		},
		AttributeNames: []string{"name", "readable_name"},
		AttributeValue: queryir.MatchExact,
		GeneType:       "gene",
	}
}

// Validate checks that every searchable category has a column and that
// every name is a safe SQL identifier.
func (m Mapping) Validate() error {
	for _, c := range category.All {
		if !c.Searchable() {
			continue
		}
		cols := m.Columns[c]
		if len(cols) == 0 {
			return fmt.Errorf("mapping: category %s has no columns", c)
		}
		for _, col := range cols {
			if err := col.validate(); err != nil {
				return fmt.Errorf("mapping: category %s: %w", c, err)
			}
		}
	}
	for c := range m.Columns {
		if !c.Searchable() {
			return fmt.Errorf("mapping: category %s cannot have columns", c)
		}
	}
	if len(m.AttributeNames) == 0 {
		return fmt.Errorf("mapping: no attribute name columns")
	}
	for _, name := range m.AttributeNames {
		if !identifier.MatchString(name) {
			return fmt.Errorf("mapping: invalid attribute name column %q", name)
		}
	}
	return nil
}
