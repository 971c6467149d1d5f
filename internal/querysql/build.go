package querysql

import (
	"strings"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/queryir"
)

// SearchColumns are the columns of a search result row, in scan order.
var SearchColumns = []string{
	"a.id",
	"f.id",
	"fd.name",
	"fd.readable_name",
	"a.disease",
	"a.therapy_name",
	"a.predictive_implication",
}

// Build turns categorized phrases into the search Select: one OR group
// per non-empty category, AND across groups, and always only validated
// assertions. Unknown phrases are ignored.
//
// ok is false when no category has a usable phrase. Callers return no
// rows without touching storage in that case.
//
// Attribute phrases are split at the first colon. The name half matches
// the mapping's attribute name columns, or attribute_definitions.type
// when it equals GeneType ignoring case. An empty half is not
// constrained.
func Build(cats map[category.Category][]string, m Mapping) (queryir.Select, bool) {
	var groups []queryir.Predicate
	for _, c := range category.All {
		var group queryir.Predicate
		switch {
		case c == category.Attribute:
			group = attributeGroup(cats[c], m)
		case c.Searchable():
			group = columnGroup(cats[c], m.Columns[c])
		}
		if group != nil {
			groups = append(groups, group)
		}
	}
	if len(groups) == 0 {
		return queryir.Select{}, false
	}

	filter := append([]queryir.Predicate{
		queryir.Equals{Column: "a.validated", Value: queryir.Bool(true)},
	}, groups...)

	return queryir.Select{
		Columns: SearchColumns,
		From:    Features,
		Joins: []queryir.Join{
			{Table: Assertions, On: queryir.ColumnEquals{Left: "a.id", Right: "f.assertion_id"}},
			{Table: FeatureDefinitions, On: queryir.ColumnEquals{Left: "fd.id", Right: "f.feature_def_id"}},
		},
		Filter:  queryir.And{Predicates: filter},
		OrderBy: []string{"a.id", "f.id"},
	}, true
}

// columnGroup ORs every phrase against every column.
func columnGroup(phrases []string, cols []Column) queryir.Predicate {
	var or []queryir.Predicate
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		for _, col := range cols {
			or = append(or, queryir.Like{Column: col.Qualified(), Text: p, Mode: col.Match})
		}
	}
	if len(or) == 0 {
		return nil
	}
	return queryir.Or{Predicates: or}
}

// attributeGroup requires one attribute of the feature to satisfy any of
// the phrases.
func attributeGroup(phrases []string, m Mapping) queryir.Predicate {
	var or []queryir.Predicate
	for _, p := range phrases {
		if pred := attributePhrase(p, m); pred != nil {
			or = append(or, pred)
		}
	}
	if len(or) == 0 {
		return nil
	}
	return queryir.Exists{
		From: FeatureAttributes,
		Joins: []queryir.Join{
			{Table: AttributeDefinitions, On: queryir.ColumnEquals{Left: "ad.id", Right: "fa.attribute_def_id"}},
		},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.ColumnEquals{Left: "fa.feature_id", Right: "f.id"},
			queryir.Or{Predicates: or},
		}},
	}
}

func attributePhrase(phrase string, m Mapping) queryir.Predicate {
	name, value, _ := strings.Cut(phrase, ":")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)

	var and []queryir.Predicate
	switch {
	case name == "":
	case m.GeneType != "" && strings.EqualFold(name, m.GeneType):
		and = append(and, queryir.Equals{Column: "ad.type", Value: queryir.Text(m.GeneType)})
	default:
		var names []queryir.Predicate
		for _, col := range m.AttributeNames {
			names = append(names, queryir.Like{Column: "ad." + col, Text: name})
		}
		and = append(and, queryir.Or{Predicates: names})
	}
	if value != "" {
		and = append(and, queryir.Like{Column: "fa.value", Text: value, Mode: m.AttributeValue})
	}

	if len(and) == 0 {
		return nil
	}
	return queryir.And{Predicates: and}
}

// ExistsQueries returns the probes answering whether candidate matches a
// backing column of c, one per backing table. The candidate exists when
// any probe returns a row.
func ExistsQueries(c category.Category, candidate string, m Mapping) []queryir.Select {
	byTable := make(map[string][]queryir.Predicate)
	var order []string
	for _, col := range m.Columns[c] {
		if _, seen := byTable[col.Table]; !seen {
			order = append(order, col.Table)
		}
		byTable[col.Table] = append(byTable[col.Table], queryir.Like{Column: col.Qualified(), Text: candidate, Mode: col.Match})
	}

	probes := make([]queryir.Select, 0, len(order))
	for _, table := range order {
		probes = append(probes, queryir.Select{
			Columns: []string{"1"},
			From:    categoryTables[table],
			Filter:  queryir.Or{Predicates: byTable[table]},
			Limit:   1,
		})
	}
	return probes
}

// AttributeNameQuery returns the probe answering whether candidate names
// an attribute definition by any of the mapping's name columns.
func AttributeNameQuery(candidate string, m Mapping) queryir.Select {
	var or []queryir.Predicate
	for _, col := range m.AttributeNames {
		or = append(or, queryir.Like{Column: "ad." + col, Text: candidate})
	}
	return queryir.Select{
		Columns: []string{"1"},
		From:    AttributeDefinitions,
		Filter:  queryir.Or{Predicates: or},
		Limit:   1,
	}
}

// DistinctValuesQuery lists the distinct values recorded for attributes
// whose definition column equals needle, e.g. every gene when column is
// "type" and needle is "gene".
func DistinctValuesQuery(column, needle string) queryir.Select {
	return queryir.Select{
		Distinct: true,
		Columns:  []string{"fa.value"},
		From:     FeatureAttributes,
		Joins: []queryir.Join{
			{Table: AttributeDefinitions, On: queryir.ColumnEquals{Left: "ad.id", Right: "fa.attribute_def_id"}},
		},
		Filter:  queryir.Equals{Column: "ad." + column, Value: queryir.Text(needle)},
		OrderBy: []string{"fa.value"},
	}
}
