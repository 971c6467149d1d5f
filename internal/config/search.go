package config

import (
	"fmt"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/interpret"
	"github.com/vanallenlab/almanac/internal/querysql"
	"github.com/vanallenlab/almanac/internal/resolve"
)

// ResolveConfig builds the interpreter's tie-breaking configuration.
func (s Search) ResolveConfig() (resolve.Config, error) {
	cfg := resolve.DefaultConfig()

	window, err := resolve.ParseWindowPolicy(s.Window)
	if err != nil {
		return resolve.Config{}, err
	}
	cfg.Window = window

	if len(s.Precedence) > 0 {
		precedence, err := category.ParseList(s.Precedence)
		if err != nil {
			return resolve.Config{}, fmt.Errorf("precedence: %w", err)
		}
		cfg.Precedence = precedence
	}
	return cfg, nil
}

// TagMissPolicy parses the tag_miss setting.
func (s Search) TagMissPolicy() (interpret.TagMiss, error) {
	return interpret.ParseTagMiss(s.TagMiss)
}

// Mapping builds the category-to-column mapping, starting from
// querysql.DefaultMapping and replacing whatever is configured.
func (s Search) Mapping() (querysql.Mapping, error) {
	m := querysql.DefaultMapping()

	for name, cols := range s.Columns {
		c, ok := category.Parse(name)
		if !ok || !c.Searchable() {
			return querysql.Mapping{}, fmt.Errorf("columns: %q is not a searchable category", name)
		}
		parsed := make([]querysql.Column, 0, len(cols))
		for _, col := range cols {
			pc, err := querysql.ParseColumn(col.Column)
			if err != nil {
				return querysql.Mapping{}, fmt.Errorf("columns.%s: %w", name, err)
			}
			if pc.Match, err = querysql.ParseMatchMode(col.Match); err != nil {
				return querysql.Mapping{}, fmt.Errorf("columns.%s: %w", name, err)
			}
			parsed = append(parsed, pc)
		}
		m.Columns[c] = parsed
	}

	if len(s.AttributeNames) > 0 {
		m.AttributeNames = append([]string(nil), s.AttributeNames...)
	}

	mode, err := querysql.ParseMatchMode(s.AttributeValue)
	if err != nil {
		return querysql.Mapping{}, fmt.Errorf("attribute_value: %w", err)
	}
	m.AttributeValue = mode
	m.GeneType = s.GeneType

	if err := m.Validate(); err != nil {
		return querysql.Mapping{}, err
	}
	return m, nil
}
