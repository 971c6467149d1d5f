package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/oracle"
	"github.com/vanallenlab/almanac/internal/queryir"
	"github.com/vanallenlab/almanac/internal/querysql"
)

// Exists reports whether candidate matches a backing column of c, using
// the store's mapping. It implements oracle.Oracle.
func (s *Store) Exists(ctx context.Context, c category.Category, candidate string) (bool, error) {
	if !c.Searchable() {
		return false, fmt.Errorf("exists: category %s has no backing column", c)
	}
	if strings.TrimSpace(candidate) == "" {
		return false, nil
	}

	for _, probe := range querysql.ExistsQueries(c, candidate, s.mapping) {
		found, err := s.probe(ctx, probe)
		if err != nil {
			return false, fmt.Errorf("exists %s: %w", c, err)
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

// ExistsAttributeName reports whether candidate names an attribute
// definition by internal or readable name. It implements oracle.Oracle.
func (s *Store) ExistsAttributeName(ctx context.Context, candidate string) (bool, error) {
	if strings.TrimSpace(candidate) == "" {
		return false, nil
	}
	found, err := s.probe(ctx, querysql.AttributeNameQuery(candidate, s.mapping))
	if err != nil {
		return false, fmt.Errorf("exists attribute name: %w", err)
	}
	return found, nil
}

// Folding reports how lookups compare case: SQLite LIKE folds ASCII
// letters only, Postgres ILIKE folds Unicode. It implements oracle.Folder.
func (s *Store) Folding() oracle.Folding {
	if s.dialect == querysql.SQLite {
		return oracle.FoldASCII
	}
	return oracle.FoldUnicode
}

// probe reports whether sel returns at least one row.
func (s *Store) probe(ctx context.Context, sel queryir.Select) (bool, error) {
	query, args, err := querysql.Compile(sel, s.dialect)
	if err != nil {
		return false, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	found := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("iterate: %w", err)
	}
	return found, nil
}
