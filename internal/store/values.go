package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/vanallenlab/almanac/internal/querysql"
)

// definitionColumns are the attribute_definitions columns DistinctValues
// may filter on.
var definitionColumns = map[string]bool{"name": true, "readable_name": true, "type": true}

// DistinctValues lists every distinct value recorded for attributes whose
// definition column equals needle, e.g. all protein changes with
// ("name", "protein_change"). Empty values and the placeholder "none" are
// dropped.
func (s *Store) DistinctValues(ctx context.Context, column, needle string) ([]string, error) {
	if !definitionColumns[column] {
		return nil, fmt.Errorf("distinct values: unsupported column %q", column)
	}

	query, args, err := querysql.Compile(querysql.DistinctValuesQuery(column, needle), s.dialect)
	if err != nil {
		return nil, fmt.Errorf("distinct values: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("distinct values: query: %w", err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("distinct values: scan: %w", err)
		}
		if v = strings.TrimSpace(v); v == "" || strings.EqualFold(v, "none") {
			continue
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distinct values: iterate: %w", err)
	}
	return values, nil
}

// Genes lists every gene symbol in the knowledgebase: the values of all
// attributes typed as the mapping's gene type.
func (s *Store) Genes(ctx context.Context) ([]string, error) {
	return s.DistinctValues(ctx, "type", s.mapping.GeneType)
}
