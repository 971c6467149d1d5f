package store

import (
	"context"
	"fmt"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/querysql"
)

// inBatch bounds the number of ids bound into one IN list.
const inBatch = 500

// Row is one search result: a feature of a validated assertion.
type Row struct {
	AssertionID   int64       `json:"assertion_id"`
	FeatureID     int64       `json:"feature_id"`
	FeatureName   string      `json:"feature_name"`
	Feature       string      `json:"feature"`
	DisplayString string      `json:"display_string"`
	Attributes    []Attribute `json:"attributes"`
	Disease       string      `json:"disease"`
	Therapy       string      `json:"therapy"`
	Pred          string      `json:"predictive_implication"`
	Sources       []string    `json:"sources"`
}

// Search returns the rows matching the categorized phrases: any phrase
// within a category, every non-empty category, validated assertions
// only. Unknown phrases are ignored. A query with nothing to search
// returns an empty slice without touching the database.
//
// Results are ordered by assertion id, then feature id.
func (s *Store) Search(ctx context.Context, cats map[category.Category][]string) ([]Row, error) {
	sel, ok := querysql.Build(cats, s.mapping)
	if !ok {
		return []Row{}, nil
	}

	query, args, err := querysql.Compile(sel, s.dialect)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search: query: %w", err)
	}
	defer rows.Close()

	results := []Row{}
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.AssertionID, &r.FeatureID, &r.FeatureName, &r.Feature, &r.Disease, &r.Therapy, &r.Pred); err != nil {
			return nil, fmt.Errorf("search: scan: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search: iterate: %w", err)
	}
	if len(results) == 0 {
		return results, nil
	}

	if err := s.attachAttributes(ctx, results); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if err := s.attachSources(ctx, results); err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	s.logger.DebugContext(ctx, "search complete", "rows", len(results))
	return results, nil
}

// attachAttributes loads attribute values for every row's feature and
// renders display strings.
func (s *Store) attachAttributes(ctx context.Context, results []Row) error {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.FeatureID
	}

	byFeature := make(map[int64][]Attribute, len(ids))
	err := s.inBatches(ids, func(batch []any) error {
		rows, err := s.db.QueryContext(ctx, s.rebind(`
			SELECT fa.feature_id, ad.name, fa.value
			FROM feature_attributes fa
			INNER JOIN attribute_definitions ad ON ad.id = fa.attribute_def_id
			WHERE fa.feature_id IN (`+placeholders(len(batch))+`)
			ORDER BY fa.feature_id ASC, ad.id ASC, fa.id ASC
		`), batch...)
		if err != nil {
			return fmt.Errorf("query attributes: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			var a Attribute
			if err := rows.Scan(&id, &a.Name, &a.Value); err != nil {
				return fmt.Errorf("scan attribute: %w", err)
			}
			byFeature[id] = append(byFeature[id], a)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate attributes: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := range results {
		attrs := byFeature[results[i].FeatureID]
		if attrs == nil {
			attrs = []Attribute{}
		}
		results[i].Attributes = attrs
		results[i].DisplayString = DisplayString(results[i].FeatureName, attrs)
	}
	return nil
}

// attachSources loads source DOIs for every row's assertion.
func (s *Store) attachSources(ctx context.Context, results []Row) error {
	seen := make(map[int64]bool)
	var ids []int64
	for _, r := range results {
		if !seen[r.AssertionID] {
			seen[r.AssertionID] = true
			ids = append(ids, r.AssertionID)
		}
	}

	byAssertion := make(map[int64][]string, len(ids))
	err := s.inBatches(ids, func(batch []any) error {
		rows, err := s.db.QueryContext(ctx, s.rebind(`
			SELECT asrc.assertion_id, src.doi
			FROM assertion_sources asrc
			INNER JOIN sources src ON src.id = asrc.source_id
			WHERE asrc.assertion_id IN (`+placeholders(len(batch))+`)
			ORDER BY asrc.assertion_id ASC, src.id ASC
		`), batch...)
		if err != nil {
			return fmt.Errorf("query sources: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id int64
			var doi string
			if err := rows.Scan(&id, &doi); err != nil {
				return fmt.Errorf("scan source: %w", err)
			}
			byAssertion[id] = append(byAssertion[id], doi)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate sources: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := range results {
		dois := byAssertion[results[i].AssertionID]
		if dois == nil {
			dois = []string{}
		}
		results[i].Sources = dois
	}
	return nil
}

// inBatches calls fn with ids split into groups of at most inBatch.
func (s *Store) inBatches(ids []int64, fn func(batch []any) error) error {
	for start := 0; start < len(ids); start += inBatch {
		end := min(start+inBatch, len(ids))
		batch := make([]any, 0, end-start)
		for _, id := range ids[start:end] {
			batch = append(batch, id)
		}
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}
