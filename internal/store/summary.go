package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Summary holds headline counts over validated evidence.
type Summary struct {
	Assertions  int64     `json:"assertions"`
	Features    int64     `json:"features"`
	Genes       int64     `json:"genes"`
	Diseases    int64     `json:"diseases"`
	Therapies   int64     `json:"therapies"`
	Sources     int64     `json:"sources"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

type counter struct {
	name  string
	query string
	args  func(s *Store) []any
	dest  func(*Summary) *int64
}

var counters = []counter{
	{
		name:  "assertions",
		query: `SELECT COUNT(*) FROM assertions WHERE validated = ?`,
		args:  func(*Store) []any { return []any{true} },
		dest:  func(m *Summary) *int64 { return &m.Assertions },
	},
	{
		name: "features",
		query: `SELECT COUNT(*) FROM features f
			INNER JOIN assertions a ON a.id = f.assertion_id
			WHERE a.validated = ?`,
		args: func(*Store) []any { return []any{true} },
		dest: func(m *Summary) *int64 { return &m.Features },
	},
	{
		name: "genes",
		query: `SELECT COUNT(DISTINCT fa.value) FROM feature_attributes fa
			INNER JOIN attribute_definitions ad ON ad.id = fa.attribute_def_id
			INNER JOIN features f ON f.id = fa.feature_id
			INNER JOIN assertions a ON a.id = f.assertion_id
			WHERE ad.type = ? AND a.validated = ?`,
		args: func(s *Store) []any { return []any{s.mapping.GeneType, true} },
		dest: func(m *Summary) *int64 { return &m.Genes },
	},
	{
		name:  "diseases",
		query: `SELECT COUNT(DISTINCT disease) FROM assertions WHERE validated = ? AND disease <> ''`,
		args:  func(*Store) []any { return []any{true} },
		dest:  func(m *Summary) *int64 { return &m.Diseases },
	},
	{
		name:  "therapies",
		query: `SELECT COUNT(DISTINCT therapy_name) FROM assertions WHERE validated = ? AND therapy_name <> ''`,
		args:  func(*Store) []any { return []any{true} },
		dest:  func(m *Summary) *int64 { return &m.Therapies },
	},
	{
		name:  "sources",
		query: `SELECT COUNT(*) FROM sources`,
		args:  func(*Store) []any { return nil },
		dest:  func(m *Summary) *int64 { return &m.Sources },
	},
}

// Summary computes the counts from the knowledgebase.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	for _, c := range counters {
		if err := s.db.QueryRowContext(ctx, s.rebind(c.query), c.args(s)...).Scan(c.dest(&sum)); err != nil {
			return Summary{}, fmt.Errorf("summary: count %s: %w", c.name, err)
		}
	}
	sum.RefreshedAt = s.now().UTC()
	return sum, nil
}

// RefreshSummary computes the counts and stores them in the summary cache
// table, replacing the previous snapshot.
func (s *Store) RefreshSummary(ctx context.Context) (Summary, error) {
	sum, err := s.Summary(ctx)
	if err != nil {
		return Summary{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("refresh summary: begin: %w", err)
	}
	defer tx.Rollback()

	stamp := sum.RefreshedAt.Format(time.RFC3339Nano)
	for _, c := range counters {
		_, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO summary_counts (name, count, refreshed_at)
			VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET count = excluded.count, refreshed_at = excluded.refreshed_at
		`), c.name, *c.dest(&sum), stamp)
		if err != nil {
			return Summary{}, fmt.Errorf("refresh summary: store %s: %w", c.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("refresh summary: commit: %w", err)
	}

	s.logger.InfoContext(ctx, "summary refreshed",
		"assertions", sum.Assertions,
		"genes", sum.Genes,
		"sources", sum.Sources,
	)
	return sum, nil
}

// CachedSummary returns the last stored snapshot. ok is false when the
// cache has never been refreshed.
func (s *Store) CachedSummary(ctx context.Context) (sum Summary, ok bool, err error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, count, refreshed_at FROM summary_counts ORDER BY name ASC
	`)
	if err != nil {
		return Summary{}, false, fmt.Errorf("cached summary: query: %w", err)
	}
	defer rows.Close()

	dest := make(map[string]*int64, len(counters))
	for _, c := range counters {
		dest[c.name] = c.dest(&sum)
	}

	for rows.Next() {
		var name, stamp string
		var count int64
		if err := rows.Scan(&name, &count, &stamp); err != nil {
			return Summary{}, false, fmt.Errorf("cached summary: scan: %w", err)
		}
		p, known := dest[name]
		if !known {
			continue
		}
		*p = count
		ok = true

		at, err := time.Parse(time.RFC3339Nano, stamp)
		if err != nil {
			return Summary{}, false, fmt.Errorf("cached summary: parse %s timestamp: %w", name, err)
		}
		if at.After(sum.RefreshedAt) {
			sum.RefreshedAt = at
		}
	}
	if err := rows.Err(); err != nil {
		return Summary{}, false, fmt.Errorf("cached summary: iterate: %w", err)
	}
	if !ok {
		return Summary{}, false, nil
	}
	return sum, true, nil
}

// isNoRows reports whether err is sql.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
