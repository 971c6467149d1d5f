package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/queryir"
)

func TestParseDialect(t *testing.T) {
	for _, name := range []string{"sqlite3", "SQLite"} {
		d, err := ParseDialect(name)
		require.NoError(t, err)
		assert.Equal(t, SQLite, d)
	}
	for _, name := range []string{"postgres", "postgresql", "pq"} {
		d, err := ParseDialect(name)
		require.NoError(t, err)
		assert.Equal(t, Postgres, d)
	}
	_, err := ParseDialect("mysql")
	assert.ErrorContains(t, err, `unsupported SQL dialect "mysql"`)

	assert.Equal(t, "sqlite3", SQLite.String())
	assert.Equal(t, "postgres", Postgres.String())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%`, EscapeLike("50%"))
	assert.Equal(t, `p.V600\_E`, EscapeLike("p.V600_E"))
	assert.Equal(t, `a\\b`, EscapeLike(`a\b`))
	assert.Equal(t, "EGFR", EscapeLike("EGFR"))
}

func TestCompile_SimpleSelect(t *testing.T) {
	sel := queryir.Select{
		Columns: []string{"id", "disease"},
		From:    queryir.Table{Name: "assertions"},
		Filter:  queryir.Like{Column: "disease", Text: "Melanoma"},
	}

	sql, params, err := Compile(sel, SQLite)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT id, disease FROM assertions WHERE disease LIKE ? ESCAPE '\' ORDER BY assertions.id COLLATE BINARY ASC`,
		sql)
	assert.Equal(t, []any{"Melanoma"}, params)

	sql, params, err = Compile(sel, Postgres)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT id, disease FROM assertions WHERE disease ILIKE $1 ESCAPE '\' ORDER BY assertions.id ASC`,
		sql)
	assert.Equal(t, []any{"Melanoma"}, params)
}

func TestCompile_OrderByMandatory(t *testing.T) {
	testCases := []struct {
		name string
		sel  queryir.Select
	}{
		{
			name: "no filter",
			sel:  queryir.Select{Columns: []string{"id"}, From: queryir.Table{Name: "sources"}},
		},
		{
			name: "explicit order",
			sel: queryir.Select{
				Columns: []string{"fa.value"},
				From:    FeatureAttributes,
				OrderBy: []string{"fa.value"},
			},
		},
		{
			name: "probe",
			sel:  AttributeNameQuery("gene", DefaultMapping()),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, _, err := Compile(tc.sel, SQLite)
			require.NoError(t, err)
			assert.Contains(t, sql, " ORDER BY ")
			assert.Contains(t, sql, "COLLATE BINARY")
		})
	}
}

func TestCompile_NoStringInterpolation(t *testing.T) {
	dangerous := "'; DROP TABLE assertions; --"
	sel, ok := Build(map[category.Category][]string{category.Disease: {dangerous}}, DefaultMapping())
	require.True(t, ok)

	sql, params, err := Compile(sel, SQLite)
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP TABLE")
	assert.Contains(t, params, dangerous)
}

func TestCompile_EscapesWildcards(t *testing.T) {
	sel := queryir.Select{
		Columns: []string{"id"},
		From:    queryir.Table{Name: "assertions"},
		Filter:  queryir.Like{Column: "therapy_name", Text: "100%_x", Mode: queryir.MatchContains},
	}

	_, params, err := Compile(sel, SQLite)
	require.NoError(t, err)
	assert.Equal(t, []any{`%100\%\_x%`}, params)
}

func TestCompile_NestingAndLimit(t *testing.T) {
	sel := queryir.Select{
		Distinct: true,
		Columns:  []string{"a.id"},
		From:     Assertions,
		Filter: queryir.Or{Predicates: []queryir.Predicate{
			queryir.And{Predicates: []queryir.Predicate{
				queryir.Equals{Column: "a.validated", Value: queryir.Bool(true)},
				queryir.Like{Column: "a.disease", Text: "Melanoma"},
			}},
			queryir.Equals{Column: "a.submitted_by", Value: queryir.Text("curator@example.org")},
		}},
		Limit: 5,
	}

	sql, params, err := Compile(sel, Postgres)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT DISTINCT a.id FROM assertions a WHERE (a.validated = $1 AND a.disease ILIKE $2 ESCAPE '\') OR a.submitted_by = $3 ORDER BY a.id ASC LIMIT 5`,
		sql)
	assert.Equal(t, []any{true, "Melanoma", "curator@example.org"}, params)
}

func TestCompile_RejectsInvalidQuery(t *testing.T) {
	_, _, err := Compile(queryir.Select{From: queryir.Table{Name: "assertions"}}, SQLite)
	assert.ErrorContains(t, err, "select has no columns")

	_, _, err = Compile(queryir.Select{Columns: []string{"id"}, From: queryir.Table{Name: "x"}}, Dialect(9))
	assert.ErrorContains(t, err, "unsupported dialect")
}

func TestCompile_Search(t *testing.T) {
	sel, ok := Build(map[category.Category][]string{
		category.Feature:   {"EGFR"},
		category.Attribute: {"Gene:EGFR"},
		category.Disease:   {"Melanoma"},
		category.Unknown:   {"zz"},
	}, DefaultMapping())
	require.True(t, ok)

	const prefix = `SELECT a.id, f.id, fd.name, fd.readable_name, a.disease, a.therapy_name, a.predictive_implication ` +
		`FROM features f INNER JOIN assertions a ON a.id = f.assertion_id ` +
		`INNER JOIN feature_definitions fd ON fd.id = f.feature_def_id WHERE `

	sql, params, err := Compile(sel, SQLite)
	require.NoError(t, err)
	assert.Equal(t, prefix+
		`a.validated = ? AND `+
		`(fd.readable_name LIKE ? ESCAPE '\' OR fd.name LIKE ? ESCAPE '\') AND `+
		`EXISTS (SELECT 1 FROM feature_attributes fa INNER JOIN attribute_definitions ad ON ad.id = fa.attribute_def_id `+
		`WHERE fa.feature_id = f.id AND (ad.type = ? AND fa.value LIKE ? ESCAPE '\')) AND `+
		`a.disease LIKE ? ESCAPE '\' `+
		`ORDER BY a.id COLLATE BINARY ASC, f.id COLLATE BINARY ASC`,
		sql)
	assert.Equal(t, []any{true, "EGFR", "EGFR", "gene", "EGFR", "Melanoma"}, params)

	sql, params, err = Compile(sel, Postgres)
	require.NoError(t, err)
	assert.Equal(t, prefix+
		`a.validated = $1 AND `+
		`(fd.readable_name ILIKE $2 ESCAPE '\' OR fd.name ILIKE $3 ESCAPE '\') AND `+
		`EXISTS (SELECT 1 FROM feature_attributes fa INNER JOIN attribute_definitions ad ON ad.id = fa.attribute_def_id `+
		`WHERE fa.feature_id = f.id AND (ad.type = $4 AND fa.value ILIKE $5 ESCAPE '\')) AND `+
		`a.disease ILIKE $6 ESCAPE '\' `+
		`ORDER BY a.id ASC, f.id ASC`,
		sql)
	assert.Len(t, params, 6)
}
