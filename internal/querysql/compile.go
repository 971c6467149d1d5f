package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vanallenlab/almanac/internal/queryir"
)

// Dialect selects placeholder and case-insensitive match syntax.
type Dialect int

const (
	// SQLite uses ? placeholders and LIKE, which is case-insensitive for
	// ASCII.
	SQLite Dialect = iota
	// Postgres uses $n placeholders and ILIKE.
	Postgres
)

// String returns the database/sql driver name for the dialect.
func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite3"
	case Postgres:
		return "postgres"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// ParseDialect maps a database/sql driver name to its dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite3", "sqlite":
		return SQLite, nil
	case "postgres", "postgresql", "pq":
		return Postgres, nil
	default:
		return SQLite, fmt.Errorf("unsupported SQL dialect %q", driver)
	}
}

// likeEscape is the LIKE escape character used by every compiled pattern.
const likeEscape = `\`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Compile converts a Select to parameterized SQL for the dialect.
// Returns (sql, params, error).
//
// MANDATORY: every query includes ORDER BY with a deterministic collation.
// MANDATORY: values are parameterized, never interpolated. Only column
// and table names, which come from a validated Mapping, appear in the SQL
// text.
func Compile(sel queryir.Select, d Dialect) (string, []any, error) {
	if err := queryir.Validate(sel).Err(); err != nil {
		return "", nil, err
	}
	if d != SQLite && d != Postgres {
		return "", nil, fmt.Errorf("unsupported dialect: %s", d)
	}

	c := &compiler{dialect: d}
	var b strings.Builder

	b.WriteString("SELECT ")
	if sel.Distinct {
		b.WriteString("DISTINCT ")
	}
	b.WriteString(strings.Join(sel.Columns, ", "))
	b.WriteString(" FROM ")
	c.writeSources(&b, sel.From, sel.Joins)

	if sel.Filter != nil {
		b.WriteString(" WHERE ")
		b.WriteString(c.predicate(sel.Filter, false))
	}

	b.WriteString(" ORDER BY ")
	b.WriteString(c.orderBy(sel))

	if sel.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(sel.Limit))
	}

	return b.String(), c.params, nil
}

type compiler struct {
	dialect Dialect
	params  []any
}

// bind appends a parameter and returns its placeholder.
func (c *compiler) bind(v any) string {
	c.params = append(c.params, v)
	if c.dialect == Postgres {
		return "$" + strconv.Itoa(len(c.params))
	}
	return "?"
}

func (c *compiler) writeSources(b *strings.Builder, from queryir.Table, joins []queryir.Join) {
	writeTable(b, from)
	for _, j := range joins {
		b.WriteString(" INNER JOIN ")
		writeTable(b, j.Table)
		b.WriteString(" ON ")
		b.WriteString(c.predicate(j.On, false))
	}
}

func writeTable(b *strings.Builder, t queryir.Table) {
	b.WriteString(t.Name)
	if t.Alias != "" {
		b.WriteString(" ")
		b.WriteString(t.Alias)
	}
}

// orderBy returns the ORDER BY list.
// COLLATE BINARY makes SQLite text ordering independent of locale.
func (c *compiler) orderBy(sel queryir.Select) string {
	keys := sel.OrderBy
	if len(keys) == 0 {
		keys = []string{sel.From.Ref() + ".id"}
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		if c.dialect == SQLite {
			parts[i] = k + " COLLATE BINARY ASC"
		} else {
			parts[i] = k + " ASC"
		}
	}
	return strings.Join(parts, ", ")
}

// predicate compiles p. nested is true when p is an operand of another
// boolean operator and needs its own parentheses.
func (c *compiler) predicate(p queryir.Predicate, nested bool) string {
	switch pred := p.(type) {
	case queryir.Equals:
		return pred.Column + " = " + c.bind(valueParam(pred.Value))

	case queryir.ColumnEquals:
		return pred.Left + " = " + pred.Right

	case queryir.Like:
		pattern := EscapeLike(pred.Text)
		if pred.Mode == queryir.MatchContains {
			pattern = "%" + pattern + "%"
		}
		op := "LIKE"
		if c.dialect == Postgres {
			op = "ILIKE"
		}
		return fmt.Sprintf("%s %s %s ESCAPE '%s'", pred.Column, op, c.bind(pattern), likeEscape)

	case queryir.And:
		return c.operands(pred.Predicates, " AND ", nested)

	case queryir.Or:
		return c.operands(pred.Predicates, " OR ", nested)

	case queryir.Exists:
		var b strings.Builder
		b.WriteString("EXISTS (SELECT 1 FROM ")
		c.writeSources(&b, pred.From, pred.Joins)
		b.WriteString(" WHERE ")
		b.WriteString(c.predicate(pred.Filter, false))
		b.WriteString(")")
		return b.String()

	default:
		// Validate rejects every other type before compilation starts.
		panic(fmt.Sprintf("querysql: unsupported predicate type %T", p))
	}
}

func (c *compiler) operands(preds []queryir.Predicate, sep string, nested bool) string {
	if len(preds) == 1 {
		return c.predicate(preds[0], nested)
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = c.predicate(p, true)
	}
	joined := strings.Join(parts, sep)
	if nested {
		return "(" + joined + ")"
	}
	return joined
}

// valueParam converts a literal to a database/sql parameter.
func valueParam(v queryir.Value) any {
	switch val := v.(type) {
	case queryir.Text:
		return string(val)
	case queryir.Bool:
		return bool(val)
	default:
		panic(fmt.Sprintf("querysql: unsupported value type %T", v))
	}
}
