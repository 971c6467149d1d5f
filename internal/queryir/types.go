package queryir

// Predicate represents a filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode()
}

// Value is a literal compared with Equals.
//
// This is a sealed interface. Search filters only ever compare text and
// booleans.
type Value interface {
	valueNode()
}

// Text is a string literal.
type Text string

func (Text) valueNode() {}

// Bool is a boolean literal.
type Bool bool

func (Bool) valueNode() {}

// Table names a table and the alias it is referred to by. Columns in
// predicates are qualified with the alias ("fd.readable_name").
type Table struct {
	Name  string
	Alias string
}

// Ref returns the name predicates should qualify columns with.
func (t Table) Ref() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// Join is an inner join.
//
// Semantics:
//
//	INNER JOIN <table> <alias> ON <on>
type Join struct {
	Table Table
	On    Predicate
}

// Select is a filtered read.
//
// Semantics:
//
//	SELECT [DISTINCT] <columns> FROM <from> <joins> WHERE <filter>
//	ORDER BY <order by> [LIMIT <limit>]
//
// Example:
//
//	Select{
//	  From:    Table{Name: "features", Alias: "f"},
//	  Joins:   []Join{{Table: Table{Name: "assertions", Alias: "a"},
//	                   On: ColumnEquals{Left: "a.id", Right: "f.assertion_id"}}},
//	  Columns: []string{"a.id", "f.id"},
//	  Filter:  And{Predicates: []Predicate{
//	    Equals{Column: "a.validated", Value: Bool(true)},
//	    Like{Column: "a.disease", Text: "Melanoma"},
//	  }},
//	}
//
// Translates to SQL (SQLite):
//
//	SELECT a.id, f.id FROM features f
//	INNER JOIN assertions a ON a.id = f.assertion_id
//	WHERE a.validated = ? AND a.disease LIKE ? ESCAPE '\'
//	ORDER BY f.id COLLATE BINARY ASC
type Select struct {
	Distinct bool
	Columns  []string // explicit column list; never "*"
	From     Table
	Joins    []Join
	Filter   Predicate // nil = no filter
	OrderBy  []string  // empty = <from>.id
	Limit    int       // 0 = no limit
}

// Equals compares a column with a literal.
//
// Semantics:
//
//	<column> = <value>
type Equals struct {
	Column string
	Value  Value
}

func (Equals) predicateNode() {}

// ColumnEquals compares two columns. It expresses join conditions and
// correlates Exists subqueries with the outer row.
//
// Semantics:
//
//	<left> = <right>
type ColumnEquals struct {
	Left  string
	Right string
}

func (ColumnEquals) predicateNode() {}

// MatchMode selects how Like compares text.
type MatchMode int

const (
	// MatchExact matches the whole column value, ignoring case.
	MatchExact MatchMode = iota
	// MatchContains matches anywhere inside the column value, ignoring
	// case.
	MatchContains
)

// String returns the config spelling of the mode.
func (m MatchMode) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchContains:
		return "contains"
	default:
		return "unknown"
	}
}

// Like is a case-insensitive text match.
//
// Semantics:
//
//	<column> LIKE <escaped text>          (MatchExact)
//	<column> LIKE '%' <escaped text> '%'  (MatchContains)
//
// Text is raw: backends escape '%', '_' and the escape character before
// adding their own wildcards.
type Like struct {
	Column string
	Text   string
	Mode   MatchMode
}

func (Like) predicateNode() {}

// And represents a conjunction (all must be true). An empty And is true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction (any must be true). An empty Or is false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Exists is a correlated existence subquery.
//
// Semantics:
//
//	EXISTS (SELECT 1 FROM <from> <joins> WHERE <filter>)
//
// The filter normally contains a ColumnEquals tying the subquery to the
// outer Select.
type Exists struct {
	From   Table
	Joins  []Join
	Filter Predicate
}

func (Exists) predicateNode() {}
