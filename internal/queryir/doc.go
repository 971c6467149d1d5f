// Package queryir provides the filter intermediate representation (IR)
// that search queries are compiled through on their way to SQL.
//
// The IR is the boundary between a categorized query, which knows about
// features, diseases and attribute pairs, and a SQL dialect, which knows
// about placeholders, LIKE versus ILIKE and escaping. Nothing in this
// package knows either side.
//
//	[categorized query] → [Filter IR] → [SQLite SQL]
//	                                  → [PostgreSQL SQL]
//
// NODES:
//
// A query is a Select over one table plus inner joins. Its filter is a
// tree of predicates:
//   - Equals(column, literal)          column = literal
//   - ColumnEquals(left, right)        left = right (join and correlation)
//   - Like(column, text, mode)         case-insensitive exact or substring
//   - And / Or                         conjunction and disjunction
//   - Exists(table, joins, filter)     correlated existence subquery
//
// Literal text in Like is raw user text. Backends escape LIKE wildcards,
// so a search for "50%" never matches "500".
//
// SEALED INTERFACES:
//
// Predicate and Value are sealed with the marker method pattern. Only
// types in this package implement them, so backends can switch over them
// exhaustively:
//
//	switch p := pred.(type) {
//	case Equals:
//	case ColumnEquals:
//	case Like:
//	case And:
//	case Or:
//	case Exists:
//	}
//
// ORDERING:
//
// Every compiled Select carries an ORDER BY. When OrderBy is empty the
// backend orders by the primary table's id column, so result order never
// depends on the storage engine's scan order.
package queryir
