// Package store provides SQL storage for the evidence knowledgebase.
//
// The store holds feature definitions with their attribute definitions,
// assertions with the features and attribute values that make them up,
// and the literature sources behind each assertion. It serves three
// consumers:
//   - the search interpreter, through the oracle.Oracle methods Exists and
//     ExistsAttributeName
//   - the search endpoint, through Search, which compiles a categorized
//     query with querysql and returns display-ready rows
//   - the landing page and CLI, through Summary and the summary cache
//
// # Drivers
//
// SQLite (mattn/go-sqlite3) is the default. Open creates the schema,
// applies pragmas and runs migrations. PostgreSQL (lib/pq) is supported
// for reads against a knowledgebase whose schema is managed elsewhere;
// Open does not create tables there.
//
// # Deterministic Results
//
//   - All queries include ORDER BY on integer ids (and COLLATE BINARY for
//     text keys on SQLite)
//   - Search rows are ordered by assertion id, then feature id
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Category-to-column mapping is injected with WithMapping; the store
// never consults global state.
package store
