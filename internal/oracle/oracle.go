// Package oracle defines the existence oracle the search interpreter
// consults, plus decorators that add memoization, request coalescing,
// caching and instrumentation around any implementation.
//
// An oracle answers one question: does any row in the backing collection
// of a category hold a value matching the candidate string. Matching is
// case-insensitive; whether it is exact or substring is the
// implementation's business (see querysql.Mapping).
//
// Oracles are read-only. Errors are returned, never swallowed: a search
// that silently miscategorizes evidence is worse than a failed search.
package oracle

import (
	"context"

	"github.com/vanallenlab/almanac/internal/category"
)

// Oracle answers existence questions against the knowledgebase.
type Oracle interface {
	// Exists reports whether candidate matches a value of the column
	// backing c. c must be searchable.
	Exists(ctx context.Context, c category.Category, candidate string) (bool, error)

	// ExistsAttributeName reports whether candidate matches an attribute
	// definition by internal name or by human-readable name.
	ExistsAttributeName(ctx context.Context, candidate string) (bool, error)
}
