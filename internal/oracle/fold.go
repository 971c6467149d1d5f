package oracle

import (
	"strings"

	"golang.org/x/text/cases"
)

// Folding is how an oracle compares text case-insensitively. The caching
// wrappers key answers with their inner oracle's folding so they never
// merge two candidates the oracle itself tells apart.
type Folding int

const (
	// FoldUnicode is full Unicode case folding, as Postgres ILIKE does.
	FoldUnicode Folding = iota
	// FoldASCII folds A-Z only, as SQLite LIKE does.
	FoldASCII
)

// Folder is implemented by oracles that declare their folding.
type Folder interface {
	Folding() Folding
}

// FoldingOf returns the folding o declares, or FoldUnicode.
func FoldingOf(o Oracle) Folding {
	if f, ok := o.(Folder); ok {
		return f.Folding()
	}
	return FoldUnicode
}

// Key folds s for use as a cache key.
func (f Folding) Key(s string) string {
	if f == FoldASCII {
		return strings.Map(func(r rune) rune {
			if 'A' <= r && r <= 'Z' {
				return r + ('a' - 'A')
			}
			return r
		}, s)
	}
	// A Caser is not safe for concurrent use.
	return cases.Fold().String(s)
}
