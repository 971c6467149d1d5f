package interpret

import (
	"strconv"
	"strings"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/lexer"
)

// Entry is one categorized phrase together with the tokens it came from.
type Entry struct {
	Category category.Category
	// Phrase is the text to filter on. Attribute entries keep the
	// "Name:Value" form.
	Phrase string
	Tokens []lexer.Token
}

// Query is the categorized result of interpreting one search string.
type Query struct {
	// Raw is the input as given.
	Raw string

	// Categories maps every category, Unknown included, to its phrases in
	// order of discovery. Categories with no phrases map to an empty,
	// non-nil slice.
	Categories map[category.Category][]string

	// Entries lists every assignment in order of discovery.
	Entries []Entry

	// TokenCount is the number of tokens the lexer produced.
	TokenCount int
}

func newQuery(raw string, tokenCount int) *Query {
	q := &Query{
		Raw:        raw,
		Categories: make(map[category.Category][]string, len(category.All)),
		Entries:    []Entry{},
		TokenCount: tokenCount,
	}
	for _, c := range category.All {
		q.Categories[c] = []string{}
	}
	return q
}

func (q *Query) add(c category.Category, toks ...lexer.Token) {
	phrase := lexer.Join(toks)
	q.Categories[c] = append(q.Categories[c], phrase)
	q.Entries = append(q.Entries, Entry{Category: c, Phrase: phrase, Tokens: toks})
}

// unknown assigns each token to Unknown on its own.
func (q *Query) unknown(toks []lexer.Token) {
	for _, t := range toks {
		q.add(category.Unknown, t)
	}
}

// Phrases returns the phrases assigned to c.
func (q *Query) Phrases(c category.Category) []string {
	return q.Categories[c]
}

// Empty reports whether no searchable or attribute phrase was found.
// Unknown phrases do not count: an all-unknown query matches nothing.
func (q *Query) Empty() bool {
	for c, phrases := range q.Categories {
		if c != category.Unknown && len(phrases) > 0 {
			return false
		}
	}
	return true
}

// AssignedTokens returns how many tokens the entries account for. It
// always equals TokenCount.
func (q *Query) AssignedTokens() int {
	n := 0
	for _, e := range q.Entries {
		n += len(e.Tokens)
	}
	return n
}

// String renders one line per category in a fixed order, for logs and
// golden files.
func (q *Query) String() string {
	var b strings.Builder
	for _, c := range category.All {
		phrases := q.Categories[c]
		quoted := make([]string, len(phrases))
		for i, p := range phrases {
			quoted[i] = strconv.Quote(p)
		}
		b.WriteString(c.String())
		b.WriteString(": [")
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString("]\n")
	}
	return b.String()
}

// MarshalMap returns the query as a category-name keyed map, the shape the
// HTTP and CLI layers emit.
func (q *Query) MarshalMap() map[string][]string {
	out := make(map[string][]string, len(q.Categories))
	for c, phrases := range q.Categories {
		out[c.String()] = phrases
	}
	return out
}

// Structured builds a query from lists that were categorized by the
// caller, such as per-category URL parameters. Blank values are dropped.
// The query has no tokens.
func Structured(raw string, lists map[category.Category][]string) *Query {
	q := newQuery(raw, 0)
	for _, c := range category.All {
		for _, v := range lists[c] {
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			q.Categories[c] = append(q.Categories[c], v)
			q.Entries = append(q.Entries, Entry{Category: c, Phrase: v, Tokens: []lexer.Token{}})
		}
	}
	return q
}
