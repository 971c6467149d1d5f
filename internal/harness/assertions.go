package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/interpret"
	"github.com/vanallenlab/almanac/internal/lexer"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("assertion %s failed: expected %s, actual %s", e.Type, e.Expected, e.Actual)
}

func (h *Harness) evaluate(ctx context.Context, a Assertion, q *interpret.Query, lookups int) error {
	switch a.Type {
	case AssertNoTokenLoss:
		return assertNoTokenLoss(q)
	case AssertIdempotentTagging:
		return h.assertIdempotentTagging(ctx, q)
	case AssertCaseInsensitive:
		return h.assertCaseInsensitive(ctx, q)
	case AssertMaxLookups:
		if lookups > a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("at most %d lookups", a.Count),
				Actual:   fmt.Sprintf("%d lookups", lookups),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertNoTokenLoss(q *interpret.Query) error {
	if n := q.AssignedTokens(); n != q.TokenCount {
		return &AssertionError{
			Type:     AssertNoTokenLoss,
			Expected: fmt.Sprintf("%d tokens assigned", q.TokenCount),
			Actual:   fmt.Sprintf("%d tokens assigned", n),
		}
	}
	return nil
}

// assertIdempotentTagging tags every phrase of q with its category and
// checks that interpreting the tagged string gives the same phrases.
func (h *Harness) assertIdempotentTagging(ctx context.Context, q *interpret.Query) error {
	tagged := Retag(q)
	again, err := h.interpreter.Interpret(ctx, tagged)
	if err != nil {
		return err
	}
	if !sameCategories(q, again, nil) {
		return &AssertionError{
			Type:     AssertIdempotentTagging,
			Expected: fmt.Sprintf("%v", q.MarshalMap()),
			Actual:   fmt.Sprintf("%v from %q", again.MarshalMap(), tagged),
		}
	}
	return nil
}

func (h *Harness) assertCaseInsensitive(ctx context.Context, q *interpret.Query) error {
	upper, err := h.interpreter.Interpret(ctx, strings.ToUpper(q.Raw))
	if err != nil {
		return err
	}
	if !sameCategories(q, upper, strings.ToUpper) {
		return &AssertionError{
			Type:     AssertCaseInsensitive,
			Expected: fmt.Sprintf("%v", q.MarshalMap()),
			Actual:   fmt.Sprintf("%v", upper.MarshalMap()),
		}
	}
	return nil
}

// sameCategories compares the phrase lists of a and b after applying fold
// to each phrase of a.
func sameCategories(a, b *interpret.Query, fold func(string) string) bool {
	for _, c := range category.All {
		want := slices.Clone(a.Phrases(c))
		if fold != nil {
			for i, p := range want {
				want[i] = fold(p)
			}
		}
		if !slices.Equal(want, b.Phrases(c)) {
			return false
		}
	}
	return true
}

// Retag renders q as a fully tagged search string. Every entry becomes one
// quoted token carrying its category; unknown entries are tagged
// "[unknown]", which no category accepts, so they stay unknown.
func Retag(q *interpret.Query) string {
	parts := make([]string, 0, len(q.Entries))
	for _, e := range q.Entries {
		var text string
		if len(e.Tokens) == 1 && e.Tokens[0].Attr != nil {
			text = renderAttr(*e.Tokens[0].Attr)
		} else {
			text = quote(e.Phrase)
		}
		parts = append(parts, text+"["+e.Category.String()+"]")
	}
	return strings.Join(parts, " ")
}

func renderAttr(p lexer.Pair) string {
	return quote(p.Name) + ":" + quote(p.Value)
}

// quote wraps s in double quotes, or single quotes when s holds a double
// quote.
func quote(s string) string {
	if strings.Contains(s, `"`) {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}
