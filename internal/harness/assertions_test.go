package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/interpret"
)

func interpretWith(t *testing.T, kb Knowledgebase, query string) *interpret.Query {
	t.Helper()
	q, err := interpret.New(kb.Oracle()).Interpret(context.Background(), query)
	require.NoError(t, err)
	return q
}

func TestRetag(t *testing.T) {
	kb := Knowledgebase{
		Feature:        []string{"Somatic Variant"},
		Disease:        []string{"Melanoma"},
		AttributeNames: []string{"Protein Change"},
	}

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "free text",
			query: "melanoma somatic variant",
			want:  `"melanoma"[disease] "somatic variant"[feature]`,
		},
		{
			name:  "unknown words",
			query: "zzqq melanoma",
			want:  `"zzqq"[unknown] "melanoma"[disease]`,
		},
		{
			name:  "attribute with spaces",
			query: `"Protein Change":"p.V600E"`,
			want:  `"Protein Change":"p.V600E"[attribute]`,
		},
		{
			name:  "unknown attribute",
			query: "exon:15",
			want:  `"exon":"15"[unknown]`,
		},
		{
			name:  "phrase with a double quote",
			query: `'say "hi"'`,
			want:  `'say "hi"'[unknown]`,
		},
		{
			name:  "literal tag",
			query: "[disease]",
			want:  `"[disease]"[unknown]`,
		},
		{
			name:  "empty",
			query: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := interpretWith(t, kb, tt.query)
			assert.Equal(t, tt.want, Retag(q))

			again := interpretWith(t, kb, Retag(q))
			assert.True(t, sameCategories(q, again, nil), "retagged %q gave %v", Retag(q), again.MarshalMap())
		})
	}
}

func TestAssertNoTokenLoss(t *testing.T) {
	q := interpretWith(t, Knowledgebase{}, "a b c")
	require.NoError(t, assertNoTokenLoss(q))

	q.TokenCount = 4
	err := assertNoTokenLoss(q)
	require.Error(t, err)

	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, AssertNoTokenLoss, assertErr.Type)
	assert.Equal(t, "4 tokens assigned", assertErr.Expected)
	assert.Equal(t, "3 tokens assigned", assertErr.Actual)
}

func TestSameCategories(t *testing.T) {
	kb := Knowledgebase{Disease: []string{"Melanoma"}}
	lower := interpretWith(t, kb, "melanoma")
	upper := interpretWith(t, kb, "MELANOMA")

	assert.False(t, sameCategories(lower, upper, nil))
	assert.True(t, sameCategories(lower, upper, strings.ToUpper))
	assert.Equal(t, []string{"MELANOMA"}, upper.Phrases(category.Disease))
}

func TestAssertionError_Error(t *testing.T) {
	err := &AssertionError{Type: AssertMaxLookups, Expected: "at most 2 lookups", Actual: "5 lookups"}
	assert.Equal(t, "assertion max_lookups failed: expected at most 2 lookups, actual 5 lookups", err.Error())
}
