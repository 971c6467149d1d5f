package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vanallenlab/almanac/internal/category"
	"github.com/vanallenlab/almanac/internal/lexer"
)

func TestQuery_NewHasEveryCategory(t *testing.T) {
	q := newQuery("", 0)
	for _, c := range category.All {
		l, ok := q.Categories[c]
		assert.True(t, ok, c.String())
		assert.NotNil(t, l, c.String())
		assert.Empty(t, l, c.String())
	}
	assert.True(t, q.Empty())
}

func TestQuery_Empty(t *testing.T) {
	q := newQuery("zz", 1)
	q.unknown(lexer.Tokenize("zz"))
	assert.True(t, q.Empty(), "unknown phrases alone match nothing")

	q.add(category.Attribute, lexer.Tokenize("Gene:EGFR")...)
	assert.False(t, q.Empty())
}

func TestQuery_String(t *testing.T) {
	q := newQuery(`EGFR "a b" zz`, 3)
	toks := lexer.Tokenize(`EGFR "a b" zz`)
	q.add(category.Feature, toks[0])
	q.add(category.Disease, toks[1])
	q.unknown(toks[2:])

	want := "feature: [\"EGFR\"]\n" +
		"attribute: []\n" +
		"disease: [\"a b\"]\n" +
		"therapy: []\n" +
		"pred: []\n" +
		"unknown: [\"zz\"]\n"
	assert.Equal(t, want, q.String())
	assert.Equal(t, 3, q.AssignedTokens())
}

func TestQuery_MarshalMap(t *testing.T) {
	q := newQuery("EGFR", 1)
	q.add(category.Feature, lexer.Tokenize("EGFR")...)

	m := q.MarshalMap()
	assert.Len(t, m, len(category.All))
	assert.Equal(t, []string{"EGFR"}, m["feature"])
	assert.Equal(t, []string{}, m["unknown"])
}

func TestStructured(t *testing.T) {
	q := Structured("g=BRAF,EGFR&d=Melanoma", map[category.Category][]string{
		category.Attribute: {"gene:BRAF", "gene:EGFR"},
		category.Disease:   {" Melanoma ", ""},
	})

	assert.Equal(t, []string{"gene:BRAF", "gene:EGFR"}, q.Phrases(category.Attribute))
	assert.Equal(t, []string{"Melanoma"}, q.Phrases(category.Disease))
	assert.Equal(t, []string{}, q.Phrases(category.Therapy))
	assert.Len(t, q.Entries, 3)
	assert.Equal(t, q.TokenCount, q.AssignedTokens())
	assert.False(t, q.Empty())

	assert.True(t, Structured("", nil).Empty())
}
