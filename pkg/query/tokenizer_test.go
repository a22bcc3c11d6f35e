package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_KeepsArrivalOrder(t *testing.T) {
	tokens := Tokenize("name=ana&age=30||eq")

	assert.Equal(t, Tokens{
		{Name: "name", Value: "ana"},
		{Name: "age", Value: "30||eq"},
	}, tokens)
}

func TestTokenize_DecodesBeforeSplitting(t *testing.T) {
	tokens := Tokenize("name%3Dana%7C%7Ccontains&pageSize=5")

	assert.Equal(t, Tokens{
		{Name: "name", Value: "ana||contains"},
		{Name: "pageSize", Value: "5"},
	}, tokens)
}

func TestTokenize_DropsMalformedSegments(t *testing.T) {
	tokens := Tokenize("foo&=bar&bad-key=2&ok=1&")

	assert.Equal(t, Tokens{{Name: "ok", Value: "1"}}, tokens)
}

func TestTokenize_DuplicateOverwritesInPlace(t *testing.T) {
	tokens := Tokenize("a=1&b=2&a=3")

	assert.Equal(t, Tokens{
		{Name: "a", Value: "3"},
		{Name: "b", Value: "2"},
	}, tokens)
}

func TestTokenize_InvalidEscapeOnlyAffectsItsSegment(t *testing.T) {
	tokens := Tokenize("note=50%&name=Ana%20Acme||eq&a=%zz&b=%2")

	assert.Equal(t, Tokens{
		{Name: "note", Value: "50%"},
		{Name: "name", Value: "Ana Acme||eq"},
		{Name: "a", Value: "%zz"},
		{Name: "b", Value: "%2"},
	}, tokens)
}

func TestTokenize_PlusIsSpace(t *testing.T) {
	assert.Equal(t, Tokens{{Name: "name", Value: "Ana Acme"}}, Tokenize("name=Ana+Acme"))
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
}

func TestTokens_LookupIsCaseInsensitiveLastWins(t *testing.T) {
	tokens := Tokenize("PageSize=5&pagesize=7")

	v, ok := tokens.Lookup("pageSize")
	assert.True(t, ok)
	assert.Equal(t, "7", v)

	_, ok = tokens.Lookup("sortBy")
	assert.False(t, ok)
}
