package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_PunctuationStripped(t *testing.T) {
	// Given: the same word with and without punctuation
	// When: both are tokenized
	// Then: they produce the identical single-token list
	assert.Equal(t, []string{"london"}, Tokenize("London?"))
	assert.Equal(t, []string{"london"}, Tokenize("london"))
}

func TestTokenize_Lowercases(t *testing.T) {
	assert.Equal(t, []string{"layla", "kawaguchi"}, Tokenize("Layla KAWAGUCHI"))
}

func TestTokenize_MixedPunctuation(t *testing.T) {
	// Given: text with apostrophes, commas, and emoji-adjacent symbols
	tokens := Tokenize("We're going to Paris, France! (next month)")

	// Then: every token is pure [a-z0-9_], apostrophes split words
	assert.Equal(t, []string{"we", "re", "going", "to", "paris", "france", "next", "month"}, tokens)
}

func TestTokenize_KeepsUnderscoresAndDigits(t *testing.T) {
	assert.Equal(t, []string{"user_42", "said", "100"}, Tokenize("user_42 said: 100%"))
}

func TestTokenize_EmptyAndWhitespaceOnly(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("   \t\n"))
	assert.Empty(t, Tokenize("?!..."))
}
