// Package lexical provides the sparse keyword index: exact
// tokenization, synonym query expansion, and BM25 scoring over the
// message corpus.
package lexical

import "strings"

// Tokenize lowercases the input, replaces every character outside
// [A-Za-z0-9_] with a space, and splits on whitespace. The rule is
// deliberately rigid so index-time and query-time token streams always
// agree: "London?" and "london" both yield ["london"].
func Tokenize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return ' '
	}, text)

	return strings.Fields(mapped)
}
