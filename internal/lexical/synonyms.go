package lexical

// queryExpansions maps common query terms to synonym tokens. Each
// entry includes the original term so expansion is a pure superset of
// the input token set.
var queryExpansions = map[string][]string{
	"trip":       {"trip", "travel", "journey", "visit", "stay"},
	"planning":   {"planning", "scheduled", "booking", "arranging", "organizing"},
	"when":       {"when", "date", "time", "schedule"},
	"favorite":   {"favorite", "preferred", "love", "like", "enjoy"},
	"restaurant": {"restaurant", "dining", "eatery", "cuisine"},
	"car":        {"car", "vehicle", "automobile", "transportation"},
	"have":       {"have", "own", "possess"},
}

// ExpandTokens appends synonyms for every token with a table entry and
// deduplicates the result. Output order follows first appearance, which
// BM25 scoring treats as a set anyway.
func ExpandTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	expanded := make([]string, 0, len(tokens))

	add := func(tok string) {
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		expanded = append(expanded, tok)
	}

	for _, tok := range tokens {
		add(tok)
		for _, syn := range queryExpansions[tok] {
			add(syn)
		}
	}

	return expanded
}
