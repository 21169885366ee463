package retrieval

import (
	"strings"
	"unicode"
)

// stopWords are dropped from derived queries. The list is deliberately
// small; it removes glue words and the solver vocabulary that appears in
// almost every question.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "does": {}, "for": {},
	"how": {}, "in": {}, "is": {}, "of": {}, "on": {}, "or": {},
	"that": {}, "the": {}, "this": {}, "to": {}, "with": {},
	"system": {}, "solve": {}, "solves": {}, "solver": {}, "solution": {},
}

// warpFocus marks physics vocabulary. When any of these terms appear in a
// question, retrieval narrows to them so generic words cannot drown out
// the warp modules.
var warpFocus = map[string]struct{}{
	"warp": {}, "bubble": {}, "alcubierre": {}, "natario": {},
	"geometry": {}, "metric": {}, "sdf": {},
}

// NormalizeQuestion lowercases the question and collapses every
// non-alphanumeric run into a single space.
func NormalizeQuestion(question string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, question)
	return strings.Join(strings.Fields(mapped), " ")
}

// QueryTokens derives the search tokens for a question: normalized words
// minus stop words, de-duplicated in first-appearance order. If any token
// is warp-focused, only the warp-focused tokens are kept.
func QueryTokens(question string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	for _, word := range strings.Fields(NormalizeQuestion(question)) {
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		tokens = append(tokens, word)
	}

	if !hasWarpFocus(tokens) {
		return tokens
	}
	focused := tokens[:0]
	for _, tok := range tokens {
		if _, ok := warpFocus[tok]; ok {
			focused = append(focused, tok)
		}
	}
	return focused
}

// HasWarpFocus reports whether the question narrows to warp vocabulary.
func HasWarpFocus(question string) bool {
	return hasWarpFocus(QueryTokens(question))
}

// DeriveQueries expands a question into lattice search queries: the full
// token join first, then each token alone, then adjacent bigrams, capped
// at limit. Duplicates collapse in first-appearance order.
func DeriveQueries(question string, limit int) []string {
	tokens := QueryTokens(question)
	if len(tokens) == 0 || limit <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var queries []string
	add := func(q string) {
		if len(queries) >= limit || q == "" {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	add(strings.Join(tokens, " "))
	for _, tok := range tokens {
		add(tok)
	}
	for i := 0; i+1 < len(tokens); i++ {
		add(tokens[i] + " " + tokens[i+1])
	}
	return queries
}

func hasWarpFocus(tokens []string) bool {
	for _, tok := range tokens {
		if _, ok := warpFocus[tok]; ok {
			return true
		}
	}
	return false
}
