package retrieval

import "unicode/utf8"

// EstimateTokens approximates the model tokenizer as ceil(len/4) over
// bytes. All budget math in this package uses this estimate.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// clipRunes truncates s to at most max bytes without splitting a rune.
func clipRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
