package main

import (
	"strings"
	"unicode"
)

// normalizeAnswer canonicalizes free-text answers for comparison: punctuation
// and symbols are dropped, letters are lower-cased, and surrounding whitespace
// is trimmed. Choice answers are never normalized; they compare exactly.
func normalizeAnswer(s string) string {
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return strings.TrimSpace(b.String())
}
