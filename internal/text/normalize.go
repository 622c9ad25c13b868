// Package text holds the shared normalization used by the corpus adapter,
// the query parser, and the lexical analyzer. All three must agree on what a
// "normalized" string looks like or gazetteer and index lookups drift apart.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// StripAccents removes combining marks: "Chamberí" -> "Chamberi".
func StripAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Normalize lowercases, strips accents, and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(StripAccents(s))
	return strings.Join(strings.Fields(s), " ")
}

// Tokens splits normalized text into alphanumeric tokens.
func Tokens(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ContainsPhrase reports whether the token-joined phrase occurs in the
// token-joined text on token boundaries. Both arguments must already be
// normalized; matching is containment, not equality, so "barrio de salamanca"
// matches a query mentioning "salamanca" only when the full phrase is present.
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	padded := " " + strings.Join(Tokens(text), " ") + " "
	needle := " " + strings.Join(Tokens(phrase), " ") + " "
	return strings.Contains(padded, needle)
}
