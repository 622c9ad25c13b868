package lexical

import (
	snowballeng "github.com/kljensen/snowball/english"

	"github.com/roosthq/roost/internal/text"
)

const minTokenLength = 2

// analyze turns raw text into index terms: normalized tokens with stopwords
// and single characters removed, stemmed with the snowball English stemmer.
// Queries and documents must run through the same pipeline.
func analyze(s string) []string {
	tokens := text.Tokens(s)
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) < minTokenLength {
			continue
		}
		if _, stop := stopwords[tok]; stop {
			continue
		}
		terms = append(terms, snowballeng.Stem(tok, false))
	}
	return terms
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "he": {}, "her": {}, "his": {}, "i": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "my": {}, "near": {}, "of": {},
	"on": {}, "or": {}, "our": {}, "she": {}, "that": {}, "the": {},
	"their": {}, "this": {}, "to": {}, "was": {}, "we": {}, "were": {},
	"will": {}, "with": {}, "you": {}, "your": {},
}
