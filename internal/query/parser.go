package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/roosthq/roost/internal/domain"
	"github.com/roosthq/roost/internal/text"
)

// Parser extracts structured constraints from free-form rental queries.
// Extraction is best effort: text that matches nothing still produces a
// valid, unconstrained ParsedQuery and never an error.
type Parser struct {
	vocab *Vocab
}

func NewParser(vocab *Vocab) *Parser {
	return &Parser{vocab: vocab}
}

const currency = `(?:€|\$|eur|usd|euros?|dollars?)`

var (
	// Price patterns are tried in order; the first match wins for its bound
	// and the matched span is blanked so later patterns cannot re-read it.
	rePriceRange = regexp.MustCompile(`(?:between|from)\s*` + currency + `?\s*(\d+(?:\.\d+)?)\s*(?:and|to|-)\s*` + currency + `?\s*(\d+(?:\.\d+)?)`)
	rePriceMax   = regexp.MustCompile(`(?:under|below|up to|less than|max(?:imum)?|at most|cheaper than|no more than)\s*` + currency + `?\s*(\d+(?:\.\d+)?)`)
	rePriceMin   = regexp.MustCompile(`(?:over|above|at least|min(?:imum)?|more than)\s*` + currency + `?\s*(\d+(?:\.\d+)?)`)
	rePricePer   = regexp.MustCompile(currency + `?\s*(\d+(?:\.\d+)?)\s*(?:` + currency + `\s*)?(?:per night|a night|/night|nightly)`)
	rePriceBudg  = regexp.MustCompile(`budget(?:\s+of)?\s*` + currency + `?\s*(\d+(?:\.\d+)?)`)
	rePriceBare  = regexp.MustCompile(currency + `\s*(\d+(?:\.\d+)?)|(\d+(?:\.\d+)?)\s*` + currency)

	reGuestsWord = regexp.MustCompile(`(\d{1,3})\s*(?:guests?|people|persons?|adults?)`)
	// "for 4" means guests unless followed by "nights"; RE2 has no
	// lookahead, so the nights suffix is captured and checked instead.
	reGuestsFor = regexp.MustCompile(`\bfor\s+(\d{1,3})(\s+nights?)?\b`)

	reNights = regexp.MustCompile(`(\d{1,3})\s*nights?`)
)

// Parse analyzes raw query text and returns the extracted constraints.
func (p *Parser) Parse(raw string) domain.ParsedQuery {
	pq := domain.NewParsedQuery(raw)
	norm := text.Normalize(raw)
	if norm == "" {
		return pq
	}

	for _, n := range p.vocab.MatchNeighbourhoods(norm) {
		pq.Neighbourhoods[n] = struct{}{}
	}
	for _, a := range p.vocab.MatchAmenities(norm) {
		pq.Amenities[a] = struct{}{}
	}

	rest := extractPrice(norm, &pq)
	extractNights(rest, &pq)
	extractGuests(rest, &pq)

	return pq
}

// extractPrice fills price bounds and returns the text with the consumed
// spans blanked, so numeric guest and night extraction cannot mistake a
// price figure for a count.
func extractPrice(s string, pq *domain.ParsedQuery) string {
	if m := rePriceRange.FindStringSubmatchIndex(s); m != nil {
		lo := parseNumAt(s, m, 1)
		hi := parseNumAt(s, m, 2)
		if lo != nil && hi != nil {
			if *lo > *hi {
				lo, hi = hi, lo
			}
			pq.PriceMin, pq.PriceMax = lo, hi
			return blank(s, m[0], m[1])
		}
	}

	consumed := s
	if m := rePriceMax.FindStringSubmatchIndex(consumed); m != nil {
		if v := parseNumAt(consumed, m, 1); v != nil {
			pq.PriceMax = v
			consumed = blank(consumed, m[0], m[1])
		}
	}
	if m := rePriceMin.FindStringSubmatchIndex(consumed); m != nil {
		if v := parseNumAt(consumed, m, 1); v != nil {
			pq.PriceMin = v
			consumed = blank(consumed, m[0], m[1])
		}
	}
	if pq.PriceMax == nil {
		if m := rePricePer.FindStringSubmatchIndex(consumed); m != nil {
			if v := parseNumAt(consumed, m, 1); v != nil {
				pq.PriceMax = v
				consumed = blank(consumed, m[0], m[1])
			}
		}
	}
	if pq.PriceMax == nil {
		if m := rePriceBudg.FindStringSubmatchIndex(consumed); m != nil {
			if v := parseNumAt(consumed, m, 1); v != nil {
				pq.PriceMax = v
				consumed = blank(consumed, m[0], m[1])
			}
		}
	}
	if pq.PriceMax == nil && pq.PriceMin == nil {
		if m := rePriceBare.FindStringSubmatchIndex(consumed); m != nil {
			v := parseNumAt(consumed, m, 1)
			if v == nil {
				v = parseNumAt(consumed, m, 2)
			}
			if v != nil {
				pq.PriceMax = v
				consumed = blank(consumed, m[0], m[1])
			}
		}
	}
	return consumed
}

func extractNights(s string, pq *domain.ParsedQuery) {
	if m := reNights.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			pq.Nights = &n
		}
	}
}

// extractGuests takes the earliest guest mention, considering both
// "3 guests" style phrases and bare "for 3". A "for 3 nights" match is a
// stay length, not a party size, and is skipped.
func extractGuests(s string, pq *domain.ParsedQuery) {
	best := -1
	var bestVal int

	if m := reGuestsWord.FindStringSubmatchIndex(s); m != nil {
		if n, err := strconv.Atoi(s[m[2]:m[3]]); err == nil && n > 0 {
			best, bestVal = m[0], n
		}
	}
	for _, m := range reGuestsFor.FindAllStringSubmatchIndex(s, -1) {
		if m[4] != -1 { // nights suffix present
			continue
		}
		if best != -1 && m[0] >= best {
			continue
		}
		if n, err := strconv.Atoi(s[m[2]:m[3]]); err == nil && n > 0 {
			best, bestVal = m[0], n
		}
	}

	if best != -1 {
		pq.Guests = &bestVal
	}
}

func parseNumAt(s string, m []int, group int) *float64 {
	lo, hi := m[2*group], m[2*group+1]
	if lo == -1 {
		return nil
	}
	v, err := strconv.ParseFloat(s[lo:hi], 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func blank(s string, lo, hi int) string {
	return s[:lo] + strings.Repeat(" ", hi-lo) + s[hi:]
}
