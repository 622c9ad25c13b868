package query

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roosthq/roost/internal/domain"
	"github.com/roosthq/roost/internal/text"
)

// Vocab holds the neighbourhood gazetteer and the canonical amenity
// vocabulary. Both are data, loaded once at startup; matching is plain
// token containment, no code changes needed to extend either list.
type Vocab struct {
	neighbourhoods []vocabTerm
	amenities      []vocabTerm

	// normalized synonym phrase -> canonical, for exact canonicalization
	// of corpus field values.
	neighbourhoodLookup map[string]string
	amenityLookup       map[string]string
}

type vocabTerm struct {
	canonical string
	phrases   []string // normalized, includes the canonical itself
}

type vocabFile struct {
	Neighbourhoods []vocabFileEntry `yaml:"neighbourhoods"`
	Amenities      []vocabFileEntry `yaml:"amenities"`
}

type vocabFileEntry struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
}

// LoadVocab reads the vocabulary YAML file.
func LoadVocab(path string) (*Vocab, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read vocab file %s: %v: %w", path, err, domain.ErrVocabLoad)
	}

	var vf vocabFile
	if err := yaml.Unmarshal(data, &vf); err != nil {
		return nil, fmt.Errorf("parse vocab file %s: %v: %w", path, err, domain.ErrVocabLoad)
	}
	if len(vf.Neighbourhoods) == 0 {
		return nil, fmt.Errorf("vocab file %s has no neighbourhoods: %w", path, domain.ErrVocabLoad)
	}

	return NewVocab(vf.Neighbourhoods, vf.Amenities), nil
}

// NewVocab builds a vocabulary from entries. Exposed for tests and for
// callers that assemble vocabularies programmatically.
func NewVocab(neighbourhoods, amenities []vocabFileEntry) *Vocab {
	v := &Vocab{
		neighbourhoodLookup: make(map[string]string),
		amenityLookup:       make(map[string]string),
	}
	v.neighbourhoods = buildTerms(neighbourhoods, v.neighbourhoodLookup)
	v.amenities = buildTerms(amenities, v.amenityLookup)
	return v
}

func buildTerms(entries []vocabFileEntry, lookup map[string]string) []vocabTerm {
	terms := make([]vocabTerm, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		term := vocabTerm{canonical: e.Name}
		add := func(s string) {
			n := text.Normalize(s)
			if n == "" {
				return
			}
			term.phrases = append(term.phrases, n)
			if _, exists := lookup[n]; !exists {
				lookup[n] = e.Name
			}
		}
		add(e.Name)
		for _, syn := range e.Synonyms {
			add(syn)
		}
		terms = append(terms, term)
	}
	return terms
}

// MatchNeighbourhoods returns every canonical neighbourhood whose name or
// synonym occurs in the query text on token boundaries.
func (v *Vocab) MatchNeighbourhoods(queryText string) []string {
	return matchTerms(v.neighbourhoods, queryText)
}

// MatchAmenities returns every canonical amenity mentioned in the query text.
func (v *Vocab) MatchAmenities(queryText string) []string {
	return matchTerms(v.amenities, queryText)
}

func matchTerms(terms []vocabTerm, queryText string) []string {
	var out []string
	for _, t := range terms {
		for _, p := range t.phrases {
			if text.ContainsPhrase(queryText, p) {
				out = append(out, t.canonical)
				break
			}
		}
	}
	return out
}

// CanonicalAmenity maps a raw amenity value onto its canonical tag by exact
// normalized lookup. Used by the corpus adapter so listings and parsed
// queries share one tag space.
func (v *Vocab) CanonicalAmenity(raw string) (string, bool) {
	tag, ok := v.amenityLookup[text.Normalize(raw)]
	return tag, ok
}

// CanonicalNeighbourhood maps a raw neighbourhood value onto its canonical name.
func (v *Vocab) CanonicalNeighbourhood(raw string) (string, bool) {
	name, ok := v.neighbourhoodLookup[text.Normalize(raw)]
	return name, ok
}
