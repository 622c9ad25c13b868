package query

// NewVocabForTest returns a small fixed vocabulary; tests only.
func NewVocabForTest() *Vocab {
	return NewVocab(
		[]vocabFileEntry{
			{Name: "Salamanca", Synonyms: []string{"barrio de salamanca"}},
			{Name: "Chamberí"},
			{Name: "Centro", Synonyms: []string{"city center", "downtown"}},
		},
		[]vocabFileEntry{
			{Name: "WiFi", Synonyms: []string{"wi-fi", "wireless internet"}},
			{Name: "Pool", Synonyms: []string{"swimming pool"}},
			{Name: "Kitchen"},
		},
	)
}
