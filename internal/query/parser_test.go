package query

import (
	"reflect"
	"testing"
)

func testVocab(t *testing.T) *Vocab {
	t.Helper()
	return NewVocab(
		[]vocabFileEntry{
			{Name: "Salamanca", Synonyms: []string{"barrio de salamanca"}},
			{Name: "Chamberí"},
			{Name: "Lavapiés"},
			{Name: "Centro", Synonyms: []string{"city center", "city centre", "downtown"}},
		},
		[]vocabFileEntry{
			{Name: "WiFi", Synonyms: []string{"wi-fi", "wireless internet", "internet"}},
			{Name: "Pool", Synonyms: []string{"swimming pool"}},
			{Name: "Air conditioning", Synonyms: []string{"ac", "aircon", "a/c"}},
			{Name: "Kitchen"},
		},
	)
}

func intPtr(n int) *int { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestParse(t *testing.T) {
	p := NewParser(testVocab(t))

	tests := []struct {
		name           string
		raw            string
		guests         *int
		nights         *int
		priceMin       *float64
		priceMax       *float64
		neighbourhoods []string
		amenities      []string
	}{
		{
			name:           "guests neighbourhood amenity and price cap",
			raw:            "2 guests in Salamanca with WiFi under €100",
			guests:         intPtr(2),
			priceMax:       floatPtr(100),
			neighbourhoods: []string{"Salamanca"},
			amenities:      []string{"WiFi"},
		},
		{
			name:     "price range with between",
			raw:      "somewhere between 50 and 90 euros",
			priceMin: floatPtr(50),
			priceMax: floatPtr(90),
		},
		{
			name:     "inverted range is reordered",
			raw:      "from 120 to 80 per night",
			priceMin: floatPtr(80),
			priceMax: floatPtr(120),
		},
		{
			name:     "per night amount is a cap",
			raw:      "a flat around €75 per night",
			priceMax: floatPtr(75),
		},
		{
			name:     "minimum price bound",
			raw:      "nothing cheap, at least 60 euros",
			priceMin: floatPtr(60),
		},
		{
			name:     "bare currency amount is a cap",
			raw:      "cozy studio 85€",
			priceMax: floatPtr(85),
		},
		{
			name:     "budget phrasing",
			raw:      "budget of 110 dollars",
			priceMax: floatPtr(110),
		},
		{
			name:   "for N means guests",
			raw:    "a loft for 4",
			guests: intPtr(4),
		},
		{
			name:   "for N nights means stay length",
			raw:    "an apartment for 3 nights",
			nights: intPtr(3),
		},
		{
			name:   "guests and nights together",
			raw:    "5 nights for 2 people",
			guests: intPtr(2),
			nights: intPtr(5),
		},
		{
			name:           "accented neighbourhood without accents",
			raw:            "a quiet room in chamberi",
			neighbourhoods: []string{"Chamberí"},
		},
		{
			name:           "synonyms map to canonical tags",
			raw:            "downtown place with wi-fi and a swimming pool",
			neighbourhoods: []string{"Centro"},
			amenities:      []string{"Pool", "WiFi"},
		},
		{
			name: "token boundary blocks partial matches",
			raw:  "salamandra terrarium with poolside art",
		},
		{
			name: "no constraints",
			raw:  "bright and airy with lots of charm",
		},
		{
			name: "empty text",
			raw:  "   ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pq := p.Parse(tt.raw)

			if !eqIntPtr(pq.Guests, tt.guests) {
				t.Errorf("Guests = %v, want %v", fmtIntPtr(pq.Guests), fmtIntPtr(tt.guests))
			}
			if !eqIntPtr(pq.Nights, tt.nights) {
				t.Errorf("Nights = %v, want %v", fmtIntPtr(pq.Nights), fmtIntPtr(tt.nights))
			}
			if !eqFloatPtr(pq.PriceMin, tt.priceMin) {
				t.Errorf("PriceMin = %v, want %v", fmtFloatPtr(pq.PriceMin), fmtFloatPtr(tt.priceMin))
			}
			if !eqFloatPtr(pq.PriceMax, tt.priceMax) {
				t.Errorf("PriceMax = %v, want %v", fmtFloatPtr(pq.PriceMax), fmtFloatPtr(tt.priceMax))
			}
			if got := pq.SortedNeighbourhoods(); !sameStrings(got, tt.neighbourhoods) {
				t.Errorf("Neighbourhoods = %v, want %v", got, tt.neighbourhoods)
			}
			if got := pq.SortedAmenities(); !sameStrings(got, tt.amenities) {
				t.Errorf("Amenities = %v, want %v", got, tt.amenities)
			}
			if pq.RawText != tt.raw {
				t.Errorf("RawText = %q, want %q", pq.RawText, tt.raw)
			}
		})
	}
}

func TestParseNeverErrorsOnNoise(t *testing.T) {
	p := NewParser(testVocab(t))
	for _, raw := range []string{"", "€€€", "for for for", "999999999999 guests???", "under"} {
		pq := p.Parse(raw)
		if pq.Neighbourhoods == nil || pq.Amenities == nil {
			t.Errorf("Parse(%q) returned nil constraint sets", raw)
		}
	}
}

func TestVocabCanonicalLookups(t *testing.T) {
	v := testVocab(t)

	if got, ok := v.CanonicalAmenity("Wireless Internet"); !ok || got != "WiFi" {
		t.Errorf("CanonicalAmenity = %q, %v", got, ok)
	}
	if got, ok := v.CanonicalNeighbourhood("CHAMBERÍ"); !ok || got != "Chamberí" {
		t.Errorf("CanonicalNeighbourhood = %q, %v", got, ok)
	}
	if _, ok := v.CanonicalAmenity("hot tub"); ok {
		t.Error("CanonicalAmenity matched an unknown amenity")
	}
}

func eqIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func fmtIntPtr(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func fmtFloatPtr(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func sameStrings(got, want []string) bool {
	if len(got) == 0 && len(want) == 0 {
		return true
	}
	return reflect.DeepEqual(got, want)
}
