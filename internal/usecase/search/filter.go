package search

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/roosthq/roost/internal/corpus"
	"github.com/roosthq/roost/internal/domain"
)

// Relaxation stage names, in drop order. Amenities go first: they are the
// softest constraint a guest states, a missing tag is often a data gap
// rather than a dealbreaker. Guests go last, capacity is physical.
const (
	stageAmenities      = "amenities"
	stageNeighbourhoods = "neighbourhoods"
	stageNights         = "nights"
	stagePrice          = "price"
	stageGuests         = "guests"
)

var relaxOrder = []string{stageAmenities, stageNeighbourhoods, stageNights, stagePrice, stageGuests}

// Filter selects candidate listings for a parsed query. Tag constraints run
// on prebuilt posting lists; numeric constraints scan the corpus per query.
// When the full constraint set leaves too few candidates, constraints are
// dropped stage by stage until at least minCandidates survive.
type Filter struct {
	corpus        *corpus.Corpus
	byNeighbour   map[string]*roaring.Bitmap
	byAmenity     map[string]*roaring.Bitmap
	all           *roaring.Bitmap
	minCandidates int
}

// NewFilter builds posting lists over the corpus.
func NewFilter(c *corpus.Corpus, minCandidates int) *Filter {
	f := &Filter{
		corpus:        c,
		byNeighbour:   make(map[string]*roaring.Bitmap),
		byAmenity:     make(map[string]*roaring.Bitmap),
		all:           roaring.New(),
		minCandidates: minCandidates,
	}

	for i, l := range c.All() {
		ord := uint32(i)
		f.all.Add(ord)
		if l.Neighbourhood != "" {
			f.postingList(f.byNeighbour, l.Neighbourhood).Add(ord)
		}
		for a := range l.Amenities {
			f.postingList(f.byAmenity, a).Add(ord)
		}
	}
	return f
}

func (f *Filter) postingList(m map[string]*roaring.Bitmap, key string) *roaring.Bitmap {
	bm, ok := m[key]
	if !ok {
		bm = roaring.New()
		m[key] = bm
	}
	return bm
}

// Apply returns candidate listing ids in corpus order, plus the names of the
// constraint stages that had to be dropped to reach the candidate floor.
func (f *Filter) Apply(pq domain.ParsedQuery) (ids []string, relaxed []string) {
	stages := f.buildStages(pq)
	if len(stages) == 0 {
		return f.toIDs(f.all), nil
	}

	active := make(map[string]*roaring.Bitmap, len(stages))
	for name, bm := range stages {
		active[name] = bm
	}

	best := f.intersect(active)
	for _, stage := range relaxOrder {
		if int(best.GetCardinality()) >= f.minCandidates {
			break
		}
		if _, present := active[stage]; !present {
			continue
		}
		delete(active, stage)
		relaxed = append(relaxed, stage)
		best = f.intersect(active)
	}
	return f.toIDs(best), relaxed
}

// buildStages materializes one bitmap per constraint stage present in the query.
func (f *Filter) buildStages(pq domain.ParsedQuery) map[string]*roaring.Bitmap {
	stages := make(map[string]*roaring.Bitmap)

	if len(pq.Amenities) > 0 {
		bm := f.all.Clone()
		for a := range pq.Amenities {
			if posting, ok := f.byAmenity[a]; ok {
				bm.And(posting)
			} else {
				bm.Clear()
			}
		}
		stages[stageAmenities] = bm
	}

	if len(pq.Neighbourhoods) > 0 {
		// Several requested neighbourhoods union: any of them qualifies.
		bm := roaring.New()
		for n := range pq.Neighbourhoods {
			if posting, ok := f.byNeighbour[n]; ok {
				bm.Or(posting)
			}
		}
		stages[stageNeighbourhoods] = bm
	}

	if pq.Nights != nil {
		stages[stageNights] = f.scan(func(l domain.Listing) bool {
			if l.MinNights > 0 && *pq.Nights < l.MinNights {
				return false
			}
			if l.MaxNights > 0 && *pq.Nights > l.MaxNights {
				return false
			}
			return true
		})
	}

	if pq.PriceMin != nil || pq.PriceMax != nil {
		stages[stagePrice] = f.scan(func(l domain.Listing) bool {
			if pq.PriceMin != nil && l.PricePerNight < *pq.PriceMin {
				return false
			}
			if pq.PriceMax != nil && l.PricePerNight > *pq.PriceMax {
				return false
			}
			return true
		})
	}

	if pq.Guests != nil {
		stages[stageGuests] = f.scan(func(l domain.Listing) bool {
			return l.GuestCapacity >= *pq.Guests
		})
	}

	return stages
}

func (f *Filter) scan(keep func(domain.Listing) bool) *roaring.Bitmap {
	bm := roaring.New()
	for i, l := range f.corpus.All() {
		if keep(l) {
			bm.Add(uint32(i))
		}
	}
	return bm
}

func (f *Filter) intersect(active map[string]*roaring.Bitmap) *roaring.Bitmap {
	out := f.all.Clone()
	for _, bm := range active {
		out.And(bm)
	}
	return out
}

func (f *Filter) toIDs(bm *roaring.Bitmap) []string {
	listings := f.corpus.All()
	ids := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, listings[it.Next()].ID)
	}
	return ids
}
