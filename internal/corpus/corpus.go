package corpus

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/roosthq/roost/internal/domain"
)

// Corpus is the immutable in-memory listing catalog. Built once at startup
// (or explicit refresh); every downstream component reads it, none mutate it.
type Corpus struct {
	listings    []domain.Listing
	byID        map[string]int
	fingerprint string
}

func newCorpus(listings []domain.Listing) *Corpus {
	byID := make(map[string]int, len(listings))
	for i := range listings {
		byID[listings[i].ID] = i
	}
	return &Corpus{
		listings:    listings,
		byID:        byID,
		fingerprint: computeFingerprint(listings),
	}
}

// All returns the listings in load order. Callers must not modify the slice.
func (c *Corpus) All() []domain.Listing {
	return c.listings
}

// Get returns a listing by id.
func (c *Corpus) Get(id string) (domain.Listing, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Listing{}, false
	}
	return c.listings[i], true
}

// Len returns the corpus size.
func (c *Corpus) Len() int {
	return len(c.listings)
}

// Fingerprint identifies this corpus content. The embedding cache is keyed by
// it: any change to size, ids, or text blobs produces a different value.
func (c *Corpus) Fingerprint() string {
	return c.fingerprint
}

func computeFingerprint(listings []domain.Listing) string {
	h := sha256.New()

	var sizeBuf [8]byte
	binary.LittleEndian.PutUint64(sizeBuf[:], uint64(len(listings)))
	h.Write(sizeBuf[:])

	for i := range listings {
		h.Write([]byte(listings[i].ID))
		h.Write([]byte{0})
		h.Write([]byte(listings[i].TextBlob))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
