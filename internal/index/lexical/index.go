// Package lexical implements a TF-IDF index over listing text blobs. It
// backs the keyword half of hybrid scoring: exact vocabulary overlap that
// embedding similarity can smooth over.
package lexical

import (
	"math"

	"github.com/roosthq/roost/internal/domain"
)

// Index holds L2-normalized sparse TF-IDF vectors per listing. It is built
// once at startup and read-only afterwards, so concurrent Score calls need
// no locking.
type Index struct {
	vectors map[string]map[string]float64 // listing id -> term -> weight
	idf     map[string]float64
	docs    int
}

// Build indexes the given listings by their text blobs.
func Build(listings []domain.Listing) *Index {
	idx := &Index{
		vectors: make(map[string]map[string]float64, len(listings)),
		idf:     make(map[string]float64),
		docs:    len(listings),
	}

	termFreqs := make([]map[string]float64, len(listings))
	df := make(map[string]int)
	for i, l := range listings {
		tf := make(map[string]float64)
		for _, term := range analyze(l.TextBlob) {
			tf[term]++
		}
		termFreqs[i] = tf
		for term := range tf {
			df[term]++
		}
	}

	// Smoothed idf keeps weights finite for terms present in every document.
	for term, n := range df {
		idx.idf[term] = math.Log(float64(1+idx.docs)/float64(1+n)) + 1
	}

	for i, l := range listings {
		vec := make(map[string]float64, len(termFreqs[i]))
		var norm float64
		for term, tf := range termFreqs[i] {
			w := tf * idx.idf[term]
			vec[term] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range vec {
				vec[term] /= norm
			}
		}
		idx.vectors[l.ID] = vec
	}
	return idx
}

// Score returns the cosine similarity between the query and each listed id,
// in [0,1]. Ids absent from the index and queries with no indexable terms
// score zero; scoring never fails.
func (idx *Index) Score(query string, ids []string) map[string]float64 {
	scores := make(map[string]float64, len(ids))
	for _, id := range ids {
		scores[id] = 0
	}

	qvec := idx.queryVector(query)
	if len(qvec) == 0 {
		return scores
	}

	for _, id := range ids {
		dvec, ok := idx.vectors[id]
		if !ok {
			continue
		}
		var dot float64
		for term, qw := range qvec {
			if dw, ok := dvec[term]; ok {
				dot += qw * dw
			}
		}
		// Both vectors are non-negative and unit length, so the dot
		// product already lands in [0,1]; clamp float drift only.
		scores[id] = math.Min(dot, 1)
	}
	return scores
}

func (idx *Index) queryVector(query string) map[string]float64 {
	tf := make(map[string]float64)
	for _, term := range analyze(query) {
		if _, known := idx.idf[term]; !known {
			continue
		}
		tf[term]++
	}
	if len(tf) == 0 {
		return nil
	}

	var norm float64
	for term := range tf {
		tf[term] *= idx.idf[term]
		norm += tf[term] * tf[term]
	}
	norm = math.Sqrt(norm)
	for term := range tf {
		tf[term] /= norm
	}
	return tf
}

// Terms reports the vocabulary size, used by startup logging.
func (idx *Index) Terms() int { return len(idx.idf) }
