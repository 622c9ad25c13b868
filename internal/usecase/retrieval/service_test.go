package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/roosthq/roost/internal/corpus"
	"github.com/roosthq/roost/internal/domain"
	"github.com/roosthq/roost/internal/index/embedding"
)

type stubSearcher struct {
	matches  []embedding.Match
	embedErr error
	lastK    int
}

func (s *stubSearcher) EmbedQuery(context.Context, string) ([]float32, error) {
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return []float32{1}, nil
}

func (s *stubSearcher) TopK(_ []float32, k int, allow func(id string) bool) []embedding.Match {
	s.lastK = k
	out := make([]embedding.Match, 0, len(s.matches))
	for _, m := range s.matches {
		if allow != nil && !allow(m.ID) {
			continue
		}
		out = append(out, m)
		if len(out) == k {
			break
		}
	}
	return out
}

func testCorpus() *corpus.Corpus {
	return corpus.NewForTest([]domain.Listing{
		{ID: "l1", Neighbourhood: "Salamanca", TextBlob: "bright loft. Salamanca"},
		{ID: "l2", Neighbourhood: "Centro", TextBlob: "studio by the plaza. Centro"},
		{ID: "l3", Neighbourhood: "Salamanca", TextBlob: "family flat. Salamanca"},
	})
}

func TestRetrieve(t *testing.T) {
	searcher := &stubSearcher{matches: []embedding.Match{
		{ID: "l2", Similarity: 0.9},
		{ID: "l1", Similarity: 0.7},
	}}
	svc := New(testCorpus(), searcher, 10)

	chunks, err := svc.Retrieve(context.Background(), "somewhere central", 5, "")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].ListingID != "l2" || chunks[0].Similarity != 0.9 {
		t.Errorf("first chunk = %+v, want l2 at 0.9", chunks[0])
	}
	if chunks[0].Text != "studio by the plaza. Centro" {
		t.Errorf("chunk text = %q", chunks[0].Text)
	}
	if searcher.lastK != 5 {
		t.Errorf("k = %d, want 5", searcher.lastK)
	}
}

func TestRetrieveNeighbourhoodRestriction(t *testing.T) {
	searcher := &stubSearcher{matches: []embedding.Match{
		{ID: "l2", Similarity: 0.9},
		{ID: "l1", Similarity: 0.7},
		{ID: "l3", Similarity: 0.5},
	}}
	svc := New(testCorpus(), searcher, 10)

	chunks, err := svc.Retrieve(context.Background(), "flat", 10, "Salamanca")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for _, c := range chunks {
		if c.ListingID == "l2" {
			t.Error("l2 is in Centro, restriction failed")
		}
	}
}

func TestRetrieveClampsK(t *testing.T) {
	searcher := &stubSearcher{}
	svc := New(testCorpus(), searcher, 3)

	for _, k := range []int{0, -1, 100} {
		if _, err := svc.Retrieve(context.Background(), "q", k, ""); err != nil {
			t.Fatalf("Retrieve() error = %v", err)
		}
		if searcher.lastK != 3 {
			t.Errorf("k=%d clamped to %d, want 3", k, searcher.lastK)
		}
	}
}

func TestRetrieveErrors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		svc := New(testCorpus(), &stubSearcher{}, 10)
		if _, err := svc.Retrieve(context.Background(), "  ", 5, ""); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("error = %v, want ErrEmptyQuery", err)
		}
	})

	t.Run("no semantic index", func(t *testing.T) {
		svc := New(testCorpus(), nil, 10)
		if _, err := svc.Retrieve(context.Background(), "q", 5, ""); !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			t.Errorf("error = %v, want ErrEmbeddingUnavailable", err)
		}
	})

	t.Run("embed failure", func(t *testing.T) {
		svc := New(testCorpus(), &stubSearcher{embedErr: domain.ErrEmbeddingUnavailable}, 10)
		if _, err := svc.Retrieve(context.Background(), "q", 5, ""); !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			t.Errorf("error = %v, want ErrEmbeddingUnavailable", err)
		}
	})
}
