package query

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/roosthq/roost/internal/domain"
)

func TestLoadVocab(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.yaml")
	content := `neighbourhoods:
  - name: Salamanca
    synonyms: ["barrio de salamanca"]
  - name: Chamberí
amenities:
  - name: WiFi
    synonyms: ["wi-fi", "wireless internet"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v, err := LoadVocab(path)
	if err != nil {
		t.Fatalf("LoadVocab() error = %v", err)
	}

	if got := v.MatchNeighbourhoods("flat in barrio de salamanca"); len(got) != 1 || got[0] != "Salamanca" {
		t.Errorf("MatchNeighbourhoods = %v, want [Salamanca]", got)
	}
	if got, ok := v.CanonicalAmenity("WIRELESS  INTERNET"); !ok || got != "WiFi" {
		t.Errorf("CanonicalAmenity = %q, %v", got, ok)
	}
}

func TestLoadVocabErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadVocab(filepath.Join(dir, "absent.yaml"))
		if !errors.Is(err, domain.ErrVocabLoad) {
			t.Errorf("error = %v, want ErrVocabLoad", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("neighbourhoods: [unclosed"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadVocab(path); !errors.Is(err, domain.ErrVocabLoad) {
			t.Errorf("error = %v, want ErrVocabLoad", err)
		}
	})

	t.Run("empty gazetteer", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		if err := os.WriteFile(path, []byte("amenities: []\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadVocab(path); !errors.Is(err, domain.ErrVocabLoad) {
			t.Errorf("error = %v, want ErrVocabLoad", err)
		}
	})
}
