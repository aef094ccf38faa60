package textutil

import (
	"math"
	"testing"
)

func TestCosineSimilarityNil(t *testing.T) {
	tests := []struct {
		name string
		a    *Fingerprint
		b    *Fingerprint
	}{
		{"both nil", nil, nil},
		{"a nil", nil, NewFingerprint("hello")},
		{"b nil", NewFingerprint("hello"), nil},
		{"no letters", NewFingerprint("--- !!"), NewFingerprint("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); got != 0 {
				t.Errorf("CosineSimilarity() = %v, want 0", got)
			}
		})
	}
}

func TestCosineSimilarityIgnoresCaseAndPunctuation(t *testing.T) {
	a := NewFingerprint("New York")
	b := NewFingerprint("new-york!")

	got := CosineSimilarity(a, b)
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("CosineSimilarity(equivalent) = %v, want 1", got)
	}
}

func TestCosineSimilarityOrdersNearMisses(t *testing.T) {
	base := NewFingerprint("Netherlands")
	typo := NewFingerprint("Netherland")
	other := NewFingerprint("Belgium")

	near := CosineSimilarity(base, typo)
	far := CosineSimilarity(base, other)
	if near <= far {
		t.Errorf("expected typo (%v) to score above unrelated value (%v)", near, far)
	}
	if far != 0 {
		t.Errorf("CosineSimilarity(unrelated) = %v, want 0", far)
	}
}

func TestTrigramsPadShortValues(t *testing.T) {
	got := Trigrams("NL")
	want := []string{" nl", "nl "}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Trigrams(NL) = %q, want %q", got, want)
	}
}

func TestCorpusIDF(t *testing.T) {
	corpus := NewCorpus()
	corpus.Add(NewFingerprint("abc"))
	corpus.Add(NewFingerprint("abd"))
	idf := corpus.IDF()

	if idf[" ab"] >= idf["bc "] {
		t.Errorf("shared trigram weight %v should be below rare trigram weight %v", idf[" ab"], idf["bc "])
	}
	if NewCorpus().IDF() != nil {
		t.Error("empty corpus should have no weights")
	}
}

func TestSuggesterClosest(t *testing.T) {
	s := NewSuggester([]string{"Netherlands", "Belgium", "Germany", "Belgium"}, 0)
	if s.Len() != 3 {
		t.Fatalf("expected 3 candidates, got %d", s.Len())
	}

	value, score, ok := s.Closest("the netherland")
	if !ok || value != "Netherlands" {
		t.Fatalf("Closest = %q (%v, ok=%v), want Netherlands", value, score, ok)
	}

	if value, _, ok := s.Closest("xyz"); ok {
		t.Fatalf("expected no suggestion, got %q", value)
	}
	if _, _, ok := NewSuggester(nil, 0).Closest("anything"); ok {
		t.Fatal("empty suggester should not suggest")
	}
}
