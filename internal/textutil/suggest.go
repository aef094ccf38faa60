package textutil

import "sort"

// DefaultMinScore is the similarity below which no suggestion is made.
const DefaultMinScore = 0.45

type candidate struct {
	value string
	raw   *Fingerprint
}

// Suggester finds the candidate most similar to a query.
type Suggester struct {
	candidates []candidate
	idf        map[string]float64
	minScore   float64
}

// NewSuggester indexes the distinct candidates. Candidates without letters
// or digits are ignored. A minScore <= 0 uses DefaultMinScore.
func NewSuggester(values []string, minScore float64) *Suggester {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	seen := make(map[string]struct{}, len(values))
	corpus := NewCorpus()
	s := &Suggester{minScore: minScore}
	for _, value := range values {
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		fp := NewFingerprint(value)
		if fp == nil {
			continue
		}
		corpus.Add(fp)
		s.candidates = append(s.candidates, candidate{value: value, raw: fp})
	}
	sort.Slice(s.candidates, func(i, j int) bool { return s.candidates[i].value < s.candidates[j].value })
	s.idf = corpus.IDF()
	return s
}

// Len reports the number of indexed candidates.
func (s *Suggester) Len() int {
	return len(s.candidates)
}

// Closest returns the best scoring candidate for query. Ties go to the
// candidate that sorts first. ok is false when nothing reaches the minimum
// score.
func (s *Suggester) Closest(query string) (value string, score float64, ok bool) {
	q := NewFingerprint(query).WithIDF(s.idf)
	if q == nil {
		return "", 0, false
	}
	for _, c := range s.candidates {
		sim := CosineSimilarity(q, c.raw.WithIDF(s.idf))
		if sim > score {
			value, score = c.value, sim
		}
	}
	if score < s.minScore {
		return "", score, false
	}
	return value, score, true
}
