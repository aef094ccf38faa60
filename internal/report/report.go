// Package report derives the run summary printed after a pipeline run.
package report

import (
	"sort"
)

// Share is the portion of emitted records carrying one canonical value.
type Share struct {
	Value   string
	Count   int
	Percent float64
}

// Percentages computes the share of every canonical value in counts over
// total, ordered by descending count, then value. Values with a zero count
// are left out. A zero total yields nil.
func Percentages(counts map[string]int, total int) []Share {
	if total <= 0 {
		return nil
	}
	shares := make([]Share, 0, len(counts))
	for value, count := range counts {
		if count <= 0 {
			continue
		}
		shares = append(shares, Share{
			Value:   value,
			Count:   count,
			Percent: float64(count) / float64(total) * 100,
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Value < shares[j].Value
	})
	return shares
}

// Entry is one key of the final mapping.
type Entry struct {
	Key   string
	Value string
	// Learned is set for keys answered during the run.
	Learned bool
}

// Mapping flattens a mapping into entries sorted by key. Keys listed in
// learned are flagged.
func Mapping(entries map[string]string, learned []string) []Entry {
	isLearned := make(map[string]bool, len(learned))
	for _, key := range learned {
		isLearned[key] = true
	}
	out := make([]Entry, 0, len(entries))
	for key, value := range entries {
		out = append(out, Entry{Key: key, Value: value, Learned: isLearned[key]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
