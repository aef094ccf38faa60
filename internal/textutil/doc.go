// Package textutil scores how alike two short strings are.
//
// Values are reduced to character trigram fingerprints: the text is
// lowercased, every run of non-alphanumeric characters becomes one space,
// and the result is padded with a space on both sides before trigrams are
// counted. Fingerprints are compared with cosine similarity, optionally with
// inverse document frequency weights gathered from a Corpus so trigrams
// shared by most candidates count for less.
//
// The main consumer is Suggester, which finds the known canonical value
// closest to a value the operator is about to be asked about.
package textutil
