// Package vocab holds the controlled vocabulary for a run: the mapping from
// normalized key to canonical value, and the rules that turn a raw value into
// its key.
//
// The Store is the only state shared between the converter and the prompter.
// It only grows: SetIfAbsent records an operator answer, Merge adds keys that are not
// yet known and never overwrites. Every mutation bumps Version and signals
// Changed so the converter can re-check the records it is holding back.
package vocab
