// Package pipeline streams lines from source files through four concurrent
// stages and writes the canonical values back out in input order.
//
// Reader turns sources into sequenced Records and sends them in batches on a
// bounded channel. Converter looks each record up in the vocabulary store;
// misses are parked in a waiting set and their keys queued once for the
// Prompter, which asks the operator and records the answer in the store. The
// store's change signal wakes the Converter, which releases every parked
// record whose key now resolves. Writer reorders records per destination by
// sequence before emitting them.
//
// Stage completion is signalled by closing the channel or queue a stage
// owns. Pipeline.Run supervises the stages with an errgroup, so the first
// failure cancels the rest.
package pipeline
