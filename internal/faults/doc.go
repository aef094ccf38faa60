// Package faults defines the error taxonomy shared by the pipeline stages and
// the CLI.
//
// Stage code wraps failures with Wrap and one of the exported markers so the
// command layer can decide how to report them (and which exit code to use)
// with errors.Is, without parsing messages. Nothing in ctrlvocab retries; a
// wrapped error is always terminal for the run.
package faults
