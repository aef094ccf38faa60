// Package logging assembles structured slog loggers and formatting helpers used
// across ctrlvocab.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log lines
// with the run correlation ID. Logs always go to stderr (plus an optional log
// file) because stdout carries console-mode results.
//
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
