// Package snapshot imports and exports the vocabulary mapping.
//
// A snapshot is a flat key → canonical value object. The format follows the
// file extension: JSON (default), TOML, YAML, or an SQLite database that also
// records one audit row per export. Text formats are replaced atomically;
// SQLite exports run in a single transaction. Every load and save holds an
// advisory lock on "<path>.lock" so concurrent runs sharing one vocabulary
// file never observe a half-written snapshot.
package snapshot
