// Package config loads, normalizes, and validates ctrlvocab configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the CTRLVOCAB_LOG_LEVEL
// environment fallback. Command-line flags are applied on top of the loaded
// Config by the CLI, after which Validate is run again.
//
// Always obtain settings through this package so downstream code receives
// sanitized values and clear validation errors.
package config
