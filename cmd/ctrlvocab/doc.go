// Package main hosts the ctrlvocab CLI entrypoint and command graph.
//
// The Cobra-based command tree wires configuration, logging, mapping
// snapshots and the operator prompt into a pipeline run, and offers small
// utilities to inspect or convert mapping snapshots and to scaffold the
// configuration file.
//
// Keep this package lean: behaviour belongs in the internal packages, and
// commands here only translate flags into their options.
package main
