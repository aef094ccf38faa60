// Package prompt asks an operator for the canonical form of an unseen value.
//
// Prompter is the single abstraction the pipeline depends on. LinePrompter
// reads answers from a line-oriented stream such as stdin, TUIPrompter runs
// a small bubbletea form per question, ScriptedPrompter replays answers for
// batch runs and tests, and RecordingPrompter wraps another prompter and
// keeps every exchange.
package prompt
