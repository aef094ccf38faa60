package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInputClosed reports that the operator input ended before an answer
// was given.
var ErrInputClosed = errors.New("operator input closed")

// Question describes one unresolved value.
type Question struct {
	// Value is the original-case text of the first record seen with Key.
	Value string
	// Key is the normalized lookup key.
	Key string
	// Index counts questions asked during the run, starting at 1.
	Index int
	// Suggestion is the closest known canonical value, if any.
	Suggestion string
}

// Prompter resolves a question to a canonical value. An empty answer means
// "keep the original value"; callers apply that default.
type Prompter interface {
	Ask(ctx context.Context, q Question) (string, error)
}

// Func adapts a function to the Prompter interface.
type Func func(ctx context.Context, q Question) (string, error)

// Ask calls f.
func (f Func) Ask(ctx context.Context, q Question) (string, error) {
	return f(ctx, q)
}

// Canonical applies the empty-answer default.
func Canonical(value, answer string) string {
	if answer == "" {
		return value
	}
	return answer
}

// FormatQuestion renders the prompt text for value using template, which
// holds exactly one %s verb.
func FormatQuestion(template, value string) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultTemplate
	}
	return fmt.Sprintf(template, value)
}

// DefaultTemplate is the prompt shown when none is configured.
const DefaultTemplate = `What should "%s" be mapped to? `
