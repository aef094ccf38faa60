package prompt

import (
	"context"
	"sync"
)

// ScriptedPrompter answers from a fixed table. Lookups try the original
// value first, then the key. Unknown questions get an empty answer, which
// keeps the original value.
type ScriptedPrompter struct {
	mu      sync.Mutex
	answers map[string]string
	asked   int
}

// NewScriptedPrompter builds a prompter over answers. The map is copied.
func NewScriptedPrompter(answers map[string]string) *ScriptedPrompter {
	copied := make(map[string]string, len(answers))
	for k, v := range answers {
		copied[k] = v
	}
	return &ScriptedPrompter{answers: copied}
}

// Ask returns the scripted answer for q.
func (p *ScriptedPrompter) Ask(ctx context.Context, q Question) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asked++
	if answer, ok := p.answers[q.Value]; ok {
		return answer, nil
	}
	if answer, ok := p.answers[q.Key]; ok {
		return answer, nil
	}
	return "", nil
}

// Asked reports how many questions were answered.
func (p *ScriptedPrompter) Asked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asked
}
