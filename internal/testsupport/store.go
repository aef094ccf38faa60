package testsupport

import (
	"context"
	"sync"
	"testing"
	"time"

	"ctrlvocab/internal/prompt"
	"ctrlvocab/internal/vocab"
)

// NewStore builds a case-insensitive store seeded with entries.
func NewStore(t testing.TB, entries map[string]string) *vocab.Store {
	t.Helper()

	store := vocab.NewStore(vocab.NewKeyer(false, false))
	store.Merge(entries)
	return store
}

// DelayedPrompter answers from a table after a per-value delay, so answers
// for early values can arrive after answers for later ones.
type DelayedPrompter struct {
	Answers map[string]string
	Delays  map[string]time.Duration

	mu    sync.Mutex
	asked []string
}

// Ask waits for the configured delay, then answers.
func (p *DelayedPrompter) Ask(ctx context.Context, q prompt.Question) (string, error) {
	p.mu.Lock()
	p.asked = append(p.asked, q.Value)
	p.mu.Unlock()

	if d := p.Delays[q.Value]; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}
	return p.Answers[q.Value], nil
}

// Asked returns the asked values in order.
func (p *DelayedPrompter) Asked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.asked))
	copy(out, p.asked)
	return out
}
