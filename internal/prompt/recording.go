package prompt

import (
	"context"
	"sync"
)

// Exchange is one recorded question and its answer.
type Exchange struct {
	Question Question
	Answer   string
	Err      error
}

// RecordingPrompter forwards to another prompter and keeps every exchange.
type RecordingPrompter struct {
	next Prompter

	mu        sync.Mutex
	exchanges []Exchange
}

// NewRecordingPrompter wraps next.
func NewRecordingPrompter(next Prompter) *RecordingPrompter {
	return &RecordingPrompter{next: next}
}

// Ask forwards q and records the outcome.
func (p *RecordingPrompter) Ask(ctx context.Context, q Question) (string, error) {
	answer, err := p.next.Ask(ctx, q)
	p.mu.Lock()
	p.exchanges = append(p.exchanges, Exchange{Question: q, Answer: answer, Err: err})
	p.mu.Unlock()
	return answer, err
}

// Exchanges returns a copy of the recorded exchanges in call order.
func (p *RecordingPrompter) Exchanges() []Exchange {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Exchange, len(p.exchanges))
	copy(out, p.exchanges)
	return out
}

// Values returns the asked values in call order.
func (p *RecordingPrompter) Values() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.exchanges))
	for _, ex := range p.exchanges {
		out = append(out, ex.Question.Value)
	}
	return out
}
