package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"ctrlvocab/internal/faults"
	"ctrlvocab/internal/logging"
	"ctrlvocab/internal/prompt"
	"ctrlvocab/internal/textutil"
	"ctrlvocab/internal/vocab"
)

// Prompter asks the operator for each queued key, one at a time.
type Prompter struct {
	store   *vocab.Store
	queue   *Queue[PromptRequest]
	asker   prompt.Prompter
	suggest bool
	logger  *slog.Logger
	asked   int
	skipped int
}

// Run serves the prompt queue until it is closed and drained.
func (p *Prompter) Run(ctx context.Context) error {
	for {
		req, ok, err := p.queue.Pop(ctx)
		if err != nil {
			return err
		}
		if !ok {
			p.logger.Debug("prompting finished",
				logging.Int("asked", p.asked),
				logging.Int("skipped", p.skipped),
			)
			return nil
		}

		// The key may have been merged from a watched mapping file.
		if _, known := p.store.Lookup(req.Key); known {
			p.skipped++
			p.logger.Debug("prompt skipped, key already mapped", logging.String(logging.FieldKey, req.Key))
			continue
		}

		p.asked++
		q := prompt.Question{Value: req.Value, Key: req.Key, Index: p.asked}
		if p.suggest {
			q.Suggestion = p.suggestion(req.Value)
		}
		answer, err := p.asker.Ask(ctx, q)
		if err != nil {
			return askError(req, err)
		}
		canonical := prompt.Canonical(req.Value, answer)
		// A watched mapping file may have supplied the key while the
		// operator was answering; records already left with that value.
		if existing, stored := p.store.SetIfAbsent(req.Key, canonical); !stored {
			p.skipped++
			p.logger.Info("answer discarded, key mapped while asking",
				logging.String(logging.FieldKey, req.Key),
				logging.String("canonical", existing),
				logging.String("answer", canonical),
			)
			continue
		}
		p.logger.Info("mapping learned",
			logging.String(logging.FieldKey, req.Key),
			logging.String("canonical", canonical),
		)
	}
}

func askError(req PromptRequest, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, faults.ErrAborted):
		return err
	case errors.Is(err, prompt.ErrInputClosed):
		return faults.Wrap(faults.ErrAborted, "prompter", "ask", req.Value, err)
	default:
		return faults.Wrap(faults.ErrIO, "prompter", "ask", req.Value, err)
	}
}

// suggestion indexes the current canonical values, which change with every
// answer, and returns the closest one.
func (p *Prompter) suggestion(value string) string {
	canonicals := p.store.Canonicals()
	if len(canonicals) == 0 {
		return ""
	}
	closest, score, ok := textutil.NewSuggester(canonicals, 0).Closest(value)
	if !ok {
		return ""
	}
	p.logger.Debug("suggestion found",
		logging.String("value", value),
		logging.String("suggestion", closest),
		logging.Float64("score", score),
	)
	return closest
}
