package pipeline

import (
	"context"
	"log/slog"

	"ctrlvocab/internal/logging"
	"ctrlvocab/internal/vocab"
)

// Converter replaces record values with their canonical form and holds back
// records whose key is still unknown.
type Converter struct {
	store   *vocab.Store
	in      <-chan []Record
	out     chan<- []Record
	prompts *Queue[PromptRequest]
	logger  *slog.Logger

	waiting map[string][]Record
	queued  map[string]struct{}
	held    int

	converted int64
	parked    int64
}

func newConverter(store *vocab.Store, in <-chan []Record, out chan<- []Record, prompts *Queue[PromptRequest], logger *slog.Logger) *Converter {
	return &Converter{
		store:   store,
		in:      in,
		out:     out,
		prompts: prompts,
		logger:  logger,
		waiting: make(map[string][]Record),
		queued:  make(map[string]struct{}),
	}
}

// Run converts until the input is closed and no record is waiting. It closes
// the output channel and the prompt queue on return.
func (c *Converter) Run(ctx context.Context) error {
	defer close(c.out)
	defer c.prompts.Close()

	in := c.in
	changed := c.store.Changed()
	for {
		if in == nil && c.held == 0 {
			c.logger.Debug("converting finished",
				logging.Int64("converted", c.converted),
				logging.Int64("parked", c.parked),
				logging.Int("prompt_keys", len(c.queued)),
			)
			return nil
		}

		var resolved []Record
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			resolved = c.convert(batch)
		case <-changed:
			resolved = c.release()
		}

		if len(resolved) > 0 {
			c.converted += int64(len(resolved))
			if err := send(ctx, c.out, resolved); err != nil {
				return err
			}
		}
	}
}

// convert resolves fresh records in place and parks the misses.
func (c *Converter) convert(batch []Record) []Record {
	resolved := batch[:0]
	for _, rec := range batch {
		key := c.store.Key(rec.Value)
		if canonical, ok := c.store.Lookup(key); ok {
			rec.Value = canonical
			resolved = append(resolved, rec)
			continue
		}
		c.park(key, rec)
	}
	return resolved
}

func (c *Converter) park(key string, rec Record) {
	if _, ok := c.queued[key]; !ok {
		c.queued[key] = struct{}{}
		c.prompts.Push(PromptRequest{Key: key, Value: rec.Value})
		c.logger.Debug("key queued for prompt", logging.String(logging.FieldKey, key))
	}
	c.waiting[key] = append(c.waiting[key], rec)
	c.held++
	c.parked++
}

// release forwards every waiting record whose key now resolves.
func (c *Converter) release() []Record {
	var resolved []Record
	for key, recs := range c.waiting {
		canonical, ok := c.store.Lookup(key)
		if !ok {
			continue
		}
		for _, rec := range recs {
			rec.Value = canonical
			resolved = append(resolved, rec)
		}
		c.held -= len(recs)
		delete(c.waiting, key)
	}
	return resolved
}
