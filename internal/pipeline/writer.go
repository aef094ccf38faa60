package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"ctrlvocab/internal/faults"
	"ctrlvocab/internal/logging"
)

// Writer emits records to their sinks strictly in sequence order per
// destination.
type Writer struct {
	in     <-chan []Record
	sinks  map[int]Sink
	logger *slog.Logger

	next    map[int]int64
	pending map[int]map[int64]Record
	counts  map[string]int
	total   int
}

func newWriter(in <-chan []Record, sinks map[int]Sink, logger *slog.Logger) *Writer {
	w := &Writer{
		in:      in,
		sinks:   sinks,
		logger:  logger,
		next:    make(map[int]int64, len(sinks)),
		pending: make(map[int]map[int64]Record, len(sinks)),
		counts:  make(map[string]int),
	}
	for dest := range sinks {
		w.pending[dest] = make(map[int64]Record)
	}
	return w
}

// Run drains the output channel. On success every sink is closed; on
// failure every sink is aborted.
func (w *Writer) Run(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			w.abortAll()
			return
		}
		err = w.closeAll()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case batch, ok := <-w.in:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				if held := w.Held(); held > 0 {
					return faults.Wrap(faults.ErrValidation, "writer", "finish",
						fmt.Sprintf("%d records never became contiguous", held), nil)
				}
				w.logger.Debug("writing finished", logging.Int("records", w.total))
				return nil
			}
			for _, rec := range batch {
				if err := w.accept(rec); err != nil {
					return err
				}
			}
		}
	}
}

func (w *Writer) accept(rec Record) error {
	pending, ok := w.pending[rec.Dest]
	if !ok {
		return faults.Wrap(faults.ErrValidation, "writer", "route", fmt.Sprintf("unknown destination %d", rec.Dest), nil)
	}
	next := w.next[rec.Dest]
	switch {
	case rec.Seq < next:
		return faults.Wrap(faults.ErrValidation, "writer", "route", fmt.Sprintf("duplicate sequence %d for destination %d", rec.Seq, rec.Dest), nil)
	case rec.Seq > next:
		if _, dup := pending[rec.Seq]; dup {
			return faults.Wrap(faults.ErrValidation, "writer", "route", fmt.Sprintf("duplicate sequence %d for destination %d", rec.Seq, rec.Dest), nil)
		}
		pending[rec.Seq] = rec
		return nil
	}

	if err := w.emit(rec); err != nil {
		return err
	}
	for {
		buffered, ok := pending[w.next[rec.Dest]]
		if !ok {
			return nil
		}
		delete(pending, buffered.Seq)
		if err := w.emit(buffered); err != nil {
			return err
		}
	}
}

func (w *Writer) emit(rec Record) error {
	if err := w.sinks[rec.Dest].Emit(rec); err != nil {
		return err
	}
	w.next[rec.Dest]++
	w.counts[rec.Value]++
	w.total++
	return nil
}

// Held reports records still waiting for a predecessor.
func (w *Writer) Held() int {
	held := 0
	for _, pending := range w.pending {
		held += len(pending)
	}
	return held
}

func (w *Writer) closeAll() error {
	var first error
	for dest, sink := range w.sinks {
		if err := sink.Close(); err != nil {
			w.logger.Error("destination close failed", logging.Int(logging.FieldDestination, dest), logging.Error(err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func (w *Writer) abortAll() {
	for dest, sink := range w.sinks {
		if err := sink.Abort(); err != nil {
			w.logger.Warn("destination abort failed", logging.Int(logging.FieldDestination, dest), logging.Error(err))
		}
	}
}
