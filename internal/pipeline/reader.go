package pipeline

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"ctrlvocab/internal/faults"
	"ctrlvocab/internal/logging"
)

const readBufferSize = 64 * 1024

// Reader streams source files into sequenced record batches.
type Reader struct {
	sources   []string
	destFor   func(source int) int
	sharedSeq bool
	batchSize int
	out       chan<- []Record
	logger    *slog.Logger

	lines int64
}

// Run reads every source in order and closes the output channel once all of
// them were sent. On failure the channel stays open; the run context is
// cancelled instead, so a partial input never looks complete downstream.
func (r *Reader) Run(ctx context.Context) error {
	var shared int64
	batch := make([]Record, 0, r.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := send(ctx, r.out, batch); err != nil {
			return err
		}
		batch = make([]Record, 0, r.batchSize)
		return nil
	}

	for i, path := range r.sources {
		var local int64
		seq := &local
		if r.sharedSeq {
			seq = &shared
		}
		last := i == len(r.sources)-1
		count, err := r.readSource(ctx, i, path, seq, last, &batch, flush)
		if err != nil {
			return err
		}
		r.logger.Debug("source read",
			logging.String(logging.FieldSource, path),
			logging.Int64("lines", count),
		)
	}
	if err := flush(); err != nil {
		return err
	}
	close(r.out)
	r.logger.Debug("reading finished", logging.Int64("lines", r.lines))
	return nil
}

func (r *Reader) readSource(ctx context.Context, index int, path string, seq *int64, last bool, batch *[]Record, flush func() error) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, faults.Wrap(faults.ErrIO, "reader", "open source", path, err)
	}
	defer file.Close()

	dest := r.destFor(index)
	reader := bufio.NewReaderSize(file, readBufferSize)
	var count int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return count, faults.Wrap(faults.ErrIO, "reader", "read source", path, err)
		}
		if line != "" {
			value, term := splitTerminator(line)
			if term == "" && r.sharedSeq && !last {
				// The next source continues the same output stream.
				term = "\n"
			}
			*batch = append(*batch, Record{
				Dest:       dest,
				Seq:        *seq,
				Value:      value,
				Terminator: term,
				Source:     index,
			})
			*seq++
			count++
			r.lines++
			if len(*batch) >= r.batchSize {
				if ferr := flush(); ferr != nil {
					return count, ferr
				}
			}
		}
		if err != nil {
			return count, nil
		}
	}
}

func splitTerminator(line string) (value, terminator string) {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return line[:len(line)-2], "\r\n"
	case strings.HasSuffix(line, "\n"):
		return line[:len(line)-1], "\n"
	default:
		return line, ""
	}
}
