package pipeline

import (
	"sync"

	"ctrlvocab/internal/faults"
	"ctrlvocab/internal/fileutil"
)

// Sink receives the records of one destination in sequence order.
type Sink interface {
	Emit(rec Record) error
	// Close finalizes a complete destination.
	Close() error
	// Abort discards an incomplete destination.
	Abort() error
}

// FileSink writes a destination file atomically: nothing appears under the
// final name until Close.
type FileSink struct {
	file *fileutil.AtomicFile
}

// NewFileSink opens a temporary file next to path.
func NewFileSink(path string) (*FileSink, error) {
	file, err := fileutil.CreateAtomic(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "writer", "create destination", path, err)
	}
	return &FileSink{file: file}, nil
}

func (s *FileSink) Emit(rec Record) error {
	if _, err := s.file.WriteString(rec.Value); err != nil {
		return faults.Wrap(faults.ErrIO, "writer", "write", s.file.Path(), err)
	}
	if rec.Terminator == "" {
		return nil
	}
	if _, err := s.file.WriteString(rec.Terminator); err != nil {
		return faults.Wrap(faults.ErrIO, "writer", "write", s.file.Path(), err)
	}
	return nil
}

func (s *FileSink) Close() error {
	if err := s.file.Commit(); err != nil {
		return faults.Wrap(faults.ErrIO, "writer", "commit", s.file.Path(), err)
	}
	return nil
}

func (s *FileSink) Abort() error {
	return s.file.Abort()
}

// ConsoleSink collects emitted values for printing after the run.
type ConsoleSink struct {
	mu     sync.Mutex
	values []string
}

func (s *ConsoleSink) Emit(rec Record) error {
	s.mu.Lock()
	s.values = append(s.values, rec.Value)
	s.mu.Unlock()
	return nil
}

func (s *ConsoleSink) Close() error { return nil }

func (s *ConsoleSink) Abort() error { return nil }

// Values returns the collected values in emission order.
func (s *ConsoleSink) Values() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}
