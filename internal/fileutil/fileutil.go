// Package fileutil provides write helpers that never leave a half-written
// file under its final name.
package fileutil

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicFile buffers writes into a temporary file next to the target path and
// renames it into place on Commit.
type AtomicFile struct {
	path string
	tmp  *os.File
	buf  *bufio.Writer
	done bool
}

// CreateAtomic opens a temporary file in the directory of path.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file for %q: %w", path, err)
	}
	return &AtomicFile{path: path, tmp: tmp, buf: bufio.NewWriterSize(tmp, 64*1024)}, nil
}

// Path returns the final destination path.
func (f *AtomicFile) Path() string {
	return f.path
}

func (f *AtomicFile) Write(p []byte) (int, error) {
	if f.done {
		return 0, os.ErrClosed
	}
	return f.buf.Write(p)
}

// WriteString writes s without an intermediate byte slice conversion.
func (f *AtomicFile) WriteString(s string) (int, error) {
	if f.done {
		return 0, os.ErrClosed
	}
	return f.buf.WriteString(s)
}

// Commit flushes, syncs, and renames the temporary file over the target.
func (f *AtomicFile) Commit() error {
	if f.done {
		return os.ErrClosed
	}
	f.done = true
	if err := f.buf.Flush(); err != nil {
		return f.fail(fmt.Errorf("flush %q: %w", f.path, err))
	}
	if err := f.tmp.Sync(); err != nil {
		return f.fail(fmt.Errorf("sync %q: %w", f.path, err))
	}
	if err := f.tmp.Chmod(0o644); err != nil {
		return f.fail(fmt.Errorf("chmod %q: %w", f.path, err))
	}
	if err := f.tmp.Close(); err != nil {
		_ = os.Remove(f.tmp.Name())
		return fmt.Errorf("close %q: %w", f.path, err)
	}
	if err := os.Rename(f.tmp.Name(), f.path); err != nil {
		_ = os.Remove(f.tmp.Name())
		return fmt.Errorf("rename into %q: %w", f.path, err)
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit.
func (f *AtomicFile) Abort() error {
	if f.done {
		return nil
	}
	f.done = true
	return errors.Join(f.tmp.Close(), os.Remove(f.tmp.Name()))
}

func (f *AtomicFile) fail(err error) error {
	_ = f.tmp.Close()
	_ = os.Remove(f.tmp.Name())
	return err
}

// WriteFileAtomic replaces path with data.
func WriteFileAtomic(path string, data []byte) error {
	f, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Abort()
		return fmt.Errorf("write %q: %w", path, err)
	}
	return f.Commit()
}
