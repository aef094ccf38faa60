package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"ctrlvocab/internal/faults"
	"ctrlvocab/internal/fileutil"
	"ctrlvocab/internal/logging"
)

const lockRetryDelay = 50 * time.Millisecond

// ErrLocked is returned when another process holds the snapshot lock past the
// configured timeout.
var ErrLocked = errors.New("snapshot locked by another process")

// Options tunes snapshot access.
type Options struct {
	// LockTimeout bounds the wait for the advisory lock. Zero tries once.
	LockTimeout time.Duration
	// RunID is recorded with SQLite exports; empty generates one.
	RunID string
	// Logger receives lock diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Load reads the mapping stored at path.
func Load(ctx context.Context, path string, opts Options) (map[string]string, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "snapshot", "load", path, err)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, faults.Wrap(faults.ErrIO, "snapshot", "load", path, err)
	}

	unlock, err := acquire(ctx, path, opts.LockTimeout, false)
	switch {
	case err == nil:
		defer unlock()
	case lockUnavailable(err):
		// A mapping on a read-only location can still be read; only the
		// advisory lock file cannot be created next to it.
		logging.NewComponentLogger(opts.Logger, "snapshot").Debug("reading without lock",
			logging.String("path", path),
			logging.Error(err),
		)
	default:
		return nil, faults.Wrap(faults.ErrIO, "snapshot", "lock", path, err)
	}

	if format == FormatSQLite {
		db, err := openSQLite(ctx, path)
		if err != nil {
			return nil, faults.Wrap(faults.ErrIO, "snapshot", "open", path, err)
		}
		defer db.Close()
		entries, err := db.load(ctx)
		if err != nil {
			return nil, faults.Wrap(faults.ErrIO, "snapshot", "load", path, err)
		}
		return entries, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIO, "snapshot", "read", path, err)
	}
	entries, err := decodeText(format, data)
	if err != nil {
		return nil, faults.Wrap(faults.ErrValidation, "snapshot", "decode", path, err)
	}
	return entries, nil
}

// Save replaces the mapping stored at path with entries.
func Save(ctx context.Context, path string, entries map[string]string, opts Options) error {
	format, err := FormatForPath(path)
	if err != nil {
		return faults.Wrap(faults.ErrConfiguration, "snapshot", "save", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return faults.Wrap(faults.ErrIO, "snapshot", "save", path, err)
	}

	unlock, err := acquire(ctx, path, opts.LockTimeout, true)
	if err != nil {
		return faults.Wrap(faults.ErrIO, "snapshot", "lock", path, err)
	}
	defer unlock()

	if format == FormatSQLite {
		db, err := openSQLite(ctx, path)
		if err != nil {
			return faults.Wrap(faults.ErrIO, "snapshot", "open", path, err)
		}
		defer db.Close()
		if err := db.replace(ctx, entries, opts.RunID); err != nil {
			return faults.Wrap(faults.ErrIO, "snapshot", "save", path, err)
		}
		return nil
	}

	data, err := encodeText(format, entries)
	if err != nil {
		return faults.Wrap(faults.ErrValidation, "snapshot", "encode", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, data); err != nil {
		return faults.Wrap(faults.ErrIO, "snapshot", "write", path, err)
	}
	return nil
}

// Exports lists the audit rows of an SQLite snapshot.
func Exports(ctx context.Context, path string) ([]ExportRecord, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	if format != FormatSQLite {
		return nil, fmt.Errorf("%s: export history is only kept by sqlite snapshots", path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return db.exports(ctx)
}

// lockUnavailable reports whether err means the lock file cannot be created
// at all, as opposed to being held by someone else.
func lockUnavailable(err error) bool {
	return errors.Is(err, fs.ErrPermission) || errors.Is(err, syscall.EROFS)
}

func acquire(ctx context.Context, path string, timeout time.Duration, exclusive bool) (func(), error) {
	lock := flock.New(path + ".lock")

	lockCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var (
		ok  bool
		err error
	)
	switch {
	case timeout <= 0 && exclusive:
		ok, err = lock.TryLock()
	case timeout <= 0:
		ok, err = lock.TryRLock()
	case exclusive:
		ok, err = lock.TryLockContext(lockCtx, lockRetryDelay)
	default:
		ok, err = lock.TryRLockContext(lockCtx, lockRetryDelay)
	}
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() { _ = lock.Unlock() }, nil
}
