package snapshot

import (
	"context"
	"fmt"
	"io/fs"
	"syscall"
	"testing"
)

func TestLockUnavailable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"permission denied", &fs.PathError{Op: "open", Path: "m.json.lock", Err: syscall.EACCES}, true},
		{"read-only filesystem", &fs.PathError{Op: "open", Path: "m.json.lock", Err: syscall.EROFS}, true},
		{"wrapped", fmt.Errorf("flock: %w", fs.ErrPermission), true},
		{"held elsewhere", ErrLocked, false},
		{"timeout", context.DeadlineExceeded, false},
		{"missing directory", &fs.PathError{Op: "open", Path: "m.json.lock", Err: syscall.ENOENT}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := lockUnavailable(tc.err); got != tc.want {
				t.Fatalf("lockUnavailable(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
