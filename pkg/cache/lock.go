// Package cache garbage-collects the on-disk artifact cache: an
// unconditional wipe and a reference-aware sweep driven by the live
// package index. Both take directory-scoped advisory locks before
// mutating anything.
package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock is an exclusive advisory lock on a directory, held through a lock
// file inside it.
type Lock struct {
	f *os.File
}

// Acquire takes the directory lock without blocking. Contention is an
// error, not a retry condition.
func Acquire(dir string) (*Lock, error) {
	f, err := os.OpenFile(filepath.Join(dir, "lock"), os.O_RDWR|os.O_CREATE, 0o640)
	if err != nil {
		return nil, fmt.Errorf("opening lock file in %s: %w", dir, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("locking %s: %w", dir, err)
	}

	return &Lock{f: f}, nil
}

func (l *Lock) Release() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		l.f.Close()
		return fmt.Errorf("unlocking: %w", err)
	}
	return l.f.Close()
}
