package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkgfetch/pkgfetch/pkg/config"
)

func partialDir(dir string) string {
	return filepath.Join(dir, "partial")
}

// Wipe is the full clean: everything under the archive directory and its
// partial subdirectory, the lists partial subdirectory, and the index's
// derived cache files. Directories that don't exist are skipped. In
// simulate mode only the would-be deletions are printed.
func Wipe(opts config.Options, archiveDir, listsDir string, cacheFiles []string, out io.Writer) error {
	if opts.Simulate {
		fmt.Fprintf(out, "Del %s/* %s/*\n", archiveDir, partialDir(archiveDir))
		fmt.Fprintf(out, "Del %s/*\n", partialDir(listsDir))
		for _, f := range cacheFiles {
			fmt.Fprintf(out, "Del %s\n", f)
		}
		return nil
	}

	if err := cleanLocked(opts, archiveDir, func(dir string) error {
		if err := removeFiles(dir); err != nil {
			return err
		}
		return removeFiles(partialDir(dir))
	}); err != nil {
		return err
	}

	if err := cleanLocked(opts, listsDir, func(dir string) error {
		return removeFiles(partialDir(dir))
	}); err != nil {
		return err
	}

	for _, f := range cacheFiles {
		if err := os.Remove(f); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", f, err)
		}
	}

	return nil
}

// cleanLocked runs fn on dir while holding its advisory lock. Missing
// directories are skipped; a held lock means someone else is mutating the
// cache and is fatal unless locking is disabled.
func cleanLocked(opts config.Options, dir string, fn func(string) error) error {
	if dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	if !opts.NoLocking {
		lock, err := Acquire(dir)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	return fn(dir)
}

// removeFiles deletes the regular files directly under dir, leaving the
// lock file and subdirectories in place.
func removeFiles(dir string) error {
	des, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, de := range des {
		if de.IsDir() || de.Name() == "lock" {
			continue
		}
		if err := os.Remove(filepath.Join(dir, de.Name())); err != nil {
			return fmt.Errorf("removing %s: %w", de.Name(), err)
		}
	}

	return nil
}
