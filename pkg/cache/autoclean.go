package cache

import (
	"fmt"
	"io"
	"os"

	"github.com/inhies/go-bytesize"

	"github.com/pkgfetch/pkgfetch/pkg/config"
)

// AutoClean is the reference-aware sweep: cached artifacts whose
// package+version the live index no longer retains are deleted. The
// archive directory lock is mandatory unless locking is disabled; failing
// to take it aborts without deleting anything. Simulate mode only logs.
func AutoClean(opts config.Options, archiveDir string, live Liveness, out io.Writer) error {
	if _, err := os.Stat(archiveDir); os.IsNotExist(err) {
		return nil
	}

	if !opts.NoLocking {
		lock, err := Acquire(archiveDir)
		if err != nil {
			return fmt.Errorf("unable to lock the download directory: %w", err)
		}
		defer lock.Release()
	}

	return Sweep(archiveDir, live, func(e Entry) error {
		fmt.Fprintf(out, "Del %s %s [%s]\n", e.Package, e.Version, bytesize.New(float64(e.Size)))
		if opts.Simulate {
			return nil
		}
		return os.Remove(e.Path)
	})
}
