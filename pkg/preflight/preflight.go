// Package preflight checks that the destination filesystem can hold a
// planned download before any network activity starts.
package preflight

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/pkgfetch/pkgfetch/pkg/config"
)

// statfs is a variable so tests can substitute filesystem answers.
var statfs = unix.Statfs

// CheckFreeSpace verifies dir has room for fetchBytes before a download
// run. It is a no-op when no network fetch is actually going to happen
// (print-uris mode, or downloading disabled).
//
// The unprivileged available-block count is authoritative when fetches run
// under a sandbox user; otherwise the raw free count is used. Equality
// passes: the check fails only when free space is strictly below the need.
// A low reading on a memory-backed filesystem is treated as unreliable and
// does not fail. An overflowing statfs degrades to a warning.
func CheckFreeSpace(dir string, fetchBytes uint64, opts config.Options) error {
	if opts.PrintURIs || !opts.DownloadEnabled {
		return nil
	}

	var st unix.Statfs_t
	if err := statfs(dir, &st); err != nil {
		if errors.Is(err, unix.EOVERFLOW) {
			log.Warn().Str("dir", dir).Msg("couldn't determine free space")
			return nil
		}
		return fmt.Errorf("couldn't determine free space in %s: %w", dir, err)
	}

	free := uint64(st.Bfree)
	if opts.SandboxUser != "" {
		free = uint64(st.Bavail)
	}

	if free < fetchBytes/uint64(st.Bsize) && !memoryBacked(st.Type) {
		return fmt.Errorf("you don't have enough free space in %s", dir)
	}

	return nil
}

func memoryBacked(fsType int64) bool {
	return fsType == unix.RAMFS_MAGIC || fsType == unix.TMPFS_MAGIC
}
