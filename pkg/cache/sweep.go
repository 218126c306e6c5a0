package cache

import (
	"fmt"
	"slices"
)

// Liveness answers which versions of a package the index would currently
// fetch or retain.
type Liveness interface {
	Live(pkg string) []string
}

// Sweep walks the cache entries under dir and its partial subdirectory and
// hands every entry whose package+version is no longer live to onDelete.
// An entry survives exactly when it is still a version the current index
// would retain; age and access order play no part.
func Sweep(dir string, live Liveness, onDelete func(Entry) error) error {
	for _, d := range []string{dir, partialDir(dir)} {
		entries, err := scanEntries(d)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", d, err)
		}

		for _, e := range entries {
			if slices.Contains(live.Live(e.Package), e.Version) {
				continue
			}
			if err := onDelete(e); err != nil {
				return fmt.Errorf("removing %s: %w", e.Path, err)
			}
		}
	}

	return nil
}
