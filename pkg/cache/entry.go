package cache

import (
	"os"
	"path/filepath"
	"strings"
)

// Entry is one cached artifact discovered by directory scan. Identity
// comes from the filename (name_version_arch.<ext>), not from the index.
type Entry struct {
	Package string
	Version string
	Path    string
	Size    int64
}

// scanEntries lists the cache entries directly under dir. Files that do
// not follow the artifact naming scheme (the lock file, partial leftovers
// under odd names) are ignored. A missing directory yields no entries.
func scanEntries(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var entries []Entry
	for _, de := range des {
		if de.IsDir() {
			continue
		}

		pkg, ver, ok := parseArtifactName(de.Name())
		if !ok {
			continue
		}

		info, err := de.Info()
		if err != nil {
			continue
		}

		entries = append(entries, Entry{
			Package: pkg,
			Version: ver,
			Path:    filepath.Join(dir, de.Name()),
			Size:    info.Size(),
		})
	}

	return entries, nil
}

// parseArtifactName splits name_version_arch.<ext>. Colons in versions are
// stored %3a-escaped on disk.
func parseArtifactName(name string) (pkg, ver string, ok bool) {
	base := name
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}

	parts := strings.Split(base, "_")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}

	ver = strings.ReplaceAll(parts[1], "%3a", ":")
	return parts[0], ver, true
}
