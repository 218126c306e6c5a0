// Package index resolves command-line package expressions to concrete
// versions and answers liveness queries for the cache sweep.
package index

// Version is one resolvable package version and the metadata needed to
// build a fetch item for it.
type Version struct {
	Package       string `toml:"package" json:"package"`
	Version       string `toml:"version" json:"version"`
	Architecture  string `toml:"architecture" json:"architecture"`
	Size          uint64 `toml:"size" json:"size"`
	SHA256        string `toml:"sha256" json:"sha256"`
	Filename      string `toml:"filename" json:"filename"`
	Repository    string `toml:"repository" json:"repository"`
	SourcePackage string `toml:"source,omitempty" json:"source,omitempty"`
	Changelog     string `toml:"changelog,omitempty" json:"changelog,omitempty"`

	// Derived from the owning repository entry, not stored per record.
	URI     string `toml:"-" json:"-"`
	Trusted bool   `toml:"-" json:"-"`
}

// Index is the package index contract the workflows and the cache sweep
// depend on.
type Index interface {
	// Resolve turns command-line expressions (name or name=version) into
	// concrete versions, picking the candidate (highest) version for bare
	// names. Unknown names are an error.
	Resolve(exprs []string) ([]Version, error)

	// SourcePackage returns the source package owning a binary package,
	// or "" when the index does not know one.
	SourcePackage(binary string) (string, error)

	// Live returns every version of pkg the index would currently fetch
	// or retain. An empty result means the package is gone.
	Live(pkg string) []string

	// CacheFiles returns the index's derived cache files, for the full
	// cache wipe.
	CacheFiles() []string
}
