package index

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"sigs.k8s.io/yaml"
)

// File is the file-backed Index: a YAML repository list plus TOML package
// records. Parsed state is saved to a derived cache file so subsequent
// opens skip the parse when neither input changed.
type File struct {
	sourcesPath string
	indexPath   string

	repos    map[string]repository
	packages map[string][]Version
}

var _ Index = &File{}

type repository struct {
	Name    string `json:"name" toml:"name"`
	URL     string `json:"url" toml:"url"`
	Suite   string `json:"suite" toml:"suite"`
	Trusted bool   `json:"trusted" toml:"trusted"`
}

type sourcesFile struct {
	Repositories []repository `json:"repositories"`
}

type indexFile struct {
	Packages []Version `toml:"packages"`
}

// cacheFile is the on-disk derived cache: both inputs merged into one
// TOML document.
type cacheFile struct {
	Repositories []repository `toml:"repositories"`
	Packages     []Version    `toml:"packages"`
}

// Open loads the index from sourcesPath (YAML) and indexPath (TOML),
// preferring the derived cache file when it is newer than both.
func Open(sourcesPath, indexPath string) (*File, error) {
	f := &File{sourcesPath: sourcesPath, indexPath: indexPath}

	if cached, ok := f.loadCache(); ok {
		f.build(cached.Repositories, cached.Packages)
		return f, nil
	}

	srcData, err := os.ReadFile(sourcesPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", sourcesPath, err)
	}
	var sources sourcesFile
	if err := yaml.Unmarshal(srcData, &sources); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", sourcesPath, err)
	}

	idxData, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", indexPath, err)
	}
	var idx indexFile
	if err := toml.Unmarshal(idxData, &idx); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", indexPath, err)
	}

	f.build(sources.Repositories, idx.Packages)
	f.saveCache(sources.Repositories, idx.Packages)
	return f, nil
}

func (f *File) build(repos []repository, packages []Version) {
	f.repos = make(map[string]repository, len(repos))
	for _, r := range repos {
		f.repos[r.Name] = r
	}

	f.packages = make(map[string][]Version)
	for _, v := range packages {
		if repo, ok := f.repos[v.Repository]; ok {
			base := strings.TrimRight(repo.URL, "/")
			v.URI = base + "/" + v.Filename
			v.Trusted = repo.Trusted
			if v.Changelog == "" {
				v.Changelog = fmt.Sprintf("%s/changelogs/%s_%s.changelog", base, v.Package, v.Version)
			}
		}
		f.packages[v.Package] = append(f.packages[v.Package], v)
	}

	// Candidate first.
	for name := range f.packages {
		vs := f.packages[name]
		sort.Slice(vs, func(i, j int) bool {
			return CompareVersions(vs[i].Version, vs[j].Version) > 0
		})
	}
}

func (f *File) cachePath() string {
	return f.indexPath + ".cache"
}

func (f *File) loadCache() (cacheFile, bool) {
	var cached cacheFile

	ci, err := os.Stat(f.cachePath())
	if err != nil {
		return cached, false
	}
	for _, input := range []string{f.sourcesPath, f.indexPath} {
		ii, err := os.Stat(input)
		if err != nil || ii.ModTime().After(ci.ModTime()) {
			return cached, false
		}
	}

	data, err := os.ReadFile(f.cachePath())
	if err != nil {
		return cached, false
	}
	if err := toml.Unmarshal(data, &cached); err != nil {
		return cached, false
	}
	return cached, true
}

// saveCache is best-effort; a failure only costs the next open a re-parse.
func (f *File) saveCache(repos []repository, packages []Version) {
	data, err := toml.Marshal(cacheFile{Repositories: repos, Packages: packages})
	if err != nil {
		return
	}
	if err := os.WriteFile(f.cachePath(), data, 0o644); err != nil {
		log.Debug().Err(err).Msg("writing index cache")
	}
}

// Resolve turns package expressions into Versions. The result is a set:
// expressions naming the same version collapse to one entry.
func (f *File) Resolve(exprs []string) ([]Version, error) {
	var out []Version
	seen := make(map[string]bool, len(exprs))
	add := func(v Version) {
		key := v.Package + "=" + v.Version
		if !seen[key] {
			seen[key] = true
			out = append(out, v)
		}
	}

	for _, expr := range exprs {
		name, want, pinned := strings.Cut(expr, "=")

		vs, ok := f.packages[name]
		if !ok || len(vs) == 0 {
			return nil, fmt.Errorf("unable to locate package %s", name)
		}

		if !pinned {
			add(vs[0])
			continue
		}

		found := false
		for _, v := range vs {
			if v.Version == want {
				add(v)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("version %s of package %s is not available", want, name)
		}
	}
	return out, nil
}

func (f *File) SourcePackage(binary string) (string, error) {
	vs, ok := f.packages[binary]
	if !ok || len(vs) == 0 {
		return "", nil
	}
	return vs[0].SourcePackage, nil
}

func (f *File) Live(pkg string) []string {
	vs := f.packages[pkg]
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Version)
	}
	return out
}

func (f *File) CacheFiles() []string {
	return []string{f.cachePath()}
}
